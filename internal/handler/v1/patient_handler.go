package v1

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func (h *PatientHandler) Create(c *gin.Context) {
	var cmd service.CreatePatientCommand
	if !bindJSON(c, &cmd) {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), &cmd, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "patient created successfully", p)
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListQuery{
		Page:     parseQueryInt(c, "page", 1),
		Limit:    parseQueryInt(c, "limit", 20),
		Search:   c.Query("search"),
		DoctorID: c.Query("doctorId"),
		ClinicID: c.Query("clinicId"),
	}
	if c.Query("dateField") == string(patient.DateFieldLatestFollowup) {
		q.DateField = patient.DateFieldLatestFollowup
	} else {
		q.DateField = patient.DateFieldCreatedAt
	}
	if t, ok := parseQueryDate(c, "startdate"); ok {
		q.StartDate = &t
	}
	if t, ok := parseQueryDate(c, "enddate"); ok {
		q.EndDate = &t
	}

	page, err := h.svc.ListPatients(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "patients fetched successfully",
		"data":           page.Patients,
		"page":           page.Page,
		"totalPages":     page.TotalPages,
		"totalDocuments": page.TotalDocuments,
	})
}

func (h *PatientHandler) Get(c *gin.Context) {
	view, err := h.svc.GetPatient(c.Request.Context(),
		c.Param("patientId"),
		c.Query("prescriptionId"),
		c.Query("tccardId"),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "patient fetched successfully", view)
}

func (h *PatientHandler) Update(c *gin.Context) {
	var cmd patient.UpdateCommand
	if !bindJSON(c, &cmd) {
		return
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), c.Param("patientId"), &cmd, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "patient updated successfully", p)
}

func (h *PatientHandler) Delete(c *gin.Context) {
	if err := h.svc.DeletePatient(c.Request.Context(), c.Param("patientId"), callerEntry(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "patient deleted successfully", nil)
}

func (h *PatientHandler) AddPrescription(c *gin.Context) {
	var patch prescription.Patch
	if !bindJSON(c, &patch) {
		return
	}

	pres, err := h.svc.AddPrescription(c.Request.Context(), c.Param("patientId"), &patch, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "prescription created successfully", pres)
}

func (h *PatientHandler) UpdatePrescription(c *gin.Context) {
	var patch prescription.Patch
	if !bindJSON(c, &patch) {
		return
	}

	pres, err := h.svc.UpdatePrescription(c.Request.Context(),
		c.Param("patientId"), c.Param("prescriptionId"), &patch, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "prescription updated successfully", pres)
}

func (h *PatientHandler) DeletePrescription(c *gin.Context) {
	err := h.svc.DeletePrescription(c.Request.Context(),
		c.Param("patientId"), c.Param("prescriptionId"), callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "prescription deleted successfully", nil)
}

func (h *PatientHandler) DeleteSubItem(c *gin.Context) {
	err := h.svc.DeleteSubItem(c.Request.Context(),
		c.Param("patientId"),
		c.Param("prescriptionId"),
		prescription.Kind(c.Param("subdocument")),
		c.Param("customId"),
		callerEntry(c),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "entry deleted successfully", nil)
}

func (h *PatientHandler) UpdateSubItem(c *gin.Context) {
	var payload json.RawMessage
	if !bindJSON(c, &payload) {
		return
	}
	pres, err := h.svc.UpdateSubItem(c.Request.Context(),
		c.Param("patientId"),
		c.Param("prescriptionId"),
		prescription.Kind(c.Param("subdocument")),
		c.Param("customId"),
		payload,
		callerEntry(c),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "entry updated successfully", pres)
}

func (h *PatientHandler) AttachPrescriptionPdf(c *gin.Context) {
	file, name, ok := requireFormFile(c, "prescriptionPdf")
	if !ok {
		return
	}
	defer file.Close()

	pres, err := h.svc.AttachPrescriptionPdf(c.Request.Context(),
		c.Param("patientId"), c.Param("prescriptionId"), name, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "prescription pdf uploaded successfully", pres)
}

func (h *PatientHandler) AddDocument(c *gin.Context) {
	file, name, ok := requireFormFile(c, "documentFile")
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.svc.AddDocument(c.Request.Context(),
		c.Param("patientId"), c.PostForm("documentTitle"), name, file, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "document added successfully", doc)
}

func (h *PatientHandler) UpdateDocument(c *gin.Context) {
	var (
		reader io.Reader
		name   string
	)
	if f, header, err := c.Request.FormFile("documentFile"); err == nil {
		defer f.Close()
		reader, name = f, header.Filename
	}

	doc, err := h.svc.UpdateDocument(c.Request.Context(),
		c.Param("patientId"), c.Param("documentId"),
		c.PostForm("documentTitle"), name, reader, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "document updated successfully", doc)
}

func (h *PatientHandler) DeleteDocument(c *gin.Context) {
	err := h.svc.DeleteDocument(c.Request.Context(),
		c.Param("patientId"), c.Param("documentId"), callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "document deleted successfully", nil)
}

func (h *PatientHandler) AddPayment(c *gin.Context) {
	var cmd service.PaymentCommand
	if !bindJSON(c, &cmd) {
		return
	}

	group, err := h.svc.AddPayment(c.Request.Context(), c.Param("patientId"), &cmd, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "payment added successfully", group)
}

func (h *PatientHandler) UpdatePayment(c *gin.Context) {
	var cmd service.PaymentCommand
	if !bindJSON(c, &cmd) {
		return
	}

	group, err := h.svc.UpdatePayment(c.Request.Context(),
		c.Param("patientId"), c.Param("paymentId"), &cmd, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "payment updated successfully", group)
}

func (h *PatientHandler) AddTCCard(c *gin.Context) {
	cmd, pdfName, pdf, ok := bindTCCard(c)
	if !ok {
		return
	}
	if pdf != nil {
		defer pdf.Close()
	}

	card, err := h.svc.AddTCCard(c.Request.Context(),
		c.Param("patientId"), cmd, pdfName, readerOrNil(pdf), callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "tc card added successfully", card)
}

func (h *PatientHandler) UpdateTCCard(c *gin.Context) {
	cmd, pdfName, pdf, ok := bindTCCard(c)
	if !ok {
		return
	}
	if pdf != nil {
		defer pdf.Close()
	}

	card, err := h.svc.UpdateTCCard(c.Request.Context(),
		c.Param("patientId"), c.Param("tcCardId"), cmd, pdfName, readerOrNil(pdf), callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "tc card updated successfully", card)
}

func (h *PatientHandler) DeleteTCCard(c *gin.Context) {
	err := h.svc.DeleteTCCard(c.Request.Context(),
		c.Param("patientId"), c.Param("tcCardId"), callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "tc card deleted successfully", nil)
}

func (h *PatientHandler) Import(c *gin.Context) {
	file, _, ok := requireFormFile(c, "file")
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.svc.ImportCSV(c.Request.Context(), file, callerEntry(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "patients imported", result)
}

func (h *PatientHandler) Export(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="patients-`+time.Now().Format("2006-01-02")+`.csv"`)

	if err := h.svc.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		respondServiceError(c, err)
	}
}

// bindTCCard accepts either a plain JSON body or a multipart form with a
// "data" JSON field and an optional "tccardPdf" file.
func bindTCCard(c *gin.Context) (*service.TCCardCommand, string, multipart.File, bool) {
	var cmd service.TCCardCommand

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if data := c.PostForm("data"); data != "" {
			if err := json.Unmarshal([]byte(data), &cmd); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request body", err.Error())
				return nil, "", nil, false
			}
		}
		if f, header, err := c.Request.FormFile("tccardPdf"); err == nil {
			return &cmd, header.Filename, f, true
		}
		return &cmd, "", nil, true
	}

	if !bindJSON(c, &cmd) {
		return nil, "", nil, false
	}
	return &cmd, "", nil, true
}

func requireFormFile(c *gin.Context, field string) (multipart.File, string, bool) {
	f, header, err := c.Request.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid request", field+" file is required")
		return nil, "", false
	}
	return f, header.Filename, true
}

func readerOrNil(f multipart.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}

func parseQueryDate(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
