package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
)

type ClinicHandler struct {
	svc *service.ClinicService
}

func NewClinicHandler(svc *service.ClinicService) *ClinicHandler {
	return &ClinicHandler{svc: svc}
}

type createClinicRequest struct {
	ClinicName    string `json:"clinic_name"`
	ClinicAddress string `json:"clinic_address"`
}

func (h *ClinicHandler) Create(c *gin.Context) {
	var req createClinicRequest
	if !bindJSON(c, &req) {
		return
	}

	cl, err := h.svc.CreateClinic(c.Request.Context(), req.ClinicName, req.ClinicAddress)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "clinic created successfully", cl)
}

func (h *ClinicHandler) Get(c *gin.Context) {
	cl, err := h.svc.GetClinic(c.Request.Context(), c.Param("clinicId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "clinic fetched successfully", cl)
}

func (h *ClinicHandler) List(c *gin.Context) {
	clinics, err := h.svc.ListClinics(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "clinics fetched successfully", clinics)
}

func (h *ClinicHandler) Dropdown(c *gin.Context) {
	clinics, err := h.svc.SearchClinics(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "clinics fetched successfully", clinics)
}

func (h *ClinicHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteClinic(c.Request.Context(), c.Param("clinicId")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "clinic deleted successfully", nil)
}

func (h *ClinicHandler) CreateStock(c *gin.Context) {
	var cmd service.StockCommand
	if !bindJSON(c, &cmd) {
		return
	}

	st, err := h.svc.CreateStock(c.Request.Context(), &cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "stock created successfully", st)
}

func (h *ClinicHandler) ListStocks(c *gin.Context) {
	stocks, err := h.svc.ListStocks(c.Request.Context(), c.Param("clinicId"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "stocks fetched successfully", stocks)
}

type updateStockRequest struct {
	StockQuantity int `json:"stockQuantity"`
}

func (h *ClinicHandler) UpdateStock(c *gin.Context) {
	var req updateStockRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.svc.UpdateStockQuantity(c.Request.Context(), c.Param("stockId"), req.StockQuantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "stock updated successfully", st)
}

func (h *ClinicHandler) DeleteStock(c *gin.Context) {
	if err := h.svc.DeleteStock(c.Request.Context(), c.Param("stockId")); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "stock deleted successfully", nil)
}
