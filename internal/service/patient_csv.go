package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"go.uber.org/zap"
)

// ImportResult reports what a CSV bulk import did.
type ImportResult struct {
	Inserted  int      `json:"inserted"`
	Skipped   int      `json:"skipped"`
	SkippedBy []string `json:"skippedMobileNumbers,omitempty"`
}

// importColumns is the expected CSV header, in order.
var importColumns = []string{
	"patientName", "mobileNumber", "gender", "age", "location",
	"address", "city", "pinCode", "chooseDoctor", "clinicId",
}

// ImportCSV bulk-creates patients from a CSV file. Rows whose mobile
// number already exists are skipped and reported. IDs come from the
// atomic counter rather than the scan allocator: one reservation covers
// the whole batch, so concurrent imports cannot collide.
func (s *PatientService) ImportCSV(ctx context.Context, r io.Reader, caller AuditEntry) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Fields: []string{"csv file is empty or unreadable"}}
	}
	colIdx, err := mapImportHeader(header)
	if err != nil {
		return nil, err
	}

	known, err := s.repo.ListMobileNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing mobile numbers: %w", err)
	}
	seen := make(map[string]struct{}, len(known))
	for _, m := range known {
		seen[m] = struct{}{}
	}

	result := &ImportResult{}
	var rows []*patient.Patient

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ValidationError{Fields: []string{"malformed csv row: " + err.Error()}}
		}

		get := func(col string) string {
			if i, ok := colIdx[col]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		mobile := get("mobileNumber")
		if mobile == "" || get("patientName") == "" {
			result.Skipped++
			continue
		}
		if _, dup := seen[mobile]; dup {
			result.Skipped++
			result.SkippedBy = append(result.SkippedBy, mobile)
			continue
		}
		seen[mobile] = struct{}{}

		age, _ := strconv.Atoi(get("age"))
		now := timeNow()
		rows = append(rows, &patient.Patient{
			PatientName:      get("patientName"),
			MobileNumber:     mobile,
			Gender:           get("gender"),
			Age:              age,
			Location:         get("location"),
			Address:          get("address"),
			City:             get("city"),
			PinCode:          get("pinCode"),
			ChooseDoctor:     get("chooseDoctor"),
			ClinicID:         get("clinicId"),
			AppointmentDate:  now,
			Prescriptions:    []string{},
			MedicalHistory:   []patient.MedicalHistoryEntry{},
			PatientDocuments: []patient.Document{},
			PaymentDetails:   []patient.PaymentGroup{},
			PatientTcCard:    []patient.TCCard{},
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	if len(rows) == 0 {
		return result, nil
	}

	start, err := s.reserveImportIDs(ctx, len(rows))
	if err != nil {
		return nil, err
	}
	for i, p := range rows {
		p.PatientID = serial.Format(patient.IDPrefix, start+i)
		p.Recompute()
	}

	inserted, err := s.repo.InsertMany(ctx, rows)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	s.invalidateLists()
	s.metrics.PatientsCreatedTotal.Add(float64(inserted))

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "patient", "csv-import"
	s.auditSvc.LogAsync(ctx, caller)

	s.log.Info("csv import finished",
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)

	return result, nil
}

// reserveImportIDs bumps the counter past every scan-allocated patientId
// before reserving, so counter-issued numbers never collide with the
// interactive series.
func (s *PatientService) reserveImportIDs(ctx context.Context, count int) (int, error) {
	existing, err := s.repo.ListPatientIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing patient ids: %w", err)
	}
	floor := 0
	for _, id := range existing {
		if n, ok := serial.Parse(id, patient.IDPrefix); ok && n > floor {
			floor = n
		}
	}
	if err := s.counters.Bump(ctx, patient.IDPrefix, floor); err != nil {
		return 0, err
	}
	return s.counters.Reserve(ctx, patient.IDPrefix, count)
}

func mapImportHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	for _, required := range []string{"patientName", "mobileNumber"} {
		if _, ok := idx[required]; !ok {
			return nil, &ValidationError{Fields: []string{"csv header missing column " + required}}
		}
	}
	return idx, nil
}

// exportHeader is the flattened CSV view: demographics, the doctor's
// public profile, and each nested collection serialized into one
// delimited text column.
var exportHeader = []string{
	"patientId", "patientName", "mobileNumber", "gender", "age", "location",
	"city", "clinicId", "createdAt", "latestFollowupdate",
	"doctorName", "doctorPhone", "doctorEmail", "doctorDesignation", "doctorDegree",
	"prescriptions", "tcCards", "payments", "documents", "medicalHistory",
}

// ExportCSV streams every patient as one flattened row.
func (s *PatientService) ExportCSV(ctx context.Context, w io.Writer) error {
	patients, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	doctors, err := s.loadDoctorProfiles(ctx, patients)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, p := range patients {
		doctor := doctors[p.ChooseDoctor]
		followup := ""
		if p.LatestFollowupDate != nil {
			followup = p.LatestFollowupDate.Format("2006-01-02")
		}
		row := []string{
			p.PatientID, p.PatientName, p.MobileNumber, p.Gender,
			strconv.Itoa(p.Age), p.Location, p.City, p.ClinicID,
			p.CreatedAt.Format("2006-01-02"), followup,
			doctor.Name, doctor.Phone, doctor.Email, doctor.Designation, doctor.DoctorDegree,
			strings.Join(p.Prescriptions, "|"),
			joinTCCards(p.PatientTcCard),
			joinPayments(p.PaymentDetails),
			joinDocuments(p.PatientDocuments),
			joinMedicalHistory(p.MedicalHistory),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (s *PatientService) loadDoctorProfiles(ctx context.Context, patients []*patient.Patient) (map[string]domain.PublicProfile, error) {
	idSet := make(map[string]struct{})
	for _, p := range patients {
		if p.ChooseDoctor != "" {
			idSet[p.ChooseDoctor] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.userRepo.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading doctor profiles: %w", err)
	}

	out := make(map[string]domain.PublicProfile, len(users))
	for _, u := range users {
		out[u.UserID] = u.Public()
	}
	return out, nil
}

func joinTCCards(cards []patient.TCCard) string {
	parts := make([]string, 0, len(cards))
	for _, c := range cards {
		parts = append(parts, fmt.Sprintf("%s:%.2f", c.TCCardID, c.TotalPayment))
	}
	return strings.Join(parts, "|")
}

func joinPayments(groups []patient.PaymentGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, fmt.Sprintf("%s:charges=%.2f;paid=%.2f;due=%.2f",
			g.PaymentID, g.TotalCharges, g.TotalPaid, g.AnyDue))
	}
	return strings.Join(parts, "|")
}

func joinDocuments(docs []patient.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.DocumentID+":"+d.DocumentTitle)
	}
	return strings.Join(parts, "|")
}

func joinMedicalHistory(entries []patient.MedicalHistoryEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.MedicalHistoryName+":"+strings.Join(e.MedicalHistoryMedicine, ","))
	}
	return strings.Join(parts, "|")
}
