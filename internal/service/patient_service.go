package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/therebootai/democlinicsoftwarebackend/internal/cache"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/metrics"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/storage"
	"go.uber.org/zap"
)

// patientCachePrefix is the namespace every cached patient list page
// lives under; any patient mutation clears the whole namespace.
const patientCachePrefix = "patients:"

// CounterStore is the atomic ID reservation used by the CSV import;
// implemented by the mongodb counters collection.
type CounterStore interface {
	Reserve(ctx context.Context, name string, count int) (int, error)
	Bump(ctx context.Context, name string, floor int) error
}

type PatientService struct {
	repo      patient.Repository
	presRepo  prescription.Repository
	userRepo  UserRepository
	counters  CounterStore
	store     storage.Storage
	listCache *cache.Cache
	metrics   *metrics.Collector
	auditSvc  *AuditService
	log       *zap.Logger
}

func NewPatientService(
	repo patient.Repository,
	presRepo prescription.Repository,
	userRepo UserRepository,
	counters CounterStore,
	store storage.Storage,
	listCache *cache.Cache,
	collector *metrics.Collector,
	auditSvc *AuditService,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:      repo,
		presRepo:  presRepo,
		userRepo:  userRepo,
		counters:  counters,
		store:     store,
		listCache: listCache,
		metrics:   collector,
		auditSvc:  auditSvc,
		log:       log,
	}
}

type CreatePatientCommand struct {
	PatientName      string                        `json:"patientName"`
	MobileNumber     string                        `json:"mobileNumber"`
	Gender           string                        `json:"gender"`
	Age              int                           `json:"age"`
	Location         string                        `json:"location"`
	Address          string                        `json:"address"`
	City             string                        `json:"city"`
	PinCode          string                        `json:"pinCode"`
	Priority         string                        `json:"priority"`
	ChooseDoctor     string                        `json:"chooseDoctor"`
	ClinicID         string                        `json:"clinicId"`
	MedicalHistory   []patient.MedicalHistoryEntry `json:"medicalHistory"`
	PulseRate        string                        `json:"pulseRate"`
	BloodPressure    string                        `json:"bloodPressure"`
	BodyTemperature  string                        `json:"bloodTemperature"`
	RespiratoryRate  string                        `json:"respiratoryRate"`
	Hemoglobin       string                        `json:"Hemoglobin"`
	BloodSugarRandom string                        `json:"bloodSugarRandom"`

	// Prescriptions supplied inline are created first and attached by
	// reference.
	Prescriptions []*prescription.Patch `json:"prescriptions"`
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *CreatePatientCommand, caller AuditEntry) (*patient.Patient, error) {
	if err := validateCreatePatient(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByMobileNumber(ctx, cmd.MobileNumber)
	if err != nil {
		s.log.Error("failed to check mobile number uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrDuplicateMobileNumber
	}

	existingIDs, err := s.repo.ListPatientIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing patient ids: %w", err)
	}

	now := timeNow()
	p := &patient.Patient{
		PatientID:        serial.Next(existingIDs, patient.IDPrefix),
		PatientName:      strings.TrimSpace(cmd.PatientName),
		MobileNumber:     strings.TrimSpace(cmd.MobileNumber),
		Gender:           cmd.Gender,
		Age:              cmd.Age,
		Location:         cmd.Location,
		Address:          cmd.Address,
		City:             cmd.City,
		PinCode:          cmd.PinCode,
		Priority:         cmd.Priority,
		ChooseDoctor:     cmd.ChooseDoctor,
		ClinicID:         cmd.ClinicID,
		AppointmentDate:  now,
		PulseRate:        cmd.PulseRate,
		BloodPressure:    cmd.BloodPressure,
		BodyTemperature:  cmd.BodyTemperature,
		RespiratoryRate:  cmd.RespiratoryRate,
		Hemoglobin:       cmd.Hemoglobin,
		BloodSugarRandom: cmd.BloodSugarRandom,
		Prescriptions:    []string{},
		MedicalHistory:   []patient.MedicalHistoryEntry{},
		PatientDocuments: []patient.Document{},
		PaymentDetails:   []patient.PaymentGroup{},
		PatientTcCard:    []patient.TCCard{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.MergeMedicalHistory(cmd.MedicalHistory, nil)

	// Inline prescriptions are created first so the patient never stores a
	// reference to a prescription that failed to persist.
	for _, patch := range cmd.Prescriptions {
		pres, err := s.createPrescription(ctx, p.PatientID, patch)
		if err != nil {
			return nil, err
		}
		p.Prescriptions = append(p.Prescriptions, pres.PrescriptionID)
	}

	p.Recompute()
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.invalidateLists()
	s.metrics.PatientsCreatedTotal.Inc()

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "patient", p.PatientID
	s.auditSvc.LogAsync(ctx, caller)

	s.log.Info("patient created",
		zap.String("patient_id", p.PatientID),
		zap.String("clinic_id", p.ClinicID),
	)

	return p, nil
}

// PatientView is a patient with its prescription references resolved to
// full documents.
type PatientView struct {
	*patient.Patient
	PrescriptionDocs []*prescription.Prescription `json:"prescriptions"`
	Doctor           any                          `json:"doctorDetails,omitempty"`
}

// GetPatient loads one patient with populated prescriptions. Non-empty
// prescriptionID or tcCardID narrow the nested collections to the one
// requested item.
func (s *PatientService) GetPatient(ctx context.Context, patientID, prescriptionID, tcCardID string) (*PatientView, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	refs := p.Prescriptions
	if prescriptionID != "" {
		refs = nil
		for _, id := range p.Prescriptions {
			if id == prescriptionID {
				refs = []string{id}
				break
			}
		}
		if refs == nil {
			return nil, prescription.ErrPrescriptionNotFound
		}
	}

	docs, err := s.presRepo.GetMany(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("populating prescriptions: %w", err)
	}

	if tcCardID != "" {
		card := p.FindTCCard(tcCardID)
		if card == nil {
			return nil, patient.ErrTCCardNotFound
		}
		p.PatientTcCard = []patient.TCCard{*card}
	}

	view := &PatientView{Patient: p, PrescriptionDocs: docs}
	if p.ChooseDoctor != "" {
		if doctor, err := s.userRepo.GetByUserID(ctx, p.ChooseDoctor); err == nil {
			view.Doctor = doctor.Public()
		}
	}
	return view, nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListQuery) (*patient.Paged, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	key := q.CacheKey()
	if cached, ok := s.listCache.Get(key); ok {
		if page, ok := cached.(*patient.Paged); ok {
			return page, nil
		}
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(key, page)
	return page, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, patientID string, cmd *patient.UpdateCommand, caller AuditEntry) (*patient.Patient, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if cmd.MobileNumber != nil && *cmd.MobileNumber != p.MobileNumber {
		exists, err := s.repo.ExistsByMobileNumber(ctx, *cmd.MobileNumber)
		if err != nil {
			return nil, fmt.Errorf("checking uniqueness: %w", err)
		}
		if exists {
			return nil, patient.ErrDuplicateMobileNumber
		}
	}

	cmd.Apply(p)
	p.Recompute()
	p.UpdatedAt = timeNow()

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "update", "patient", patientID
	s.auditSvc.LogAsync(ctx, caller)

	return p, nil
}

// DeletePatient removes the patient and then bulk-deletes its owned
// prescriptions. The cascade is two sequential writes with no
// transaction; a crash in between leaves orphaned prescriptions, which
// is the accepted trade-off for a document store without multi-document
// transactions here.
func (s *PatientService) DeletePatient(ctx context.Context, patientID string, caller AuditEntry) error {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return err
	}
	owned := append([]string{}, p.Prescriptions...)

	if err := s.repo.Delete(ctx, patientID); err != nil {
		return err
	}

	if len(owned) > 0 {
		deleted, err := s.presRepo.DeleteMany(ctx, owned)
		if err != nil {
			s.log.Error("cascade delete failed; prescriptions orphaned",
				zap.String("patient_id", patientID),
				zap.Strings("prescription_ids", owned),
				zap.Error(err),
			)
			return fmt.Errorf("cascading prescription delete: %w", err)
		}
		s.log.Info("cascade deleted prescriptions",
			zap.String("patient_id", patientID),
			zap.Int64("count", deleted),
		)
	}

	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "delete", "patient", patientID
	s.auditSvc.LogAsync(ctx, caller)

	return nil
}

// ReconcileFollowups recomputes latestFollowupdate for every patient and
// persists the ones whose stored value drifted. Run nightly.
func (s *PatientService) ReconcileFollowups(ctx context.Context) (int, error) {
	patients, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, p := range patients {
		before := p.LatestFollowupDate
		p.Recompute()
		if equalTimePtr(before, p.LatestFollowupDate) {
			continue
		}
		if err := s.repo.Replace(ctx, p); err != nil {
			s.log.Error("followup reconciliation write failed",
				zap.String("patient_id", p.PatientID),
				zap.Error(err),
			)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		s.invalidateLists()
	}
	return fixed, nil
}

func (s *PatientService) invalidateLists() {
	s.listCache.InvalidatePrefix(patientCachePrefix)
}

func validateCreatePatient(cmd *CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.PatientName) == "" {
		errs = append(errs, "patientName is required")
	}
	if strings.TrimSpace(cmd.MobileNumber) == "" {
		errs = append(errs, "mobileNumber is required")
	}
	if strings.TrimSpace(cmd.Gender) == "" {
		errs = append(errs, "gender is required")
	}
	if strings.TrimSpace(cmd.Location) == "" {
		errs = append(errs, "location is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
