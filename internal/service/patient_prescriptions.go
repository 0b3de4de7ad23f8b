package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"go.uber.org/zap"
)

// createPrescription allocates a PRES#### number, builds the document
// from the patch, and persists it. Sub-item IDs are assigned within the
// new prescription.
func (s *PatientService) createPrescription(ctx context.Context, patientID string, patch *prescription.Patch) (*prescription.Prescription, error) {
	existing, err := s.presRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing prescription ids: %w", err)
	}

	now := timeNow()
	pres := &prescription.Prescription{
		PrescriptionID: serial.Next(existing, prescription.IDPrefix),
		PatientID:      patientID,
		ChiefComplain:  []prescription.ChiefComplain{},
		OnExamination:  []prescription.OnExamination{},
		Investigation:  []prescription.Investigation{},
		Radiography:    []prescription.Radiography{},
		Advices:        []prescription.Advice{},
		Medications:    []prescription.Medication{},
		ReferDoctor:    []prescription.ReferDoctor{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	pres.Merge(patch)

	if err := s.presRepo.Create(ctx, pres); err != nil {
		return nil, err
	}
	s.metrics.PrescriptionsIssued.Inc()
	return pres, nil
}

// AddPrescription creates a prescription and attaches it to the patient.
func (s *PatientService) AddPrescription(ctx context.Context, patientID string, patch *prescription.Patch, caller AuditEntry) (*prescription.Prescription, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	pres, err := s.createPrescription(ctx, patientID, patch)
	if err != nil {
		return nil, err
	}

	p.Prescriptions = append(p.Prescriptions, pres.PrescriptionID)
	p.UpdatedAt = timeNow()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "prescription", pres.PrescriptionID
	s.auditSvc.LogAsync(ctx, caller)

	s.log.Info("prescription attached",
		zap.String("patient_id", patientID),
		zap.String("prescription_id", pres.PrescriptionID),
	)

	return pres, nil
}

// UpdatePrescription merge-applies a patch to a prescription the patient
// owns. Re-sending the same payload is a no-op.
func (s *PatientService) UpdatePrescription(ctx context.Context, patientID, prescriptionID string, patch *prescription.Patch, caller AuditEntry) (*prescription.Prescription, error) {
	if _, err := s.resolveOwnedPrescription(ctx, patientID, prescriptionID); err != nil {
		return nil, err
	}

	pres, err := s.presRepo.GetByPrescriptionID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	pres.Merge(patch)
	pres.UpdatedAt = timeNow()
	if err := s.presRepo.Replace(ctx, pres); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "update", "prescription", prescriptionID
	s.auditSvc.LogAsync(ctx, caller)

	return pres, nil
}

// DeletePrescription detaches the reference from the patient first, then
// deletes the prescription document, so the patient never lists a
// dangling prescription.
func (s *PatientService) DeletePrescription(ctx context.Context, patientID, prescriptionID string, caller AuditEntry) error {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return err
	}
	if !p.RemovePrescriptionRef(prescriptionID) {
		return prescription.ErrPrescriptionNotFound
	}
	p.UpdatedAt = timeNow()
	if err := s.repo.Replace(ctx, p); err != nil {
		return err
	}

	if err := s.presRepo.Delete(ctx, prescriptionID); err != nil {
		return err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "delete", "prescription", prescriptionID
	s.auditSvc.LogAsync(ctx, caller)

	return nil
}

// DeleteSubItem removes one entry inside a prescription sub-array by its
// custom ID, leaving siblings untouched.
func (s *PatientService) DeleteSubItem(ctx context.Context, patientID, prescriptionID string, kind prescription.Kind, customID string, caller AuditEntry) error {
	if _, err := s.resolveOwnedPrescription(ctx, patientID, prescriptionID); err != nil {
		return err
	}

	pres, err := s.presRepo.GetByPrescriptionID(ctx, prescriptionID)
	if err != nil {
		return err
	}

	if !kind.IsValid() {
		return prescription.ErrUnknownSubdocument
	}
	if !pres.RemoveSubItem(kind, customID) {
		return prescription.ErrSubItemNotFound
	}

	pres.UpdatedAt = timeNow()
	if err := s.presRepo.Replace(ctx, pres); err != nil {
		return err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "delete", string(kind), customID
	s.auditSvc.LogAsync(ctx, caller)

	return nil
}

// UpdateSubItem overlays a JSON payload onto one entry inside a
// prescription sub-array, addressed by kind + custom ID. The entry's own
// ID never changes.
func (s *PatientService) UpdateSubItem(ctx context.Context, patientID, prescriptionID string, kind prescription.Kind, customID string, payload json.RawMessage, caller AuditEntry) (*prescription.Prescription, error) {
	if _, err := s.resolveOwnedPrescription(ctx, patientID, prescriptionID); err != nil {
		return nil, err
	}

	pres, err := s.presRepo.GetByPrescriptionID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	updated, err := pres.UpdateSubItem(kind, customID, payload)
	if errors.Is(err, prescription.ErrUnknownSubdocument) {
		return nil, err
	}
	if err != nil {
		return nil, &ValidationError{Fields: []string{"invalid " + string(kind) + " payload"}}
	}
	if !updated {
		return nil, prescription.ErrSubItemNotFound
	}

	pres.UpdatedAt = timeNow()
	if err := s.presRepo.Replace(ctx, pres); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "update", string(kind), customID
	s.auditSvc.LogAsync(ctx, caller)

	return pres, nil
}

// AttachPrescriptionPdf uploads a rendered PDF and swaps the reference.
// The previous file is deleted only after the new upload succeeded, so a
// failed upload can never leave the record pointing at nothing.
func (s *PatientService) AttachPrescriptionPdf(ctx context.Context, patientID, prescriptionID, filename string, file io.Reader) (*prescription.Prescription, error) {
	if _, err := s.resolveOwnedPrescription(ctx, patientID, prescriptionID); err != nil {
		return nil, err
	}

	pres, err := s.presRepo.GetByPrescriptionID(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Upload(ctx, filename, file)
	if err != nil {
		s.metrics.StorageOpsTotal.WithLabelValues("upload", "error").Inc()
		return nil, &DependencyError{Dependency: "storage", Err: err}
	}
	s.metrics.StorageOpsTotal.WithLabelValues("upload", "ok").Inc()

	old := pres.PrescriptionPdf
	pres.PrescriptionPdf = &ref
	pres.UpdatedAt = timeNow()
	if err := s.presRepo.Replace(ctx, pres); err != nil {
		return nil, err
	}

	if old != nil && old.PublicID != "" {
		if err := s.store.Delete(ctx, old.PublicID); err != nil {
			s.metrics.StorageOpsTotal.WithLabelValues("delete", "error").Inc()
			s.log.Warn("failed to delete replaced prescription pdf",
				zap.String("public_id", old.PublicID),
				zap.Error(err),
			)
		} else {
			s.metrics.StorageOpsTotal.WithLabelValues("delete", "ok").Inc()
		}
	}

	return pres, nil
}

// resolveOwnedPrescription confirms the patient exists and lists the
// prescription; every nested-prescription operation goes through this.
func (s *PatientService) resolveOwnedPrescription(ctx context.Context, patientID, prescriptionID string) (*patient.Patient, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, id := range p.Prescriptions {
		if id == prescriptionID {
			return p, nil
		}
	}
	return nil, prescription.ErrPrescriptionNotFound
}
