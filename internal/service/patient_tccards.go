package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
)

type TCCardCommand struct {
	WorkTypeDetails []patient.TCWorkType   `json:"patientTcworkTypeDetails"`
	CardDetails     []patient.TCCardDetail `json:"patientTcCardDetails"`
}

// AddTCCard validates the work-type entries, allocates a tc#### number
// across all patients, computes the card total, and appends the card.
// An optional PDF is uploaded before the card is persisted.
func (s *PatientService) AddTCCard(ctx context.Context, patientID string, cmd *TCCardCommand, pdfName string, pdf io.Reader, caller AuditEntry) (*patient.TCCard, error) {
	if err := validateWorkTypes(cmd.WorkTypeDetails); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListTCCardIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tc card ids: %w", err)
	}

	now := timeNow()
	card := patient.TCCard{
		TCCardID:        serial.Next(existing, patient.TCCardPrefix),
		WorkTypeDetails: cmd.WorkTypeDetails,
		CardDetails:     cmd.CardDetails,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range card.CardDetails {
		if card.CardDetails[i].CreatedAt.IsZero() {
			card.CardDetails[i].CreatedAt = now
		}
	}

	if pdf != nil {
		ref, err := s.store.Upload(ctx, pdfName, pdf)
		if err != nil {
			s.metrics.StorageOpsTotal.WithLabelValues("upload", "error").Inc()
			return nil, &DependencyError{Dependency: "storage", Err: err}
		}
		s.metrics.StorageOpsTotal.WithLabelValues("upload", "ok").Inc()
		card.TCCardPdf = &ref
	}

	p.PatientTcCard = append(p.PatientTcCard, card)
	p.Recompute()
	p.UpdatedAt = now

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()
	s.metrics.TCCardsCreated.Inc()

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "tccard", card.TCCardID
	s.auditSvc.LogAsync(ctx, caller)

	return p.FindTCCard(card.TCCardID), nil
}

// UpdateTCCard overwrites the card's work types and step log and
// recomputes totalPayment. A supplied PDF replaces the old one:
// upload new, swap, delete old.
func (s *PatientService) UpdateTCCard(ctx context.Context, patientID, tcCardID string, cmd *TCCardCommand, pdfName string, pdf io.Reader, caller AuditEntry) (*patient.TCCard, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	card := p.FindTCCard(tcCardID)
	if card == nil {
		return nil, patient.ErrTCCardNotFound
	}

	if cmd.WorkTypeDetails != nil {
		if err := validateWorkTypes(cmd.WorkTypeDetails); err != nil {
			return nil, err
		}
		card.WorkTypeDetails = cmd.WorkTypeDetails
	}
	if cmd.CardDetails != nil {
		now := timeNow()
		for i := range cmd.CardDetails {
			if cmd.CardDetails[i].CreatedAt.IsZero() {
				cmd.CardDetails[i].CreatedAt = now
			}
		}
		card.CardDetails = cmd.CardDetails
	}

	var oldPublicID string
	if pdf != nil {
		ref, err := s.store.Upload(ctx, pdfName, pdf)
		if err != nil {
			s.metrics.StorageOpsTotal.WithLabelValues("upload", "error").Inc()
			return nil, &DependencyError{Dependency: "storage", Err: err}
		}
		s.metrics.StorageOpsTotal.WithLabelValues("upload", "ok").Inc()
		if card.TCCardPdf != nil {
			oldPublicID = card.TCCardPdf.PublicID
		}
		card.TCCardPdf = &ref
	}

	card.UpdatedAt = timeNow()
	p.Recompute()
	p.UpdatedAt = card.UpdatedAt

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	s.deleteStoredAsset(ctx, oldPublicID)

	caller.Action, caller.ResourceType, caller.ResourceID = "update", "tccard", tcCardID
	s.auditSvc.LogAsync(ctx, caller)

	return p.FindTCCard(tcCardID), nil
}

// DeleteTCCard removes the card from the patient, then deletes its PDF.
func (s *PatientService) DeleteTCCard(ctx context.Context, patientID, tcCardID string, caller AuditEntry) error {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range p.PatientTcCard {
		if p.PatientTcCard[i].TCCardID == tcCardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return patient.ErrTCCardNotFound
	}

	var publicID string
	if pdf := p.PatientTcCard[idx].TCCardPdf; pdf != nil {
		publicID = pdf.PublicID
	}

	p.PatientTcCard = append(p.PatientTcCard[:idx], p.PatientTcCard[idx+1:]...)
	p.Recompute()
	p.UpdatedAt = timeNow()

	if err := s.repo.Replace(ctx, p); err != nil {
		return err
	}
	s.invalidateLists()

	s.deleteStoredAsset(ctx, publicID)

	caller.Action, caller.ResourceType, caller.ResourceID = "delete", "tccard", tcCardID
	s.auditSvc.LogAsync(ctx, caller)

	return nil
}

func validateWorkTypes(workTypes []patient.TCWorkType) error {
	var errs []string
	for i, wt := range workTypes {
		if strings.TrimSpace(wt.TypeOfWork) == "" {
			errs = append(errs, fmt.Sprintf("workType[%d].typeOfWork is required", i))
		}
		if strings.TrimSpace(wt.TCAmount) == "" {
			errs = append(errs, fmt.Sprintf("workType[%d].tcamount is required", i))
		}
		if len(wt.DentalChart) == 0 {
			errs = append(errs, fmt.Sprintf("workType[%d].dentalChart is required", i))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
