package service

import (
	"context"
	"fmt"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
)

type PaymentCommand struct {
	PaymentDetails []patient.PaymentLineItem `json:"paymentDetails"`
	PaymentMethod  string                    `json:"paymentMethod"`
	TotalCharges   float64                   `json:"totalCharges"`

	// TotalPaid nil means paid in full: it defaults to TotalCharges and
	// anyDue comes out zero.
	TotalPaid *float64 `json:"totalPaid"`
}

// AddPayment appends a payment group. pay#### numbers are allocated
// across every patient's nested payment arrays, so no two patients share
// one.
func (s *PatientService) AddPayment(ctx context.Context, patientID string, cmd *PaymentCommand, caller AuditEntry) (*patient.PaymentGroup, error) {
	if len(cmd.PaymentDetails) == 0 {
		return nil, &ValidationError{Fields: []string{"paymentDetails is required"}}
	}

	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListPaymentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing payment ids: %w", err)
	}

	now := timeNow()
	group := patient.PaymentGroup{
		PaymentID:      serial.Next(existing, patient.PaymentPrefix),
		PaymentDetails: cmd.PaymentDetails,
		PaymentMethod:  cmd.PaymentMethod,
		TotalCharges:   cmd.TotalCharges,
		TotalPaid:      paidOrDefault(cmd),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.PaymentDetails = append(p.PaymentDetails, group)
	p.Recompute()
	p.UpdatedAt = now

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()
	s.metrics.PaymentsRecorded.Inc()

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "payment", group.PaymentID
	s.auditSvc.LogAsync(ctx, caller)

	return p.FindPaymentGroup(group.PaymentID), nil
}

// UpdatePayment overwrites the matched group's line items and totals and
// recomputes anyDue.
func (s *PatientService) UpdatePayment(ctx context.Context, patientID, paymentID string, cmd *PaymentCommand, caller AuditEntry) (*patient.PaymentGroup, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	group := p.FindPaymentGroup(paymentID)
	if group == nil {
		return nil, patient.ErrPaymentNotFound
	}

	if cmd.PaymentDetails != nil {
		group.PaymentDetails = cmd.PaymentDetails
	}
	if cmd.PaymentMethod != "" {
		group.PaymentMethod = cmd.PaymentMethod
	}
	group.TotalCharges = cmd.TotalCharges
	group.TotalPaid = paidOrDefault(cmd)
	group.UpdatedAt = timeNow()

	p.Recompute()
	p.UpdatedAt = group.UpdatedAt

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "update", "payment", paymentID
	s.auditSvc.LogAsync(ctx, caller)

	return p.FindPaymentGroup(paymentID), nil
}

func paidOrDefault(cmd *PaymentCommand) float64 {
	if cmd.TotalPaid == nil {
		return cmd.TotalCharges
	}
	return *cmd.TotalPaid
}
