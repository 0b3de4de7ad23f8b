package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
)

func TestAddPaymentDefaultsPaidToCharges(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})

	group, err := f.svc.AddPayment(context.Background(), "patientId0001", &PaymentCommand{
		PaymentDetails: []patient.PaymentLineItem{{ItemName: "Scaling", ItemCharges: "1500"}},
		PaymentMethod:  "cash",
		TotalCharges:   1500,
	}, AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, "pay0001", group.PaymentID)
	assert.Equal(t, 1500.0, group.TotalPaid)
	assert.Equal(t, 0.0, group.AnyDue)
}

func TestAddPaymentComputesDueFromPartialPayment(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})

	paid := 1000.0
	group, err := f.svc.AddPayment(context.Background(), "patientId0001", &PaymentCommand{
		PaymentDetails: []patient.PaymentLineItem{{ItemName: "RCT", ItemCharges: "4500"}},
		TotalCharges:   4500,
		TotalPaid:      &paid,
	}, AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, group.TotalPaid)
	assert.Equal(t, 3500.0, group.AnyDue)
}

func TestAddPaymentAllocatesAcrossPatients(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID:      "patientId0001",
		PaymentDetails: []patient.PaymentGroup{{PaymentID: "pay0001"}},
	})
	f.repo.add(&patient.Patient{PatientID: "patientId0002"})

	group, err := f.svc.AddPayment(context.Background(), "patientId0002", &PaymentCommand{
		PaymentDetails: []patient.PaymentLineItem{{ItemName: "X-Ray", ItemCharges: "300"}},
		TotalCharges:   300,
	}, AuditEntry{})
	require.NoError(t, err)

	// pay0001 is held by another patient, so the new group skips past it.
	assert.Equal(t, "pay0002", group.PaymentID)
}

func TestAddPaymentRequiresLineItems(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})

	_, err := f.svc.AddPayment(context.Background(), "patientId0001", &PaymentCommand{TotalCharges: 100}, AuditEntry{})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdatePaymentRecomputesDue(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID: "patientId0001",
		PaymentDetails: []patient.PaymentGroup{{
			PaymentID:    "pay0001",
			TotalCharges: 2000,
			TotalPaid:    2000,
		}},
	})

	paid := 500.0
	group, err := f.svc.UpdatePayment(context.Background(), "patientId0001", "pay0001", &PaymentCommand{
		TotalCharges: 2000,
		TotalPaid:    &paid,
	}, AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, 1500.0, group.AnyDue)
}

func TestUpdatePaymentUnknownGroup(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})

	_, err := f.svc.UpdatePayment(context.Background(), "patientId0001", "pay0009", &PaymentCommand{}, AuditEntry{})
	assert.ErrorIs(t, err, patient.ErrPaymentNotFound)
}
