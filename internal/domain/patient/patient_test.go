package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestRecomputeTCCardTotal(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		want    float64
	}{
		{"empty list yields zero", nil, 0},
		{"sums amounts", []string{"1500", "250.50"}, 1750.50},
		{"malformed amounts count as zero", []string{"1500", "abc", ""}, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := TCCard{TotalPayment: 999}
			for _, a := range tt.amounts {
				card.WorkTypeDetails = append(card.WorkTypeDetails, TCWorkType{TypeOfWork: "rct", TCAmount: a})
			}
			card.RecomputeTotal()
			assert.Equal(t, tt.want, card.TotalPayment)
		})
	}
}

func TestRecomputeAnyDue(t *testing.T) {
	p := &Patient{
		PaymentDetails: []PaymentGroup{
			{PaymentID: "pay0001", TotalCharges: 5000, TotalPaid: 3000},
			{PaymentID: "pay0002", TotalCharges: 1200, TotalPaid: 1200},
		},
	}
	p.Recompute()
	assert.Equal(t, 2000.0, p.PaymentDetails[0].AnyDue)
	assert.Equal(t, 0.0, p.PaymentDetails[1].AnyDue)
}

func TestLatestFollowupDerivation(t *testing.T) {
	p := &Patient{
		PatientTcCard: []TCCard{
			{CardDetails: []TCCardDetail{{NextAppointment: date("2024-01-10")}}},
			{CardDetails: []TCCardDetail{
				{NextAppointment: date("2024-03-05")},
				{NextAppointment: nil},
			}},
		},
	}
	p.Recompute()
	require.NotNil(t, p.LatestFollowupDate)
	assert.Equal(t, *date("2024-03-05"), *p.LatestFollowupDate)
}

func TestLatestFollowupNilWithoutCards(t *testing.T) {
	stale := date("2023-01-01")
	p := &Patient{LatestFollowupDate: stale}
	p.Recompute()
	assert.Nil(t, p.LatestFollowupDate)
}

func TestNextDocumentIDScopedToPatient(t *testing.T) {
	p := &Patient{PatientDocuments: []Document{
		{DocumentID: "DOC0001"},
		{DocumentID: "DOC0003"},
	}}
	assert.Equal(t, "DOC0002", p.NextDocumentID())

	empty := &Patient{}
	assert.Equal(t, "DOC0001", empty.NextDocumentID())
}

func TestMergeMedicalHistoryUnionsMedicines(t *testing.T) {
	p := &Patient{MedicalHistory: []MedicalHistoryEntry{
		{MedicalHistoryName: "Diabetes", MedicalHistoryMedicine: []string{"Metformin"}},
	}}

	p.MergeMedicalHistory([]MedicalHistoryEntry{
		{MedicalHistoryName: "Diabetes", MedicalHistoryMedicine: []string{"Insulin", "Metformin"}},
	}, nil)

	require.Len(t, p.MedicalHistory, 1)
	assert.Equal(t, []string{"Metformin", "Insulin"}, p.MedicalHistory[0].MedicalHistoryMedicine)
}

func TestMergeMedicalHistoryRemovesUnchecked(t *testing.T) {
	p := &Patient{MedicalHistory: []MedicalHistoryEntry{
		{MedicalHistoryName: "Diabetes", MedicalHistoryMedicine: []string{"Metformin"}},
		{MedicalHistoryName: "Asthma", MedicalHistoryMedicine: []string{"Salbutamol"}},
	}}

	p.MergeMedicalHistory(nil, []string{"Diabetes"})

	require.Len(t, p.MedicalHistory, 1)
	assert.Equal(t, "Asthma", p.MedicalHistory[0].MedicalHistoryName)
}

func TestMergeMedicalHistoryAppendsNewAndOverwritesDuration(t *testing.T) {
	p := &Patient{MedicalHistory: []MedicalHistoryEntry{
		{MedicalHistoryName: "Diabetes", Duration: "2 years", MedicalHistoryMedicine: []string{"Metformin"}},
	}}

	p.MergeMedicalHistory([]MedicalHistoryEntry{
		{MedicalHistoryName: "Diabetes", Duration: "3 years"},
		{MedicalHistoryName: "Hypertension", MedicalHistoryMedicine: []string{"Amlodipine"}},
	}, nil)

	require.Len(t, p.MedicalHistory, 2)
	assert.Equal(t, "3 years", p.MedicalHistory[0].Duration)
	assert.Equal(t, []string{"Metformin"}, p.MedicalHistory[0].MedicalHistoryMedicine)
	assert.Equal(t, "Hypertension", p.MedicalHistory[1].MedicalHistoryName)
}

func TestRemovePrescriptionRef(t *testing.T) {
	p := &Patient{Prescriptions: []string{"PRES0001", "PRES0002", "PRES0003"}}

	assert.True(t, p.RemovePrescriptionRef("PRES0002"))
	assert.Equal(t, []string{"PRES0001", "PRES0003"}, p.Prescriptions)
	assert.False(t, p.RemovePrescriptionRef("PRES0099"))
}

func TestUpdateCommandApplyPartial(t *testing.T) {
	p := &Patient{PatientName: "Asha", Age: 30, City: "Pune"}

	name := "Asha Rao"
	age := 31
	cmd := &UpdateCommand{PatientName: &name, Age: &age}
	cmd.Apply(p)

	assert.Equal(t, "Asha Rao", p.PatientName)
	assert.Equal(t, 31, p.Age)
	assert.Equal(t, "Pune", p.City)
}
