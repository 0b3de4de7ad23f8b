package prescription

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignEntryIDsFillsGaps(t *testing.T) {
	p := &Prescription{
		Medications: []Medication{
			{MedicationID: "MED0001", MedicineBrandName: "Amoxiclav"},
			{MedicineBrandName: "Ibuprofen"},
			{MedicationID: "MED0003", MedicineBrandName: "Paracetamol"},
		},
	}
	p.AssignEntryIDs()
	assert.Equal(t, "MED0002", p.Medications[1].MedicationID)
}

func TestMergeIsIdempotent(t *testing.T) {
	p := &Prescription{
		ChiefComplain: []ChiefComplain{
			{ChiefComplainID: "CC0001", ChiefComplainName: "Toothache"},
		},
	}
	patch := &Patch{
		ChiefComplain: []ChiefComplain{
			{ChiefComplainName: "Toothache", DentalChart: []string{"16", "17"}},
			{ChiefComplainName: "Bleeding gums"},
		},
	}

	p.Merge(patch)
	require.Len(t, p.ChiefComplain, 2)
	first := append([]ChiefComplain(nil), p.ChiefComplain...)

	p.Merge(patch)
	require.Len(t, p.ChiefComplain, 2)
	assert.Equal(t, first, p.ChiefComplain)
}

func TestMergeOverlaysByNameNotPosition(t *testing.T) {
	p := &Prescription{
		ChiefComplain: []ChiefComplain{
			{ChiefComplainID: "CC0001", ChiefComplainName: "Toothache"},
			{ChiefComplainID: "CC0002", ChiefComplainName: "Sensitivity"},
		},
	}

	p.Merge(&Patch{ChiefComplain: []ChiefComplain{
		{ChiefComplainName: "Sensitivity", DentalChart: []string{"21"}},
	}})

	assert.Empty(t, p.ChiefComplain[0].DentalChart)
	assert.Equal(t, []string{"21"}, p.ChiefComplain[1].DentalChart)
	assert.Equal(t, "CC0002", p.ChiefComplain[1].ChiefComplainID)
}

func TestMergeLeavesAbsentFieldsAlone(t *testing.T) {
	p := &Prescription{
		Advices: []Advice{{AdviceID: "ADV0001", AdvicesName: "Warm saline rinse"}},
	}

	p.Merge(&Patch{Investigation: []Investigation{{InvestigationName: "IOPA"}}})

	assert.Len(t, p.Advices, 1)
	require.Len(t, p.Investigation, 1)
	assert.Equal(t, "INV0001", p.Investigation[0].InvestigationID)
}

func TestMergeAllocatesIDsForNewEntries(t *testing.T) {
	p := &Prescription{}
	p.Merge(&Patch{
		Medications: []Medication{
			{MedicineBrandName: "Amoxiclav", MedicineDose: "625mg"},
			{MedicineBrandName: "Ibuprofen"},
		},
	})

	require.Len(t, p.Medications, 2)
	assert.Equal(t, "MED0001", p.Medications[0].MedicationID)
	assert.Equal(t, "MED0002", p.Medications[1].MedicationID)
}

func TestMergeMedicationOverlayKeepsUnsetFields(t *testing.T) {
	p := &Prescription{
		Medications: []Medication{{
			MedicationID:      "MED0001",
			MedicineBrandName: "Amoxiclav",
			MedicineDose:      "625mg",
			MedicineDuration:  "5 days",
		}},
	}

	p.Merge(&Patch{Medications: []Medication{{
		MedicineBrandName: "Amoxiclav",
		MedicineDuration:  "7 days",
	}}})

	require.Len(t, p.Medications, 1)
	assert.Equal(t, "625mg", p.Medications[0].MedicineDose)
	assert.Equal(t, "7 days", p.Medications[0].MedicineDuration)
}

func TestKindDispatch(t *testing.T) {
	assert.True(t, KindMedications.IsValid())
	assert.Equal(t, "medicationId", KindMedications.IDField())
	assert.Equal(t, "chiefComplainId", KindChiefComplain.IDField())
	assert.False(t, Kind("vitals").IsValid())
}

func TestRemoveSubItemLeavesSiblings(t *testing.T) {
	p := &Prescription{
		Medications: []Medication{
			{MedicationID: "MED0001", MedicineBrandName: "Amoxiclav"},
			{MedicationID: "MED0002", MedicineBrandName: "Ibuprofen"},
			{MedicationID: "MED0003", MedicineBrandName: "Paracetamol"},
		},
	}

	require.True(t, p.RemoveSubItem(KindMedications, "MED0002"))
	require.Len(t, p.Medications, 2)
	assert.Equal(t, "MED0001", p.Medications[0].MedicationID)
	assert.Equal(t, "MED0003", p.Medications[1].MedicationID)

	assert.False(t, p.RemoveSubItem(KindMedications, "MED0099"))
}

func TestUpdateSubItemByID(t *testing.T) {
	p := &Prescription{
		Advices: []Advice{{AdviceID: "ADV0001", AdvicesName: "Soft diet"}},
	}

	raw := json.RawMessage(`{"advicesName":"Soft diet for a week","dentalChart":["46"]}`)
	found, err := p.UpdateSubItem(KindAdvices, "ADV0001", raw)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Soft diet for a week", p.Advices[0].AdvicesName)
	assert.Equal(t, []string{"46"}, p.Advices[0].DentalChart)

	found, err = p.UpdateSubItem(KindAdvices, "ADV0404", raw)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = p.UpdateSubItem(Kind("bogus"), "X", raw)
	assert.ErrorIs(t, err, ErrUnknownSubdocument)
}
