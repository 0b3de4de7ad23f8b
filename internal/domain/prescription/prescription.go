package prescription

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
)

// Prefixes for prescription-level and sub-item IDs. Sub-item numbers are
// scoped to the owning prescription: two prescriptions can both hold MED0001.
const (
	IDPrefix            = "PRES"
	ChiefComplainPrefix = "CC"
	OnExaminationPrefix = "OE"
	InvestigationPrefix = "INV"
	RadiographyPrefix   = "RD"
	AdvicePrefix        = "ADV"
	MedicationPrefix    = "MED"
	ReferDoctorPrefix   = "REF"
)

type ChiefComplain struct {
	ChiefComplainID   string   `bson:"chiefComplainId" json:"chiefComplainId"`
	ChiefComplainName string   `bson:"chiefComplainName" json:"chiefComplainName"`
	DentalChart       []string `bson:"dentalChart,omitempty" json:"dentalChart,omitempty"`
}

type OnExamination struct {
	OnExaminationID   string   `bson:"onExaminationId" json:"onExaminationId"`
	OnExaminationName string   `bson:"onExaminationName" json:"onExaminationName"`
	OnExaminationArea []string `bson:"onExaminationArea,omitempty" json:"onExaminationArea,omitempty"`
	AdditionalNotes   string   `bson:"onExaminationAdditionalNotes,omitempty" json:"onExaminationAdditionalNotes,omitempty"`
	DentalChart       []string `bson:"dentalChart,omitempty" json:"dentalChart,omitempty"`
}

type Investigation struct {
	InvestigationID   string `bson:"investigationId" json:"investigationId"`
	InvestigationName string `bson:"investigationName" json:"investigationName"`
}

type Radiography struct {
	RadiographyID   string   `bson:"radiographyId" json:"radiographyId"`
	RadiographyName string   `bson:"radiographyName" json:"radiographyName"`
	DentalChart     []string `bson:"dentalChart,omitempty" json:"dentalChart,omitempty"`
}

type Advice struct {
	AdviceID    string   `bson:"adviceId" json:"adviceId"`
	AdvicesName string   `bson:"advicesName" json:"advicesName"`
	DentalChart []string `bson:"dentalChart,omitempty" json:"dentalChart,omitempty"`
}

type Medication struct {
	MedicationID         string `bson:"medicationId" json:"medicationId"`
	MedicineBrandName    string `bson:"medicineBrandName" json:"medicineBrandName"`
	MedicineComposition  string `bson:"medicineComposition,omitempty" json:"medicineComposition,omitempty"`
	MedicineStrength     string `bson:"medicineStrength,omitempty" json:"medicineStrength,omitempty"`
	MedicineDose         string `bson:"medicineDose,omitempty" json:"medicineDose,omitempty"`
	MedicineFrequency    string `bson:"medicineFrequency,omitempty" json:"medicineFrequency,omitempty"`
	MedicineTiming       string `bson:"medicineTiming,omitempty" json:"medicineTiming,omitempty"`
	MedicineDuration     string `bson:"medicineDuration,omitempty" json:"medicineDuration,omitempty"`
	MedicineStartFrom    string `bson:"medicineStartfrom,omitempty" json:"medicineStartfrom,omitempty"`
	MedicineInstructions string `bson:"medicineInstructions,omitempty" json:"medicineInstructions,omitempty"`
	MedicineQuantity     string `bson:"medicineQuantity,omitempty" json:"medicineQuantity,omitempty"`
}

type ReferDoctor struct {
	ReferDoctorID   string `bson:"referDoctorId" json:"referDoctorId"`
	ReferDoctorName string `bson:"referDoctor" json:"referDoctor"`
}

type Prescription struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PrescriptionID string             `bson:"prescriptionId" json:"prescriptionId"`
	PatientID      string             `bson:"patientId" json:"patientId"`

	ChiefComplain []ChiefComplain `bson:"chiefComplain" json:"chiefComplain"`
	OnExamination []OnExamination `bson:"onExamination" json:"onExamination"`
	Investigation []Investigation `bson:"investigation" json:"investigation"`
	Radiography   []Radiography   `bson:"radiography" json:"radiography"`
	Advices       []Advice        `bson:"advices" json:"advices"`
	Medications   []Medication    `bson:"medications" json:"medications"`
	ReferDoctor   []ReferDoctor   `bson:"referDoctor" json:"referDoctor"`

	FollowupDate    *time.Time      `bson:"followupdate,omitempty" json:"followupdate,omitempty"`
	PrescriptionPdf *domain.FileRef `bson:"prescriptionPdf,omitempty" json:"prescriptionPdf,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Patch carries the sub-arrays of a merge update. A nil slice means "field
// absent from the request": the stored array is left alone. A present slice
// is merged entry-by-entry by the array's name key, so re-sending the same
// payload is a no-op.
type Patch struct {
	ChiefComplain []ChiefComplain `json:"chiefComplain,omitempty"`
	OnExamination []OnExamination `json:"onExamination,omitempty"`
	Investigation []Investigation `json:"investigation,omitempty"`
	Radiography   []Radiography   `json:"radiography,omitempty"`
	Advices       []Advice        `json:"advices,omitempty"`
	Medications   []Medication    `json:"medications,omitempty"`
	ReferDoctor   []ReferDoctor   `json:"referDoctor,omitempty"`
	FollowupDate  *time.Time      `json:"followupdate,omitempty"`
}

// AssignEntryIDs gives every sub-array entry without an ID the next free
// number in its own array. Safe to call repeatedly.
func (p *Prescription) AssignEntryIDs() {
	assignIDs(p.ChiefComplain, ChiefComplainPrefix,
		func(e *ChiefComplain) *string { return &e.ChiefComplainID })
	assignIDs(p.OnExamination, OnExaminationPrefix,
		func(e *OnExamination) *string { return &e.OnExaminationID })
	assignIDs(p.Investigation, InvestigationPrefix,
		func(e *Investigation) *string { return &e.InvestigationID })
	assignIDs(p.Radiography, RadiographyPrefix,
		func(e *Radiography) *string { return &e.RadiographyID })
	assignIDs(p.Advices, AdvicePrefix,
		func(e *Advice) *string { return &e.AdviceID })
	assignIDs(p.Medications, MedicationPrefix,
		func(e *Medication) *string { return &e.MedicationID })
	assignIDs(p.ReferDoctor, ReferDoctorPrefix,
		func(e *ReferDoctor) *string { return &e.ReferDoctorID })
}

func assignIDs[E any](entries []E, prefix string, idOf func(*E) *string) {
	existing := make([]string, 0, len(entries))
	for i := range entries {
		if id := *idOf(&entries[i]); id != "" {
			existing = append(existing, id)
		}
	}
	for i := range entries {
		field := idOf(&entries[i])
		if *field == "" {
			*field = serial.Next(existing, prefix)
			existing = append(existing, *field)
		}
	}
}

// Merge applies a patch field by field. Entries whose name key already exists
// overlay the stored entry's non-key fields; new keys append. New entries get
// IDs allocated within this prescription.
func (p *Prescription) Merge(patch *Patch) {
	if patch.ChiefComplain != nil {
		p.ChiefComplain = mergeEntries(p.ChiefComplain, patch.ChiefComplain,
			func(e ChiefComplain) string { return e.ChiefComplainName },
			func(dst *ChiefComplain, src ChiefComplain) {
				if src.DentalChart != nil {
					dst.DentalChart = src.DentalChart
				}
			})
	}
	if patch.OnExamination != nil {
		p.OnExamination = mergeEntries(p.OnExamination, patch.OnExamination,
			func(e OnExamination) string { return e.OnExaminationName },
			func(dst *OnExamination, src OnExamination) {
				if src.OnExaminationArea != nil {
					dst.OnExaminationArea = src.OnExaminationArea
				}
				if src.AdditionalNotes != "" {
					dst.AdditionalNotes = src.AdditionalNotes
				}
				if src.DentalChart != nil {
					dst.DentalChart = src.DentalChart
				}
			})
	}
	if patch.Investigation != nil {
		p.Investigation = mergeEntries(p.Investigation, patch.Investigation,
			func(e Investigation) string { return e.InvestigationName },
			func(dst *Investigation, src Investigation) {})
	}
	if patch.Radiography != nil {
		p.Radiography = mergeEntries(p.Radiography, patch.Radiography,
			func(e Radiography) string { return e.RadiographyName },
			func(dst *Radiography, src Radiography) {
				if src.DentalChart != nil {
					dst.DentalChart = src.DentalChart
				}
			})
	}
	if patch.Advices != nil {
		p.Advices = mergeEntries(p.Advices, patch.Advices,
			func(e Advice) string { return e.AdvicesName },
			func(dst *Advice, src Advice) {
				if src.DentalChart != nil {
					dst.DentalChart = src.DentalChart
				}
			})
	}
	if patch.Medications != nil {
		p.Medications = mergeEntries(p.Medications, patch.Medications,
			func(e Medication) string { return e.MedicineBrandName },
			overlayMedication)
	}
	if patch.ReferDoctor != nil {
		p.ReferDoctor = mergeEntries(p.ReferDoctor, patch.ReferDoctor,
			func(e ReferDoctor) string { return e.ReferDoctorName },
			func(dst *ReferDoctor, src ReferDoctor) {})
	}
	if patch.FollowupDate != nil {
		p.FollowupDate = patch.FollowupDate
	}
	p.AssignEntryIDs()
}

func overlayMedication(dst *Medication, src Medication) {
	if src.MedicineComposition != "" {
		dst.MedicineComposition = src.MedicineComposition
	}
	if src.MedicineStrength != "" {
		dst.MedicineStrength = src.MedicineStrength
	}
	if src.MedicineDose != "" {
		dst.MedicineDose = src.MedicineDose
	}
	if src.MedicineFrequency != "" {
		dst.MedicineFrequency = src.MedicineFrequency
	}
	if src.MedicineTiming != "" {
		dst.MedicineTiming = src.MedicineTiming
	}
	if src.MedicineDuration != "" {
		dst.MedicineDuration = src.MedicineDuration
	}
	if src.MedicineStartFrom != "" {
		dst.MedicineStartFrom = src.MedicineStartFrom
	}
	if src.MedicineInstructions != "" {
		dst.MedicineInstructions = src.MedicineInstructions
	}
	if src.MedicineQuantity != "" {
		dst.MedicineQuantity = src.MedicineQuantity
	}
}

// mergeEntries matches incoming entries to stored ones by the semantic key,
// never by array position. Incoming entries with an empty key are skipped.
func mergeEntries[E any](stored, incoming []E, keyOf func(E) string, overlay func(*E, E)) []E {
	index := make(map[string]int, len(stored))
	for i, e := range stored {
		if k := keyOf(e); k != "" {
			index[k] = i
		}
	}
	for _, in := range incoming {
		k := keyOf(in)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			overlay(&stored[i], in)
			continue
		}
		stored = append(stored, in)
		index[k] = len(stored) - 1
	}
	return stored
}
