package patient

import (
	"strconv"
	"time"
)

// DateField selects which timestamp a list date-range filters on.
type DateField string

const (
	DateFieldCreatedAt      DateField = "createdAt"
	DateFieldLatestFollowup DateField = "latestFollowupdate"
)

type ListQuery struct {
	Page  int
	Limit int

	// Search matches patientId, patientName, and mobileNumber as a
	// case-insensitive substring.
	Search string

	// Date range, inclusive. When only StartDate is set the filter covers
	// that whole day (end-of-day rounding).
	DateField DateField
	StartDate *time.Time
	EndDate   *time.Time

	DoctorID string
	ClinicID string
}

// CacheKey folds every parameter into a stable string so each distinct
// query combination caches independently.
func (q *ListQuery) CacheKey() string {
	key := "patients:page:" + strconv.Itoa(q.Page) + "-limit:" + strconv.Itoa(q.Limit)
	if q.Search != "" {
		key += "-search:" + q.Search
	}
	if q.StartDate != nil {
		key += "-from:" + q.StartDate.Format(time.RFC3339)
	}
	if q.EndDate != nil {
		key += "-to:" + q.EndDate.Format(time.RFC3339)
	}
	if q.DateField != "" {
		key += "-on:" + string(q.DateField)
	}
	if q.DoctorID != "" {
		key += "-doctor:" + q.DoctorID
	}
	if q.ClinicID != "" {
		key += "-clinic:" + q.ClinicID
	}
	return key
}

type Paged struct {
	Page           int        `json:"page"`
	TotalPages     int        `json:"totalPages"`
	TotalDocuments int64      `json:"totalDocuments"`
	Patients       []*Patient `json:"data"`
}

// UpdateCommand carries a partial patient update. Nil pointers leave the
// stored value alone; medical history goes through the checked/unchecked
// reconciliation rather than wholesale replacement.
type UpdateCommand struct {
	PatientName  *string `json:"patientName,omitempty"`
	MobileNumber *string `json:"mobileNumber,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	Age          *int    `json:"age,omitempty"`
	Location     *string `json:"location,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	PinCode      *string `json:"pinCode,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	ChooseDoctor *string `json:"chooseDoctor,omitempty"`
	ClinicID     *string `json:"clinicId,omitempty"`

	AppointmentDate *time.Time `json:"appointmentdate,omitempty"`

	PulseRate        *string `json:"pulseRate,omitempty"`
	BloodPressure    *string `json:"bloodPressure,omitempty"`
	BodyTemperature  *string `json:"bloodTemperature,omitempty"`
	RespiratoryRate  *string `json:"respiratoryRate,omitempty"`
	Hemoglobin       *string `json:"Hemoglobin,omitempty"`
	BloodSugarRandom *string `json:"bloodSugarRandom,omitempty"`

	CheckedMedicalHistory        []MedicalHistoryEntry `json:"checkedMedicalHistory,omitempty"`
	UncheckedMedicalHistoryNames []string              `json:"uncheckedMedicalHistoryNames,omitempty"`
}

// Apply overlays the command onto the aggregate.
func (cmd *UpdateCommand) Apply(p *Patient) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&p.PatientName, cmd.PatientName)
	setStr(&p.MobileNumber, cmd.MobileNumber)
	setStr(&p.Gender, cmd.Gender)
	if cmd.Age != nil {
		p.Age = *cmd.Age
	}
	setStr(&p.Location, cmd.Location)
	setStr(&p.Address, cmd.Address)
	setStr(&p.City, cmd.City)
	setStr(&p.PinCode, cmd.PinCode)
	setStr(&p.Priority, cmd.Priority)
	setStr(&p.ChooseDoctor, cmd.ChooseDoctor)
	setStr(&p.ClinicID, cmd.ClinicID)
	if cmd.AppointmentDate != nil {
		p.AppointmentDate = *cmd.AppointmentDate
	}
	setStr(&p.PulseRate, cmd.PulseRate)
	setStr(&p.BloodPressure, cmd.BloodPressure)
	setStr(&p.BodyTemperature, cmd.BodyTemperature)
	setStr(&p.RespiratoryRate, cmd.RespiratoryRate)
	setStr(&p.Hemoglobin, cmd.Hemoglobin)
	setStr(&p.BloodSugarRandom, cmd.BloodSugarRandom)

	if cmd.CheckedMedicalHistory != nil || cmd.UncheckedMedicalHistoryNames != nil {
		p.MergeMedicalHistory(cmd.CheckedMedicalHistory, cmd.UncheckedMedicalHistoryNames)
	}
}
