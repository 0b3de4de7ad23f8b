package patient

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
)

// ID prefixes. Patient numbers and per-patient document numbers are scoped
// to their own series; payment and TC card numbers are allocated across all
// patients, so two patients never share a pay#### or tc#### number.
const (
	IDPrefix       = "patientId"
	DocumentPrefix = "DOC"
	PaymentPrefix  = "pay"
	TCCardPrefix   = "tc"
)

// Document is a file attached to a patient (scan, report, consent form).
type Document struct {
	DocumentID    string `bson:"documentId" json:"documentId"`
	DocumentTitle string `bson:"documentTitle" json:"documentTitle"`
	PublicID      string `bson:"publicId" json:"publicId"`
	DocumentFile  string `bson:"documentFile" json:"documentFile"`
}

type PaymentLineItem struct {
	ItemName           string `bson:"iteamName" json:"iteamName"`
	ItemCharges        string `bson:"iteamCharges" json:"iteamCharges"`
	PaymentDescription string `bson:"paymentDescription,omitempty" json:"paymentDescription,omitempty"`
}

// PaymentGroup is one billing event: a set of line items plus the charged /
// paid totals. AnyDue is derived, never accepted from the client.
type PaymentGroup struct {
	PaymentID      string            `bson:"paymentId" json:"paymentId"`
	PaymentDetails []PaymentLineItem `bson:"paymentDetails" json:"paymentDetails"`
	PaymentMethod  string            `bson:"paymentMethod" json:"paymentMethod"`
	TotalCharges   float64           `bson:"totalCharges" json:"totalCharges"`
	TotalPaid      float64           `bson:"totalPaid" json:"totalPaid"`
	AnyDue         float64           `bson:"anyDue" json:"anyDue"`
	CreatedAt      time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt" json:"updatedAt"`
}

type TCWorkType struct {
	TypeOfWork  string   `bson:"typeOfWork" json:"typeOfWork"`
	TCAmount    string   `bson:"tcamount" json:"tcamount"`
	DentalChart []string `bson:"dentalChart" json:"dentalChart"`
}

type TCCardDetail struct {
	StepDone        string     `bson:"stepDone" json:"stepDone"`
	NextAppointment *time.Time `bson:"nextAppointment,omitempty" json:"nextAppointment,omitempty"`
	NextStep        string     `bson:"nextStep,omitempty" json:"nextStep,omitempty"`
	Payment         string     `bson:"payment,omitempty" json:"payment,omitempty"`
	Due             string     `bson:"due,omitempty" json:"due,omitempty"`
	PaymentMethod   string     `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	Comment         string     `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
}

// TCCard is a treatment-cost card: planned work items with per-type amounts
// and the running step/appointment log. TotalPayment is derived from the
// work types on every save.
type TCCard struct {
	TCCardID          string          `bson:"tcCardId" json:"tcCardId"`
	WorkTypeDetails   []TCWorkType    `bson:"patientTcworkTypeDetails" json:"patientTcworkTypeDetails"`
	CardDetails       []TCCardDetail  `bson:"patientTcCardDetails" json:"patientTcCardDetails"`
	TotalPayment      float64         `bson:"totalPayment" json:"totalPayment"`
	TCCardPdf         *domain.FileRef `bson:"tccardPdf,omitempty" json:"tccardPdf,omitempty"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}

type MedicalHistoryEntry struct {
	MedicalHistoryName     string   `bson:"medicalHistoryName" json:"medicalHistoryName"`
	Duration               string   `bson:"duration,omitempty" json:"duration,omitempty"`
	MedicalHistoryMedicine []string `bson:"medicalHistoryMedicine" json:"medicalHistoryMedicine"`
}

type Patient struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PatientID string             `bson:"patientId" json:"patientId"`

	PatientName  string `bson:"patientName" json:"patientName"`
	MobileNumber string `bson:"mobileNumber" json:"mobileNumber"`
	Gender       string `bson:"gender" json:"gender"`
	Age          int    `bson:"age" json:"age"`
	Location     string `bson:"location" json:"location"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`
	City         string `bson:"city,omitempty" json:"city,omitempty"`
	PinCode      string `bson:"pinCode,omitempty" json:"pinCode,omitempty"`
	Priority     string `bson:"priority,omitempty" json:"priority,omitempty"`

	// ChooseDoctor holds the doctor's user code (doctorId####).
	ChooseDoctor string `bson:"chooseDoctor,omitempty" json:"chooseDoctor,omitempty"`
	ClinicID     string `bson:"clinicId" json:"clinicId"`

	AppointmentDate time.Time `bson:"appointmentdate" json:"appointmentdate"`

	// Vitals captured at the desk; free-form strings as entered.
	PulseRate        string `bson:"pulseRate,omitempty" json:"pulseRate,omitempty"`
	BloodPressure    string `bson:"bloodPressure,omitempty" json:"bloodPressure,omitempty"`
	BodyTemperature  string `bson:"bloodTemperature,omitempty" json:"bloodTemperature,omitempty"`
	RespiratoryRate  string `bson:"respiratoryRate,omitempty" json:"respiratoryRate,omitempty"`
	Hemoglobin       string `bson:"Hemoglobin,omitempty" json:"Hemoglobin,omitempty"`
	BloodSugarRandom string `bson:"bloodSugarRandom,omitempty" json:"bloodSugarRandom,omitempty"`

	// Prescriptions holds owned prescription IDs (PRES####); the documents
	// live in their own collection.
	Prescriptions []string `bson:"prescriptions" json:"prescriptions"`

	MedicalHistory   []MedicalHistoryEntry `bson:"medicalHistory" json:"medicalHistory"`
	PatientDocuments []Document            `bson:"patientDocuments" json:"patientDocuments"`
	PaymentDetails   []PaymentGroup        `bson:"paymentDetails" json:"paymentDetails"`
	PatientTcCard    []TCCard              `bson:"patientTcCard" json:"patientTcCard"`

	LatestFollowupDate *time.Time `bson:"latestFollowupdate" json:"latestFollowupdate"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ParseAmount reads a decimal amount string the way billing entries are
// captured: malformed or empty input counts as zero.
func ParseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// Recompute refreshes every derived field on the aggregate: per-card
// totalPayment, per-group anyDue, and latestFollowupdate. Called before
// every persist so a document never leaves memory with stale derivations.
func (p *Patient) Recompute() {
	for i := range p.PatientTcCard {
		p.PatientTcCard[i].RecomputeTotal()
	}
	for i := range p.PaymentDetails {
		g := &p.PaymentDetails[i]
		g.AnyDue = g.TotalCharges - g.TotalPaid
	}
	p.LatestFollowupDate = p.latestFollowup()
}

// RecomputeTotal sets TotalPayment to the sum of work-type amounts; an empty
// list yields 0.
func (c *TCCard) RecomputeTotal() {
	var sum float64
	for _, wt := range c.WorkTypeDetails {
		sum += ParseAmount(wt.TCAmount)
	}
	c.TotalPayment = sum
}

func (p *Patient) latestFollowup() *time.Time {
	var latest *time.Time
	for i := range p.PatientTcCard {
		for j := range p.PatientTcCard[i].CardDetails {
			next := p.PatientTcCard[i].CardDetails[j].NextAppointment
			if next == nil {
				continue
			}
			if latest == nil || next.After(*latest) {
				t := *next
				latest = &t
			}
		}
	}
	return latest
}

// NextDocumentID allocates the next DOC#### within this patient. Document
// numbers are per-patient: PAT A and PAT B can both hold DOC0001.
func (p *Patient) NextDocumentID() string {
	existing := make([]string, 0, len(p.PatientDocuments))
	for _, d := range p.PatientDocuments {
		existing = append(existing, d.DocumentID)
	}
	return serial.Next(existing, DocumentPrefix)
}

// MergeMedicalHistory applies the checked/unchecked reconciliation protocol:
// names in unchecked are removed; checked entries merge into existing ones
// by name (medicines unioned in first-seen order, duration overwritten when
// provided) or append when new.
func (p *Patient) MergeMedicalHistory(checked []MedicalHistoryEntry, uncheckedNames []string) {
	if len(uncheckedNames) > 0 {
		drop := make(map[string]struct{}, len(uncheckedNames))
		for _, n := range uncheckedNames {
			drop[n] = struct{}{}
		}
		kept := p.MedicalHistory[:0]
		for _, e := range p.MedicalHistory {
			if _, gone := drop[e.MedicalHistoryName]; !gone {
				kept = append(kept, e)
			}
		}
		p.MedicalHistory = kept
	}

	for _, in := range checked {
		if in.MedicalHistoryName == "" {
			continue
		}
		idx := -1
		for i := range p.MedicalHistory {
			if p.MedicalHistory[i].MedicalHistoryName == in.MedicalHistoryName {
				idx = i
				break
			}
		}
		if idx < 0 {
			p.MedicalHistory = append(p.MedicalHistory, MedicalHistoryEntry{
				MedicalHistoryName:     in.MedicalHistoryName,
				Duration:               in.Duration,
				MedicalHistoryMedicine: unionStrings(nil, in.MedicalHistoryMedicine),
			})
			continue
		}
		entry := &p.MedicalHistory[idx]
		entry.MedicalHistoryMedicine = unionStrings(entry.MedicalHistoryMedicine, in.MedicalHistoryMedicine)
		if in.Duration != "" {
			entry.Duration = in.Duration
		}
	}
}

func unionStrings(base, add []string) []string {
	seen := make(map[string]struct{}, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, s := range append(append([]string{}, base...), add...) {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FindPaymentGroup returns the group with the given pay#### ID.
func (p *Patient) FindPaymentGroup(paymentID string) *PaymentGroup {
	for i := range p.PaymentDetails {
		if p.PaymentDetails[i].PaymentID == paymentID {
			return &p.PaymentDetails[i]
		}
	}
	return nil
}

// FindTCCard returns the card with the given tc#### ID.
func (p *Patient) FindTCCard(tcCardID string) *TCCard {
	for i := range p.PatientTcCard {
		if p.PatientTcCard[i].TCCardID == tcCardID {
			return &p.PatientTcCard[i]
		}
	}
	return nil
}

// FindDocument returns the document with the given DOC#### ID.
func (p *Patient) FindDocument(documentID string) *Document {
	for i := range p.PatientDocuments {
		if p.PatientDocuments[i].DocumentID == documentID {
			return &p.PatientDocuments[i]
		}
	}
	return nil
}

// RemovePrescriptionRef detaches a prescription ID from the patient's list.
// Returns false when the ID was not attached.
func (p *Patient) RemovePrescriptionRef(prescriptionID string) bool {
	for i, id := range p.Prescriptions {
		if id == prescriptionID {
			p.Prescriptions = append(p.Prescriptions[:i], p.Prescriptions[i+1:]...)
			return true
		}
	}
	return false
}
