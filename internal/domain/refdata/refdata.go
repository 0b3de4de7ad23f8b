// Package refdata models the flat lookup collections (advices, chief
// complaints, dental procedures, …) behind one generic surface: each entry
// is a named string in a kinded namespace with create / list / fuzzy-search
// dropdown / random-suggestion / delete operations and no relationships.
package refdata

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindAdvices          Kind = "advices"
	KindChiefComplaints  Kind = "chiefcomplaints"
	KindDentalProcedures Kind = "dentalprocedures"
	KindInvestigations   Kind = "investigations"
	KindMedications      Kind = "medications"
	KindOnExaminations   Kind = "onexaminations"
	KindOralFindings     Kind = "oralfindings"
	KindRadiography      Kind = "radiography"
	KindMedicalHistories Kind = "medicalhistories"
	KindPaymentItems     Kind = "paymentitems"
	KindDirections       Kind = "directions"
	KindForms            Kind = "forms"
)

// Kinds lists every registered namespace; the router mounts the five
// standard endpoints once per entry.
var Kinds = []Kind{
	KindAdvices,
	KindChiefComplaints,
	KindDentalProcedures,
	KindInvestigations,
	KindMedications,
	KindOnExaminations,
	KindOralFindings,
	KindRadiography,
	KindMedicalHistories,
	KindPaymentItems,
	KindDirections,
	KindForms,
}

func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Kind      Kind               `bson:"kind" json:"-"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
