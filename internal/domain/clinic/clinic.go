package clinic

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	IDPrefix      = "clinicId"
	StockIDPrefix = "stockId"
)

type Clinic struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ClinicID      string             `bson:"clinicId" json:"clinicId"`
	ClinicName    string             `bson:"clinic_name" json:"clinic_name"`
	ClinicAddress string             `bson:"clinic_address" json:"clinic_address"`

	// Stocks holds owned stockId references; stock documents live in their
	// own collection.
	Stocks []string `bson:"stocks" json:"stocks"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Stock struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StockID          string             `bson:"stockId" json:"stockId"`
	StockProductName string             `bson:"stockProductName" json:"stockProductName"`
	StockQuantity    int                `bson:"stockQuantity" json:"stockQuantity"`
	ClinicID         string             `bson:"clinicId" json:"clinicId"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
