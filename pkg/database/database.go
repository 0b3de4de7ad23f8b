package database

import (
	"context"
	"fmt"
	"time"

	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names. Kept in one place so repositories and index setup
// never drift apart.
const (
	CollPatients      = "patients"
	CollPrescriptions = "prescriptions"
	CollUsers         = "users"
	CollClinics       = "clinics"
	CollStocks        = "stocks"
	CollRefData       = "refdata"
	CollCounters      = "counters"
	CollAuditLogs     = "audit_logs"
)

func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return client, nil
}

// EnsureIndexes creates the unique and query indexes the application
// relies on. CreateMany is idempotent, so this runs on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	log.Info("ensuring database indexes")
	start := time.Now()

	unique := options.Index().SetUnique(true)

	indexSets := map[string][]mongo.IndexModel{
		CollPatients: {
			{Keys: bson.D{{Key: "patientId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "mobileNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "patientName", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "latestFollowupdate", Value: -1}}},
			{Keys: bson.D{{Key: "clinicId", Value: 1}}},
			{Keys: bson.D{{Key: "chooseDoctor", Value: 1}}},
		},
		CollPrescriptions: {
			{Keys: bson.D{{Key: "prescriptionId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "patientId", Value: 1}}},
		},
		CollUsers: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
			// Accounts may register with email or phone alone, so these
			// uniqueness constraints must ignore documents missing the field.
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$type", Value: "string"}, {Key: "$gt", Value: ""}}}})},
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "phone", Value: bson.D{{Key: "$type", Value: "string"}, {Key: "$gt", Value: ""}}}})},
		},
		CollClinics: {
			{Keys: bson.D{{Key: "clinicId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "clinic_name", Value: 1}}, Options: unique},
		},
		CollStocks: {
			{Keys: bson.D{{Key: "stockId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "stockProductName", Value: 1}}},
		},
		CollRefData: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "name", Value: 1}}},
		},
		CollCounters: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
	}

	for coll, models := range indexSets {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", coll, err)
		}
	}

	log.Info("database indexes ensured", zap.Duration("duration", time.Since(start)))
	return nil
}

func Disconnect(ctx context.Context, client *mongo.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Error("disconnecting from mongodb", zap.Error(err))
	}
}
