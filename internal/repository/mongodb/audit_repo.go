package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

type AuditRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewAuditRepo(db *mongo.Database, queryTimeout time.Duration) *AuditRepo {
	return &AuditRepo{
		coll:         db.Collection(database.CollAuditLogs),
		queryTimeout: queryTimeout,
	}
}

func (r *AuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}
