package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/serial"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

// CounterRepo implements serial.CounterStore on a counters collection.
// The CSV import reserves whole ID blocks through it instead of scanning
// the series once per row; findOneAndUpdate with $inc makes a reservation
// atomic across instances.
type CounterRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewCounterRepo(db *mongo.Database, queryTimeout time.Duration) *CounterRepo {
	return &CounterRepo{
		coll:         db.Collection(database.CollCounters),
		queryTimeout: queryTimeout,
	}
}

var _ serial.CounterStore = (*CounterRepo)(nil)

// Reserve atomically advances the named counter by count and returns the
// first value of the reserved block.
func (r *CounterRepo) Reserve(ctx context.Context, name string, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("reserve count must be positive, got %d", count)
	}

	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Value int `bson:"value"`
	}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$inc": bson.M{"value": count}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("reserving %d ids on counter %s: %w", count, name, err)
	}

	return doc.Value - count + 1, nil
}

// Bump raises the named counter to at least floor, so a counter series
// started after scan-allocated IDs never re-issues one of them.
func (r *CounterRepo) Bump(ctx context.Context, name string, floor int) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$max": bson.M{"value": floor}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("bumping counter %s to %d: %w", name, floor, err)
	}
	return nil
}
