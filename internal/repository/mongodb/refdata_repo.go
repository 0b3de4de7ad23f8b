package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/refdata"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

// RefDataRepo stores every lookup namespace in one collection keyed by
// kind, so adding a namespace needs no new collection or index.
type RefDataRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewRefDataRepo(db *mongo.Database, queryTimeout time.Duration) *RefDataRepo {
	return &RefDataRepo{
		coll:         db.Collection(database.CollRefData),
		queryTimeout: queryTimeout,
	}
}

var _ refdata.Repository = (*RefDataRepo)(nil)

func (r *RefDataRepo) Create(ctx context.Context, e *refdata.Entry) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("inserting %s entry: %w", e.Kind, err)
	}
	return nil
}

func (r *RefDataRepo) List(ctx context.Context, kind refdata.Kind) ([]*refdata.Entry, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var entries []*refdata.Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s entries: %w", kind, err)
	}
	return entries, nil
}

func (r *RefDataRepo) Search(ctx context.Context, kind refdata.Kind, pattern string, limit int) ([]*refdata.Entry, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	filter := bson.M{"kind": kind, "name": fuzzyPattern(pattern)}
	opts := options.Find().SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var entries []*refdata.Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s entries: %w", kind, err)
	}
	return entries, nil
}

// Random samples entries for the empty-query dropdown suggestions.
func (r *RefDataRepo) Random(ctx context.Context, kind refdata.Kind, limit int) ([]*refdata.Entry, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"kind": kind}}},
		{{Key: "$sample", Value: bson.M{"size": limit}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sampling %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var entries []*refdata.Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s entries: %w", kind, err)
	}
	return entries, nil
}

func (r *RefDataRepo) DeleteByName(ctx context.Context, kind refdata.Kind, name string) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"kind": kind, "name": name})
	if err != nil {
		return fmt.Errorf("deleting %s entry: %w", kind, err)
	}
	if res.DeletedCount == 0 {
		return refdata.ErrEntryNotFound
	}
	return nil
}
