package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/clinic"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

type ClinicRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewClinicRepo(db *mongo.Database, queryTimeout time.Duration) *ClinicRepo {
	return &ClinicRepo{
		coll:         db.Collection(database.CollClinics),
		queryTimeout: queryTimeout,
	}
}

var _ clinic.Repository = (*ClinicRepo)(nil)

func (r *ClinicRepo) Create(ctx context.Context, c *clinic.Clinic) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return clinic.ErrDuplicateName
		}
		return fmt.Errorf("inserting clinic: %w", err)
	}
	return nil
}

func (r *ClinicRepo) GetByClinicID(ctx context.Context, clinicID string) (*clinic.Clinic, error) {
	return r.findOne(ctx, bson.M{"clinicId": clinicID})
}

func (r *ClinicRepo) GetByName(ctx context.Context, name string) (*clinic.Clinic, error) {
	return r.findOne(ctx, bson.M{"clinic_name": name})
}

func (r *ClinicRepo) findOne(ctx context.Context, filter bson.M) (*clinic.Clinic, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var c clinic.Clinic
	err := r.coll.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, clinic.ErrClinicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding clinic: %w", err)
	}
	return &c, nil
}

func (r *ClinicRepo) List(ctx context.Context) ([]*clinic.Clinic, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing clinics: %w", err)
	}
	defer cur.Close(ctx)

	var clinics []*clinic.Clinic
	if err := cur.All(ctx, &clinics); err != nil {
		return nil, fmt.Errorf("decoding clinics: %w", err)
	}
	return clinics, nil
}

func (r *ClinicRepo) Replace(ctx context.Context, c *clinic.Clinic) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"clinicId": c.ClinicID}, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return clinic.ErrDuplicateName
		}
		return fmt.Errorf("replacing clinic %s: %w", c.ClinicID, err)
	}
	if res.MatchedCount == 0 {
		return clinic.ErrClinicNotFound
	}
	return nil
}

func (r *ClinicRepo) Delete(ctx context.Context, clinicID string) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"clinicId": clinicID})
	if err != nil {
		return fmt.Errorf("deleting clinic %s: %w", clinicID, err)
	}
	if res.DeletedCount == 0 {
		return clinic.ErrClinicNotFound
	}
	return nil
}

func (r *ClinicRepo) ListIDs(ctx context.Context) ([]string, error) {
	return projectIDs(ctx, r.coll, "clinicId", r.queryTimeout)
}

func (r *ClinicRepo) SearchByName(ctx context.Context, pattern string, limit int) ([]*clinic.Clinic, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.M{"clinic_name": fuzzyPattern(pattern)}, opts)
	if err != nil {
		return nil, fmt.Errorf("searching clinics: %w", err)
	}
	defer cur.Close(ctx)

	var clinics []*clinic.Clinic
	if err := cur.All(ctx, &clinics); err != nil {
		return nil, fmt.Errorf("decoding clinics: %w", err)
	}
	return clinics, nil
}

// projectIDs reads one string field from every document in a collection.
func projectIDs(ctx context.Context, coll *mongo.Collection, field string, timeout time.Duration) ([]string, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{field: 1, "_id": 0})
	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("projecting %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", field, err)
		}
		if s, ok := doc[field].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, cur.Err()
}
