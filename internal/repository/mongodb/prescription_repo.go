package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

type PrescriptionRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewPrescriptionRepo(db *mongo.Database, queryTimeout time.Duration) *PrescriptionRepo {
	return &PrescriptionRepo{
		coll:         db.Collection(database.CollPrescriptions),
		queryTimeout: queryTimeout,
	}
}

var _ prescription.Repository = (*PrescriptionRepo)(nil)

func (r *PrescriptionRepo) Create(ctx context.Context, p *prescription.Prescription) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return prescription.ErrDuplicateID
		}
		return fmt.Errorf("inserting prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepo) GetByPrescriptionID(ctx context.Context, prescriptionID string) (*prescription.Prescription, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var p prescription.Prescription
	err := r.coll.FindOne(ctx, bson.M{"prescriptionId": prescriptionID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding prescription %s: %w", prescriptionID, err)
	}
	return &p, nil
}

// GetMany fetches the listed prescriptions and returns them in the order
// of ids, which is the order the owning patient references them in.
func (r *PrescriptionRepo) GetMany(ctx context.Context, ids []string) ([]*prescription.Prescription, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"prescriptionId": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("finding prescriptions: %w", err)
	}
	defer cur.Close(ctx)

	byID := make(map[string]*prescription.Prescription, len(ids))
	for cur.Next(ctx) {
		var p prescription.Prescription
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding prescription: %w", err)
		}
		byID[p.PrescriptionID] = &p
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]*prescription.Prescription, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PrescriptionRepo) Replace(ctx context.Context, p *prescription.Prescription) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"prescriptionId": p.PrescriptionID}, p)
	if err != nil {
		return fmt.Errorf("replacing prescription %s: %w", p.PrescriptionID, err)
	}
	if res.MatchedCount == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepo) Delete(ctx context.Context, prescriptionID string) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"prescriptionId": prescriptionID})
	if err != nil {
		return fmt.Errorf("deleting prescription %s: %w", prescriptionID, err)
	}
	if res.DeletedCount == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"prescriptionId": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("deleting prescriptions: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *PrescriptionRepo) ListIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"prescriptionId": 1, "_id": 0})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("projecting prescription ids: %w", err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"prescriptionId"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding prescription id: %w", err)
		}
		if doc.ID != "" {
			out = append(out, doc.ID)
		}
	}
	return out, cur.Err()
}
