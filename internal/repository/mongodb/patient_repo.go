package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
)

type PatientRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewPatientRepo(db *mongo.Database, queryTimeout time.Duration) *PatientRepo {
	return &PatientRepo{
		coll:         db.Collection(database.CollPatients),
		queryTimeout: queryTimeout,
	}
}

var _ patient.Repository = (*PatientRepo)(nil)

func (r *PatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyPatientDuplicate(err)
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (r *PatientRepo) GetByPatientID(ctx context.Context, patientID string) (*patient.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var p patient.Patient
	err := r.coll.FindOne(ctx, bson.M{"patientId": patientID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding patient %s: %w", patientID, err)
	}
	return &p, nil
}

func (r *PatientRepo) Replace(ctx context.Context, p *patient.Patient) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"patientId": p.PatientID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return classifyPatientDuplicate(err)
		}
		return fmt.Errorf("replacing patient %s: %w", p.PatientID, err)
	}
	if res.MatchedCount == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepo) Delete(ctx context.Context, patientID string) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"patientId": patientID})
	if err != nil {
		return fmt.Errorf("deleting patient %s: %w", patientID, err)
	}
	if res.DeletedCount == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepo) List(ctx context.Context, q *patient.ListQuery) (*patient.Paged, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	filter := buildPatientFilter(q)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer cur.Close(ctx)

	patients := make([]*patient.Patient, 0, q.Limit)
	if err := cur.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("decoding patients: %w", err)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))

	return &patient.Paged{
		Page:           q.Page,
		TotalPages:     totalPages,
		TotalDocuments: total,
		Patients:       patients,
	}, nil
}

func buildPatientFilter(q *patient.ListQuery) bson.M {
	filter := bson.M{}

	if q.Search != "" {
		re := substringPattern(q.Search)
		filter["$or"] = bson.A{
			bson.M{"patientId": re},
			bson.M{"patientName": re},
			bson.M{"mobileNumber": re},
		}
	}
	if q.DoctorID != "" {
		filter["chooseDoctor"] = q.DoctorID
	}
	if q.ClinicID != "" {
		filter["clinicId"] = q.ClinicID
	}

	if q.StartDate != nil || q.EndDate != nil {
		field := string(q.DateField)
		if field == "" {
			field = string(patient.DateFieldCreatedAt)
		}
		rangeFilter := bson.M{}
		if q.StartDate != nil {
			rangeFilter["$gte"] = *q.StartDate
		}
		switch {
		case q.EndDate != nil:
			rangeFilter["$lte"] = endOfDay(*q.EndDate)
		case q.StartDate != nil:
			// Single-date filter covers that whole day.
			rangeFilter["$lte"] = endOfDay(*q.StartDate)
		}
		filter[field] = rangeFilter
	}

	return filter
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func (r *PatientRepo) ListAll(ctx context.Context) ([]*patient.Patient, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing all patients: %w", err)
	}
	defer cur.Close(ctx)

	var patients []*patient.Patient
	if err := cur.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("decoding patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepo) ExistsByMobileNumber(ctx context.Context, mobile string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"mobileNumber": mobile}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking mobile number: %w", err)
	}
	return n > 0, nil
}

func (r *PatientRepo) ListPatientIDs(ctx context.Context) ([]string, error) {
	return r.projectStrings(ctx, "patientId")
}

func (r *PatientRepo) ListMobileNumbers(ctx context.Context) ([]string, error) {
	return r.projectStrings(ctx, "mobileNumber")
}

// projectStrings reads a single top-level string field from every
// document; the allocator only needs the IDs, not the aggregates.
func (r *PatientRepo) projectStrings(ctx context.Context, field string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{field: 1, "_id": 0})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
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

// ListPaymentIDs unwinds the nested payment groups across every patient;
// the pay#### series is allocated over the whole collection.
func (r *PatientRepo) ListPaymentIDs(ctx context.Context) ([]string, error) {
	return r.unwindStrings(ctx, "paymentDetails", "paymentId")
}

// ListTCCardIDs unwinds the nested TC cards across every patient.
func (r *PatientRepo) ListTCCardIDs(ctx context.Context) ([]string, error) {
	return r.unwindStrings(ctx, "patientTcCard", "tcCardId")
}

func (r *PatientRepo) unwindStrings(ctx context.Context, arrayField, idField string) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$" + arrayField}},
		{{Key: "$project", Value: bson.M{"id": "$" + arrayField + "." + idField, "_id": 0}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("unwinding %s: %w", arrayField, err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding %s id: %w", arrayField, err)
		}
		if doc.ID != "" {
			out = append(out, doc.ID)
		}
	}
	return out, cur.Err()
}

func (r *PatientRepo) InsertMany(ctx context.Context, patients []*patient.Patient) (int, error) {
	if len(patients) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	docs := make([]any, len(patients))
	for i, p := range patients {
		docs[i] = p
	}

	// Unordered so one duplicate row does not abort the rest of the batch.
	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	inserted := 0
	if res != nil {
		inserted = len(res.InsertedIDs)
	}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			return inserted, nil
		}
		return inserted, fmt.Errorf("bulk inserting patients: %w", err)
	}
	return inserted, nil
}

// classifyPatientDuplicate maps a unique-index violation to the domain
// error for the offending field.
func classifyPatientDuplicate(err error) error {
	if strings.Contains(err.Error(), "mobileNumber") {
		return patient.ErrDuplicateMobileNumber
	}
	return patient.ErrDuplicatePatientID
}
