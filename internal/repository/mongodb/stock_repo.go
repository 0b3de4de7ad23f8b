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

type StockRepo struct {
	coll         *mongo.Collection
	queryTimeout time.Duration
}

func NewStockRepo(db *mongo.Database, queryTimeout time.Duration) *StockRepo {
	return &StockRepo{
		coll:         db.Collection(database.CollStocks),
		queryTimeout: queryTimeout,
	}
}

var _ clinic.StockRepository = (*StockRepo)(nil)

func (r *StockRepo) Create(ctx context.Context, s *clinic.Stock) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("inserting stock: %w", err)
	}
	return nil
}

func (r *StockRepo) GetByStockID(ctx context.Context, stockID string) (*clinic.Stock, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	var s clinic.Stock
	err := r.coll.FindOne(ctx, bson.M{"stockId": stockID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, clinic.ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding stock %s: %w", stockID, err)
	}
	return &s, nil
}

func (r *StockRepo) ListByClinic(ctx context.Context, clinicID string) ([]*clinic.Stock, error) {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "stockProductName", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"clinicId": clinicID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing stocks for clinic %s: %w", clinicID, err)
	}
	defer cur.Close(ctx)

	var stocks []*clinic.Stock
	if err := cur.All(ctx, &stocks); err != nil {
		return nil, fmt.Errorf("decoding stocks: %w", err)
	}
	return stocks, nil
}

func (r *StockRepo) Replace(ctx context.Context, s *clinic.Stock) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"stockId": s.StockID}, s)
	if err != nil {
		return fmt.Errorf("replacing stock %s: %w", s.StockID, err)
	}
	if res.MatchedCount == 0 {
		return clinic.ErrStockNotFound
	}
	return nil
}

func (r *StockRepo) Delete(ctx context.Context, stockID string) error {
	ctx, cancel := withTimeout(ctx, r.queryTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"stockId": stockID})
	if err != nil {
		return fmt.Errorf("deleting stock %s: %w", stockID, err)
	}
	if res.DeletedCount == 0 {
		return clinic.ErrStockNotFound
	}
	return nil
}

func (r *StockRepo) ListIDs(ctx context.Context) ([]string, error) {
	return projectIDs(ctx, r.coll, "stockId", r.queryTimeout)
}
