package clinic

import "context"

type Repository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByClinicID(ctx context.Context, clinicID string) (*Clinic, error)
	GetByName(ctx context.Context, name string) (*Clinic, error)
	List(ctx context.Context) ([]*Clinic, error)
	Replace(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, clinicID string) error
	ListIDs(ctx context.Context) ([]string, error)

	// SearchByName runs the fuzzy dropdown match against clinic_name.
	SearchByName(ctx context.Context, pattern string, limit int) ([]*Clinic, error)
}

type StockRepository interface {
	Create(ctx context.Context, s *Stock) error
	GetByStockID(ctx context.Context, stockID string) (*Stock, error)
	ListByClinic(ctx context.Context, clinicID string) ([]*Stock, error)
	Replace(ctx context.Context, s *Stock) error
	Delete(ctx context.Context, stockID string) error
	ListIDs(ctx context.Context) ([]string, error)
}
