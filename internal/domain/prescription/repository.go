package prescription

import "context"

type Repository interface {
	// Create persists a new prescription. Returns ErrDuplicateID when the
	// prescriptionId lost an allocation race to a concurrent insert.
	Create(ctx context.Context, p *Prescription) error

	GetByPrescriptionID(ctx context.Context, prescriptionID string) (*Prescription, error)

	// GetMany returns the prescriptions for the given IDs in the order they
	// appear in ids; missing IDs are skipped.
	GetMany(ctx context.Context, ids []string) ([]*Prescription, error)

	// Replace persists the whole aggregate in one write.
	Replace(ctx context.Context, p *Prescription) error

	Delete(ctx context.Context, prescriptionID string) error

	// DeleteMany removes all listed prescriptions; used by the patient
	// cascade. Returns the number actually deleted.
	DeleteMany(ctx context.Context, ids []string) (int64, error)

	// ListIDs returns every assigned prescriptionId; feeds the allocator.
	ListIDs(ctx context.Context) ([]string, error)
}
