package patient

import "context"

type Repository interface {
	// Create persists a new patient. Returns ErrDuplicateMobileNumber or
	// ErrDuplicatePatientID on a unique-index violation.
	Create(ctx context.Context, p *Patient) error

	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)

	// Replace persists the whole aggregate in a single write; nested-array
	// mutations go through here so the document store's per-document
	// atomicity covers them.
	Replace(ctx context.Context, p *Patient) error

	Delete(ctx context.Context, patientID string) error

	List(ctx context.Context, q *ListQuery) (*Paged, error)

	// ListAll streams every patient, newest first; used by the CSV export
	// and the nightly follow-up reconciliation.
	ListAll(ctx context.Context) ([]*Patient, error)

	ExistsByMobileNumber(ctx context.Context, mobile string) (bool, error)

	// Allocation scans. ListPatientIDs feeds the patientId series;
	// ListPaymentIDs and ListTCCardIDs collect nested IDs across all
	// patients because those series are global.
	ListPatientIDs(ctx context.Context) ([]string, error)
	ListPaymentIDs(ctx context.Context) ([]string, error)
	ListTCCardIDs(ctx context.Context) ([]string, error)

	// ListMobileNumbers returns every stored mobile number; the CSV import
	// uses it to skip duplicate rows in one pass.
	ListMobileNumbers(ctx context.Context) ([]string, error)

	// InsertMany bulk-inserts pre-validated patients (CSV import).
	InsertMany(ctx context.Context, patients []*Patient) (int, error)
}
