package refdata

import (
	"context"
	"errors"
)

var (
	ErrEntryNotFound = errors.New("reference entry not found")
	ErrUnknownKind   = errors.New("unknown reference collection")
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, kind Kind) ([]*Entry, error)

	// Search runs the fuzzy dropdown regex against names within one kind.
	Search(ctx context.Context, kind Kind, pattern string, limit int) ([]*Entry, error)

	// Random samples entries for the empty-query suggestion endpoint.
	Random(ctx context.Context, kind Kind, limit int) ([]*Entry, error)

	DeleteByName(ctx context.Context, kind Kind, name string) error
}
