package service

import (
	"context"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/refdata"
	"go.uber.org/zap"
)

const randomSuggestionCount = 10

// RefDataService serves every flat lookup collection through one
// surface; the kind parameter picks the namespace.
type RefDataService struct {
	repo refdata.Repository
	log  *zap.Logger
}

func NewRefDataService(repo refdata.Repository, log *zap.Logger) *RefDataService {
	return &RefDataService{repo: repo, log: log}
}

func (s *RefDataService) Create(ctx context.Context, kind refdata.Kind, name string) (*refdata.Entry, error) {
	if !kind.IsValid() {
		return nil, refdata.ErrUnknownKind
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: []string{"name is required"}}
	}

	e := &refdata.Entry{
		Kind:      kind,
		Name:      name,
		CreatedAt: timeNow(),
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *RefDataService) List(ctx context.Context, kind refdata.Kind) ([]*refdata.Entry, error) {
	if !kind.IsValid() {
		return nil, refdata.ErrUnknownKind
	}
	return s.repo.List(ctx, kind)
}

// Dropdown returns fuzzy matches for a query, or random suggestions when
// the query is empty.
func (s *RefDataService) Dropdown(ctx context.Context, kind refdata.Kind, query string) ([]*refdata.Entry, error) {
	if !kind.IsValid() {
		return nil, refdata.ErrUnknownKind
	}
	if strings.TrimSpace(query) == "" {
		return s.repo.Random(ctx, kind, randomSuggestionCount)
	}
	return s.repo.Search(ctx, kind, query, dropdownLimit)
}

func (s *RefDataService) Delete(ctx context.Context, kind refdata.Kind, name string) error {
	if !kind.IsValid() {
		return refdata.ErrUnknownKind
	}
	return s.repo.DeleteByName(ctx, kind, name)
}
