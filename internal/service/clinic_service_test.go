package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/clinic"
	"go.uber.org/zap"
)

type fakeClinicRepo struct {
	mu      sync.Mutex
	clinics map[string]*clinic.Clinic
}

func newFakeClinicRepo() *fakeClinicRepo {
	return &fakeClinicRepo{clinics: make(map[string]*clinic.Clinic)}
}

func (r *fakeClinicRepo) Create(_ context.Context, c *clinic.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clinics {
		if existing.ClinicName == c.ClinicName {
			return clinic.ErrDuplicateName
		}
	}
	r.clinics[c.ClinicID] = c
	return nil
}

func (r *fakeClinicRepo) GetByClinicID(_ context.Context, clinicID string) (*clinic.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clinics[clinicID]
	if !ok {
		return nil, clinic.ErrClinicNotFound
	}
	return c, nil
}

func (r *fakeClinicRepo) GetByName(_ context.Context, name string) (*clinic.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clinics {
		if c.ClinicName == name {
			return c, nil
		}
	}
	return nil, clinic.ErrClinicNotFound
}

func (r *fakeClinicRepo) List(_ context.Context) ([]*clinic.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*clinic.Clinic, 0, len(r.clinics))
	for _, c := range r.clinics {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClinicID < out[j].ClinicID })
	return out, nil
}

func (r *fakeClinicRepo) Replace(_ context.Context, c *clinic.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clinics[c.ClinicID]; !ok {
		return clinic.ErrClinicNotFound
	}
	r.clinics[c.ClinicID] = c
	return nil
}

func (r *fakeClinicRepo) Delete(_ context.Context, clinicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clinics[clinicID]; !ok {
		return clinic.ErrClinicNotFound
	}
	delete(r.clinics, clinicID)
	return nil
}

func (r *fakeClinicRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.clinics))
	for id := range r.clinics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeClinicRepo) SearchByName(_ context.Context, pattern string, limit int) ([]*clinic.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*clinic.Clinic
	for _, c := range r.clinics {
		if strings.Contains(strings.ToLower(c.ClinicName), strings.ToLower(pattern)) {
			out = append(out, c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeStockRepo struct {
	mu     sync.Mutex
	stocks map[string]*clinic.Stock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[string]*clinic.Stock)}
}

func (r *fakeStockRepo) Create(_ context.Context, s *clinic.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[s.StockID] = s
	return nil
}

func (r *fakeStockRepo) GetByStockID(_ context.Context, stockID string) (*clinic.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[stockID]
	if !ok {
		return nil, clinic.ErrStockNotFound
	}
	return s, nil
}

func (r *fakeStockRepo) ListByClinic(_ context.Context, clinicID string) ([]*clinic.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*clinic.Stock
	for _, s := range r.stocks {
		if s.ClinicID == clinicID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockProductName < out[j].StockProductName })
	return out, nil
}

func (r *fakeStockRepo) Replace(_ context.Context, s *clinic.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[s.StockID]; !ok {
		return clinic.ErrStockNotFound
	}
	r.stocks[s.StockID] = s
	return nil
}

func (r *fakeStockRepo) Delete(_ context.Context, stockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[stockID]; !ok {
		return clinic.ErrStockNotFound
	}
	delete(r.stocks, stockID)
	return nil
}

func (r *fakeStockRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.stocks))
	for id := range r.stocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func newClinicFixture() (*ClinicService, *fakeClinicRepo, *fakeStockRepo) {
	repo := newFakeClinicRepo()
	stockRepo := newFakeStockRepo()
	return NewClinicService(repo, stockRepo, zap.NewNop()), repo, stockRepo
}

func TestCreateClinicAllocatesID(t *testing.T) {
	svc, _, _ := newClinicFixture()

	c, err := svc.CreateClinic(context.Background(), "  Smile Dental  ", "12 Park Street")
	require.NoError(t, err)

	assert.Equal(t, "clinicId0001", c.ClinicID)
	assert.Equal(t, "Smile Dental", c.ClinicName)
	assert.NotNil(t, c.Stocks)
}

func TestCreateClinicRequiresName(t *testing.T) {
	svc, _, _ := newClinicFixture()

	_, err := svc.CreateClinic(context.Background(), "   ", "somewhere")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateStockAttachesReferenceToClinic(t *testing.T) {
	svc, repo, _ := newClinicFixture()
	c, err := svc.CreateClinic(context.Background(), "Smile Dental", "")
	require.NoError(t, err)

	st, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Composite Resin",
		StockQuantity:    40,
		ClinicID:         c.ClinicID,
	})
	require.NoError(t, err)

	assert.Equal(t, "stockId0001", st.StockID)

	stored, err := repo.GetByClinicID(context.Background(), c.ClinicID)
	require.NoError(t, err)
	assert.Equal(t, []string{"stockId0001"}, stored.Stocks)
}

func TestCreateStockUnknownClinic(t *testing.T) {
	svc, _, _ := newClinicFixture()

	_, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Gloves",
		ClinicID:         "clinicId0009",
	})
	assert.ErrorIs(t, err, clinic.ErrClinicNotFound)
}

func TestUpdateStockQuantityRejectsNegative(t *testing.T) {
	svc, _, _ := newClinicFixture()
	c, err := svc.CreateClinic(context.Background(), "Smile Dental", "")
	require.NoError(t, err)
	st, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Gloves", StockQuantity: 10, ClinicID: c.ClinicID,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStockQuantity(context.Background(), st.StockID, -1)
	assert.ErrorIs(t, err, clinic.ErrInvalidStockAmount)

	updated, err := svc.UpdateStockQuantity(context.Background(), st.StockID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.StockQuantity)
}

func TestDeleteStockDetachesFromClinic(t *testing.T) {
	svc, repo, stockRepo := newClinicFixture()
	c, err := svc.CreateClinic(context.Background(), "Smile Dental", "")
	require.NoError(t, err)
	st, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Gloves", StockQuantity: 10, ClinicID: c.ClinicID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStock(context.Background(), st.StockID))

	_, err = stockRepo.GetByStockID(context.Background(), st.StockID)
	assert.ErrorIs(t, err, clinic.ErrStockNotFound)
	stored, err := repo.GetByClinicID(context.Background(), c.ClinicID)
	require.NoError(t, err)
	assert.Empty(t, stored.Stocks)
}

func TestDeleteClinicCascadesToStocks(t *testing.T) {
	svc, _, stockRepo := newClinicFixture()
	c, err := svc.CreateClinic(context.Background(), "Smile Dental", "")
	require.NoError(t, err)
	st1, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Gloves", StockQuantity: 10, ClinicID: c.ClinicID,
	})
	require.NoError(t, err)
	st2, err := svc.CreateStock(context.Background(), &StockCommand{
		StockProductName: "Masks", StockQuantity: 5, ClinicID: c.ClinicID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClinic(context.Background(), c.ClinicID))

	_, err = stockRepo.GetByStockID(context.Background(), st1.StockID)
	assert.ErrorIs(t, err, clinic.ErrStockNotFound)
	_, err = stockRepo.GetByStockID(context.Background(), st2.StockID)
	assert.ErrorIs(t, err, clinic.ErrStockNotFound)
}
