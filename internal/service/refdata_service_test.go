package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/refdata"
	"go.uber.org/zap"
)

type fakeRefDataRepo struct {
	entries       []*refdata.Entry
	searchCalls   int
	randomCalls   int
	lastSearchLim int
	lastRandomLim int
}

func (r *fakeRefDataRepo) Create(_ context.Context, e *refdata.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRefDataRepo) List(_ context.Context, kind refdata.Kind) ([]*refdata.Entry, error) {
	var out []*refdata.Entry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRefDataRepo) Search(_ context.Context, kind refdata.Kind, pattern string, limit int) ([]*refdata.Entry, error) {
	r.searchCalls++
	r.lastSearchLim = limit
	var out []*refdata.Entry
	for _, e := range r.entries {
		if e.Kind == kind && strings.Contains(strings.ToLower(e.Name), strings.ToLower(pattern)) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRefDataRepo) Random(_ context.Context, kind refdata.Kind, limit int) ([]*refdata.Entry, error) {
	r.randomCalls++
	r.lastRandomLim = limit
	var out []*refdata.Entry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRefDataRepo) DeleteByName(_ context.Context, kind refdata.Kind, name string) error {
	for i, e := range r.entries {
		if e.Kind == kind && e.Name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return refdata.ErrEntryNotFound
}

func newRefDataFixture() (*RefDataService, *fakeRefDataRepo) {
	repo := &fakeRefDataRepo{}
	return NewRefDataService(repo, zap.NewNop()), repo
}

func TestRefDataCreateTrimsNameAndStampsKind(t *testing.T) {
	svc, repo := newRefDataFixture()

	e, err := svc.Create(context.Background(), refdata.KindMedications, "  Amoxicillin 500mg  ")
	require.NoError(t, err)

	assert.Equal(t, "Amoxicillin 500mg", e.Name)
	assert.Equal(t, refdata.KindMedications, e.Kind)
	require.Len(t, repo.entries, 1)
}

func TestRefDataCreateRejectsUnknownKind(t *testing.T) {
	svc, _ := newRefDataFixture()

	_, err := svc.Create(context.Background(), refdata.Kind("appointments"), "anything")
	assert.ErrorIs(t, err, refdata.ErrUnknownKind)
}

func TestRefDataCreateRequiresName(t *testing.T) {
	svc, _ := newRefDataFixture()

	_, err := svc.Create(context.Background(), refdata.KindAdvices, "   ")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRefDataListScopesToKind(t *testing.T) {
	svc, _ := newRefDataFixture()
	_, err := svc.Create(context.Background(), refdata.KindAdvices, "Soft diet for a week")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), refdata.KindMedications, "Ibuprofen 400mg")
	require.NoError(t, err)

	advices, err := svc.List(context.Background(), refdata.KindAdvices)
	require.NoError(t, err)
	require.Len(t, advices, 1)
	assert.Equal(t, "Soft diet for a week", advices[0].Name)
}

func TestRefDataDropdownEmptyQueryReturnsRandomSample(t *testing.T) {
	svc, repo := newRefDataFixture()
	_, err := svc.Create(context.Background(), refdata.KindChiefComplaints, "Toothache")
	require.NoError(t, err)

	out, err := svc.Dropdown(context.Background(), refdata.KindChiefComplaints, "   ")
	require.NoError(t, err)

	assert.Len(t, out, 1)
	assert.Equal(t, 1, repo.randomCalls)
	assert.Equal(t, 0, repo.searchCalls)
	assert.Equal(t, 10, repo.lastRandomLim)
}

func TestRefDataDropdownQueryUsesFuzzySearch(t *testing.T) {
	svc, repo := newRefDataFixture()
	_, err := svc.Create(context.Background(), refdata.KindChiefComplaints, "Bleeding gums")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), refdata.KindChiefComplaints, "Toothache")
	require.NoError(t, err)

	out, err := svc.Dropdown(context.Background(), refdata.KindChiefComplaints, "gum")
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "Bleeding gums", out[0].Name)
	assert.Equal(t, 1, repo.searchCalls)
	assert.Equal(t, 30, repo.lastSearchLim)
}

func TestRefDataDeleteByName(t *testing.T) {
	svc, repo := newRefDataFixture()
	_, err := svc.Create(context.Background(), refdata.KindDirections, "After meals")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), refdata.KindDirections, "After meals"))
	assert.Empty(t, repo.entries)

	err = svc.Delete(context.Background(), refdata.KindDirections, "After meals")
	assert.ErrorIs(t, err, refdata.ErrEntryNotFound)
}
