package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/therebootai/democlinicsoftwarebackend/internal/cache"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/prescription"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/metrics"
	"go.uber.org/zap"
)

// The collector registers against the default Prometheus registry, so the
// whole test package shares one instance.
var (
	testMetrics     *metrics.Collector
	testMetricsOnce sync.Once
)

func testCollector() *metrics.Collector {
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewCollector("test")
	})
	return testMetrics
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[string]*patient.Patient
	order    []string

	listCalls int
	lastQuery *patient.ListQuery
	listPage  *patient.Paged
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[string]*patient.Patient)}
}

func (r *fakePatientRepo) add(p *patient.Patient) {
	r.patients[p.PatientID] = p
	r.order = append(r.order, p.PatientID)
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.MobileNumber == p.MobileNumber {
			return patient.ErrDuplicateMobileNumber
		}
	}
	r.add(p)
	return nil
}

func (r *fakePatientRepo) GetByPatientID(_ context.Context, patientID string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) Replace(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.PatientID]; !ok {
		return patient.ErrPatientNotFound
	}
	r.patients[p.PatientID] = p
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patientID]; !ok {
		return patient.ErrPatientNotFound
	}
	delete(r.patients, patientID)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, q *patient.ListQuery) (*patient.Paged, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	r.lastQuery = q
	if r.listPage != nil {
		return r.listPage, nil
	}
	return &patient.Paged{Page: q.Page, Patients: []*patient.Patient{}}, nil
}

func (r *fakePatientRepo) ListAll(_ context.Context) ([]*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*patient.Patient, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatientRepo) ExistsByMobileNumber(_ context.Context, mobile string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.MobileNumber == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePatientRepo) ListPatientIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.patients))
	for id := range r.patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakePatientRepo) ListPaymentIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, p := range r.patients {
		for _, g := range p.PaymentDetails {
			ids = append(ids, g.PaymentID)
		}
	}
	return ids, nil
}

func (r *fakePatientRepo) ListTCCardIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, p := range r.patients {
		for _, c := range p.PatientTcCard {
			ids = append(ids, c.TCCardID)
		}
	}
	return ids, nil
}

func (r *fakePatientRepo) ListMobileNumbers(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, p := range r.patients {
		out = append(out, p.MobileNumber)
	}
	return out, nil
}

func (r *fakePatientRepo) InsertMany(_ context.Context, patients []*patient.Patient) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range patients {
		r.add(p)
	}
	return len(patients), nil
}

type fakePrescriptionRepo struct {
	mu            sync.Mutex
	prescriptions map[string]*prescription.Prescription
	deleted       []string
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{prescriptions: make(map[string]*prescription.Prescription)}
}

func (r *fakePrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.prescriptions[p.PrescriptionID]; dup {
		return prescription.ErrDuplicateID
	}
	r.prescriptions[p.PrescriptionID] = p
	return nil
}

func (r *fakePrescriptionRepo) GetByPrescriptionID(_ context.Context, id string) (*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	return p, nil
}

func (r *fakePrescriptionRepo) GetMany(_ context.Context, ids []string) ([]*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*prescription.Prescription, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.prescriptions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePrescriptionRepo) Replace(_ context.Context, p *prescription.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[p.PrescriptionID]; !ok {
		return prescription.ErrPrescriptionNotFound
	}
	r.prescriptions[p.PrescriptionID] = p
	return nil
}

func (r *fakePrescriptionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[id]; !ok {
		return prescription.ErrPrescriptionNotFound
	}
	delete(r.prescriptions, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakePrescriptionRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.prescriptions[id]; ok {
			delete(r.prescriptions, id)
			r.deleted = append(r.deleted, id)
			n++
		}
	}
	return n, nil
}

func (r *fakePrescriptionRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.prescriptions))
	for id := range r.prescriptions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.UserID == u.UserID ||
			(u.Email != "" && existing.Email == u.Email) ||
			(u.Phone != "" && existing.Phone == u.Phone) {
			return domain.ErrDuplicateUser
		}
	}
	r.users[u.UserID] = u
	return nil
}

func (r *fakeUserRepo) GetByUserID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *fakeUserRepo) ListByUserIDs(_ context.Context, userIDs []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Replace(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.UserID] = u
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) ListIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeCounters mimics the mongo counter document: Bump raises the stored
// value to the floor, Reserve takes a contiguous block.
type fakeCounters struct {
	mu     sync.Mutex
	values map[string]int
	bumps  []int
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{values: make(map[string]int)}
}

func (c *fakeCounters) Reserve(_ context.Context, name string, count int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] += count
	return c.values[name] - count + 1, nil
}

func (c *fakeCounters) Bump(_ context.Context, name string, floor int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if floor > c.values[name] {
		c.values[name] = floor
	}
	c.bumps = append(c.bumps, floor)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	fail    bool
}

func (s *fakeStorage) Upload(_ context.Context, filename string, _ io.Reader) (domain.FileRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return domain.FileRef{}, io.ErrUnexpectedEOF
	}
	s.uploads++
	return domain.FileRef{
		SecureURL: "https://media.test/" + filename,
		PublicID:  "test/" + filename,
	}, nil
}

func (s *fakeStorage) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicID)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

type patientServiceFixture struct {
	svc      *PatientService
	repo     *fakePatientRepo
	presRepo *fakePrescriptionRepo
	userRepo *fakeUserRepo
	counters *fakeCounters
	store    *fakeStorage
	cache    *cache.Cache
}

func newPatientServiceFixture() *patientServiceFixture {
	f := &patientServiceFixture{
		repo:     newFakePatientRepo(),
		presRepo: newFakePrescriptionRepo(),
		userRepo: newFakeUserRepo(),
		counters: newFakeCounters(),
		store:    &fakeStorage{},
		cache:    cache.New(time.Minute),
	}
	auditSvc := NewAuditService(&fakeAuditRepo{}, testCollector(), zap.NewNop())
	f.svc = NewPatientService(f.repo, f.presRepo, f.userRepo, f.counters, f.store, f.cache, testCollector(), auditSvc, zap.NewNop())
	return f
}
