package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/therebootai/democlinicsoftwarebackend/internal/cache"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs the background maintenance jobs: nightly follow-up
// reconciliation, OTP purging, and cache cleanup.
type Scheduler struct {
	cron       *cron.Cron
	patientSvc *service.PatientService
	otpSvc     *service.OTPService
	listCache  *cache.Cache
	log        *zap.Logger
}

func NewScheduler(patientSvc *service.PatientService, otpSvc *service.OTPService, listCache *cache.Cache, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		patientSvc: patientSvc,
		otpSvc:     otpSvc,
		listCache:  listCache,
		log:        log,
	}
}

// Start registers the jobs and kicks off the cron loop.
func (s *Scheduler) Start() error {
	// Every day at 00:10, after the date has rolled over everywhere the
	// clinics operate.
	if _, err := s.cron.AddFunc("10 0 * * *", s.reconcileFollowups); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/5 * * * *", s.purgeOTPs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 1m", s.cleanupCache); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started")
	return nil
}

// Stop waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) reconcileFollowups() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := s.patientSvc.ReconcileFollowups(ctx)
	if err != nil {
		s.log.Error("followup reconciliation failed", zap.Error(err))
		return
	}
	s.log.Info("followup reconciliation complete", zap.Int("patients_updated", updated))
}

func (s *Scheduler) purgeOTPs() {
	if purged := s.otpSvc.PurgeExpired(); purged > 0 {
		s.log.Debug("purged expired otp codes", zap.Int("count", purged))
	}
}

func (s *Scheduler) cleanupCache() {
	s.listCache.Purge()
}
