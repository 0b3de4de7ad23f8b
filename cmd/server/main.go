package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/therebootai/democlinicsoftwarebackend/internal/cache"
	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	v1 "github.com/therebootai/democlinicsoftwarebackend/internal/handler/v1"
	"github.com/therebootai/democlinicsoftwarebackend/internal/jobs"
	"github.com/therebootai/democlinicsoftwarebackend/internal/repository/mongodb"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/auth"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/database"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/logger"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/metrics"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/notify"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/storage"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/tracer"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine; containers inject real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	client, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer database.Disconnect(context.Background(), client, log)

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("dentity")

	listCache := cache.New(cfg.Cache.TTL, cache.WithCounters(
		collector.CacheHits.Inc,
		collector.CacheMisses.Inc,
	))

	var store storage.Storage
	if cfg.Storage.Provider == "local" {
		local, err := storage.NewLocal(cfg.Storage, log)
		if err != nil {
			return err
		}
		store = local
	} else {
		store = storage.NewHosted(cfg.Storage, log)
	}

	patientRepo := mongodb.NewPatientRepo(db, cfg.Mongo.QueryTimeout)
	presRepo := mongodb.NewPrescriptionRepo(db, cfg.Mongo.QueryTimeout)
	clinicRepo := mongodb.NewClinicRepo(db, cfg.Mongo.QueryTimeout)
	stockRepo := mongodb.NewStockRepo(db, cfg.Mongo.QueryTimeout)
	refdataRepo := mongodb.NewRefDataRepo(db, cfg.Mongo.QueryTimeout)
	userRepo := mongodb.NewUserRepo(db, cfg.Mongo.QueryTimeout)
	counterRepo := mongodb.NewCounterRepo(db, cfg.Mongo.QueryTimeout)
	auditRepo := mongodb.NewAuditRepo(db, cfg.Mongo.QueryTimeout)

	jwtManager := auth.NewJWTManager(cfg.JWT)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	otpSvc := service.NewOTPService(&notify.LogNotifier{Log: log}, cfg.OTP.TTL, cfg.OTP.Length, log)
	patientSvc := service.NewPatientService(patientRepo, presRepo, userRepo, counterRepo, store, listCache, collector, auditSvc, log)
	clinicSvc := service.NewClinicService(clinicRepo, stockRepo, log)
	refdataSvc := service.NewRefDataService(refdataRepo, log)

	router := v1.NewRouter(v1.RouterDeps{
		Auth:    v1.NewAuthHandler(authSvc, otpSvc),
		Patient: v1.NewPatientHandler(patientSvc),
		Clinic:  v1.NewClinicHandler(clinicSvc),
		RefData: v1.NewRefDataHandler(refdataSvc),
		JWT:     jwtManager,
		Metrics: collector,
		CORS:    cfg.CORS,
		Log:     log,
	})

	scheduler := jobs.NewScheduler(patientSvc, otpSvc, listCache, log)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
