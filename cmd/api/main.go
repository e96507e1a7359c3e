package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_capture_backend/internal/bootstrap"
	apphttp "lead_capture_backend/internal/http"
	"lead_capture_backend/internal/http/router"
	"lead_capture_backend/internal/scheduler"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	rt, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize runtime", "error", err)
		panic("failed to initialize runtime: " + err.Error())
	}
	defer rt.Close()

	enrichmentScheduler, closeScheduler := initEnrichmentScheduler(cfg, log)
	defer closeScheduler()
	if enrichmentScheduler != nil {
		rt.Leads.SetEnrichmentScheduler(enrichmentScheduler)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   rt.Store,
		Metrics:  rt.Registry,
		EventBus: rt.EventBus,
		Modules:  []apphttp.Module{rt.Leads},
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

type enrichmentSchedulerConfig interface {
	config.SchedulerConfig
	GetStorageDriver() string
	IsBackgroundEnrichmentEnabled() bool
}

// initEnrichmentScheduler returns nil when Redis is not configured or leads live
// in the process-local memory store; new leads are then only enriched on request.
func initEnrichmentScheduler(cfg enrichmentSchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not set; background enrichment is disabled")
		return nil, func() {}
	}
	if !cfg.IsBackgroundEnrichmentEnabled() {
		log.Warn("background enrichment needs a shared lead store; disabled", "storageDriver", cfg.GetStorageDriver())
		return nil, func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize enrichment scheduler", "error", err)
		return nil, func() {}
	}

	return client, func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close enrichment scheduler", "error", err)
		}
	}
}
