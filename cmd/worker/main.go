package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lead_capture_backend/internal/adapters"
	"lead_capture_backend/internal/bootstrap"
	"lead_capture_backend/internal/scheduler"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	if !cfg.IsBackgroundEnrichmentEnabled() {
		log.Error("enrichment worker needs REDIS_URL and a postgres or sqlite lead store", "storageDriver", cfg.GetStorageDriver())
		os.Exit(1)
	}
	log.Info("starting enrichment worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize runtime", "error", err)
		panic("failed to initialize runtime: " + err.Error())
	}
	defer rt.Close()

	worker, err := scheduler.NewWorker(cfg, adapters.NewLeadEnrichmentJob(rt.Leads.Service()), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("enrichment worker stopped")
}
