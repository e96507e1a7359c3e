package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"lead_capture_backend/internal/bootstrap"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
)

const defaultBackfillLimit = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	limit := getPositiveIntEnv("BACKFILL_LIMIT", defaultBackfillLimit)
	log.Info("starting lead enrichment backfill", "limit", limit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize runtime", "error", err)
		panic("failed to initialize runtime: " + err.Error())
	}
	defer rt.Close()

	enriched, err := rt.Leads.Service().BackfillEnrichment(ctx, limit)
	if err != nil {
		log.Error("lead enrichment backfill failed", "error", err, "enriched", enriched)
		return
	}
	log.Info("lead enrichment backfill complete", "enriched", enriched)
}

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
