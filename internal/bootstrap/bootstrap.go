// Package bootstrap builds the shared runtime used by the API, the worker and
// the maintenance commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lead_capture_backend/internal/adapters"
	"lead_capture_backend/internal/adapters/storage"
	"lead_capture_backend/internal/email"
	"lead_capture_backend/internal/events"
	"lead_capture_backend/internal/intelligence"
	"lead_capture_backend/internal/leadenrichment"
	"lead_capture_backend/internal/leads"
	"lead_capture_backend/internal/leads/locker"
	"lead_capture_backend/internal/leads/repository"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/db"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
	"lead_capture_backend/platform/redisclient"
	"lead_capture_backend/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	retryAttempts  = 5
	retryBaseDelay = 2 * time.Second
)

// Runtime holds the infrastructure and the leads module.
type Runtime struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Store    repository.Store
	Redis    *redis.Client
	EventBus *events.InMemoryBus
	Leads    *leads.Module

	closers []func()
}

// New connects storage, Redis and object storage and wires the leads module.
// Redis, MinIO and SMTP are optional; each is skipped when not configured.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
		EventBus: events.NewInMemoryBus(log),
	}
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rt.Metrics = metrics.New(rt.Registry)

	if err := rt.openStore(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.openRedis(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	var lk locker.Locker = locker.NewLocal()
	if rt.Redis != nil {
		lk = locker.NewRedis(rt.Redis, cfg.GetLeadLockTTL())
	}

	intelligenceModule, err := intelligence.NewModule(ctx, cfg, log, rt.Metrics)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("intelligence module: %w", err)
	}
	enrichmentModule := leadenrichment.NewModule(cfg, rt.Redis, log, rt.Metrics)

	leadsModule, err := leads.NewModule(
		rt.Store,
		lk,
		rt.EventBus,
		validator.New(),
		adapters.NewContextExtractorAdapter(intelligenceModule.Service()),
		adapters.NewLeadEnrichmentAdapter(enrichmentModule.Service()),
		cfg,
		log,
		rt.Metrics,
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("leads module: %w", err)
	}
	rt.Leads = leadsModule

	if err := rt.attachObjectStorage(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	if sender := email.NewSMTPSenderFromConfig(cfg); sender != nil {
		rt.Leads.SetFollowUpSender(sender)
	} else {
		log.Warn("SMTP_HOST not set; follow-up email is disabled")
	}

	return rt, nil
}

// Close waits for in-flight event handlers and releases connections.
func (rt *Runtime) Close() {
	rt.EventBus.Wait()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

func (rt *Runtime) openStore(ctx context.Context) error {
	cfg, log := rt.Config, rt.Logger

	switch cfg.GetStorageDriver() {
	case config.StorageDriverPostgres:
		if err := WithRetry(ctx, log, "database connection", retryAttempts, retryBaseDelay, func() error {
			pool, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return fmt.Errorf("migrate postgres: %w", err)
			}
			rt.closers = append(rt.closers, pool.Close)
			rt.Store = repository.NewPostgres(pool)
			return nil
		}); err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
	case config.StorageDriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.GetSQLitePath())
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, func() { _ = conn.Close() })
		if err := db.MigrateSQLite(ctx, conn); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		rt.Store = repository.NewSQLite(conn)
	default:
		log.Warn("using in-memory lead store; data is lost on restart")
		rt.Store = repository.NewMemory()
	}

	log.Info("lead store ready", "driver", cfg.GetStorageDriver())
	return nil
}

func (rt *Runtime) openRedis(ctx context.Context) error {
	if rt.Config.GetRedisURL() == "" {
		rt.Logger.Warn("REDIS_URL not set; using process-local locks and enrichment cache")
		return nil
	}

	return WithRetry(ctx, rt.Logger, "redis connection", retryAttempts, retryBaseDelay, func() error {
		client, err := redisclient.New(ctx, rt.Config)
		if err != nil {
			return err
		}
		rt.Redis = client
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		return nil
	})
}

func (rt *Runtime) attachObjectStorage(ctx context.Context) error {
	cfg := rt.Config
	if !cfg.IsMinIOEnabled() {
		rt.Logger.Warn("MINIO_ENDPOINT not set; audio and card image uploads are disabled")
		return nil
	}

	svc, err := storage.NewMinIOService(cfg)
	if err != nil {
		return err
	}
	attachments := adapters.NewLeadAttachmentStorage(svc,
		cfg.GetMinioBucketConversationAudio(),
		cfg.GetMinioBucketScanImages(),
	)
	if err := WithRetry(ctx, rt.Logger, "ensure storage buckets", retryAttempts, retryBaseDelay, func() error {
		return attachments.EnsureBuckets(ctx)
	}); err != nil {
		return fmt.Errorf("failed to ensure storage buckets exist: %w", err)
	}

	rt.Leads.SetObjectStorage(attachments)
	return nil
}

// WithRetry runs fn until it succeeds, backing off quadratically between attempts.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
