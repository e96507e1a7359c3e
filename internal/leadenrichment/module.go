// Package leadenrichment provides the composition root for company enrichment.
package leadenrichment

import (
	"lead_capture_backend/internal/leadenrichment/client"
	"lead_capture_backend/internal/leadenrichment/service"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"

	"github.com/redis/go-redis/v9"
)

// Module wires the lead enrichment service.
type Module struct {
	service *service.Service
}

// NewModule creates the enrichment gateway. With a Redis client provider hits
// are cached in Redis, otherwise in process memory.
func NewModule(cfg config.EnrichmentConfig, rdb *redis.Client, log *logger.Logger, m *metrics.Metrics) *Module {
	cli := client.New(cfg.GetApolloBaseURL(), cfg.GetApolloAPIKey(), nil, log)
	if !cli.Enabled() {
		log.Warn("APOLLO_API_KEY not set; company profiles will be synthesized")
	}

	var cache service.Cache
	if rdb != nil {
		cache = service.NewRedisCache(rdb, cfg.GetEnrichmentCacheTTL())
	} else {
		cache = service.NewMemoryCache(cfg.GetEnrichmentCacheTTL())
	}

	svc := service.New(cli, cache, cfg.GetEnrichmentTimeout(), log, m)
	return &Module{service: svc}
}

// Service returns the enrichment service.
func (m *Module) Service() *service.Service {
	return m.service
}
