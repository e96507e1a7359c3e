// Package metrics holds the Prometheus instruments shared by the lead
// capture pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for gateways and reconciliation.
type Metrics struct {
	GatewayCallsTotal     *prometheus.CounterVec
	GatewayFallbacksTotal *prometheus.CounterVec
	GatewaySeconds        *prometheus.HistogramVec
	EnrichmentCacheTotal  *prometheus.CounterVec
	MergesTotal           *prometheus.CounterVec
	EventsTotal           *prometheus.CounterVec
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		GatewayCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_gateway_calls_total",
				Help: "Gateway calls by gateway and result source",
			},
			[]string{"gateway", "source"},
		),
		GatewayFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_gateway_fallbacks_total",
				Help: "Gateway calls that fell back to the local strategy",
			},
			[]string{"gateway", "reason"},
		),
		GatewaySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lead_gateway_seconds",
				Help:    "Gateway latency including fallback",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"gateway"},
		),
		EnrichmentCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_enrichment_cache_total",
				Help: "Enrichment cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		MergesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_merges_total",
				Help: "Reconciliation merges by resulting source",
			},
			[]string{"source"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_events_total",
				Help: "Lead domain events handled, by event name",
			},
			[]string{"event"},
		),
	}
}

// ObserveGateway records one completed gateway call.
func (m *Metrics) ObserveGateway(gateway, source string, started time.Time) {
	if m == nil {
		return
	}
	m.GatewayCallsTotal.WithLabelValues(gateway, source).Inc()
	m.GatewaySeconds.WithLabelValues(gateway).Observe(time.Since(started).Seconds())
}

// RecordFallback counts a fallback with a short reason such as "timeout".
func (m *Metrics) RecordFallback(gateway, reason string) {
	if m == nil {
		return
	}
	m.GatewayFallbacksTotal.WithLabelValues(gateway, reason).Inc()
}

// RecordCache counts a cache "hit" or "miss".
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.EnrichmentCacheTotal.WithLabelValues(outcome).Inc()
}

// RecordMerge counts a merge by the lead's resulting source.
func (m *Metrics) RecordMerge(source string) {
	if m == nil {
		return
	}
	m.MergesTotal.WithLabelValues(source).Inc()
}

// RecordEvent counts a handled domain event.
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(name).Inc()
}
