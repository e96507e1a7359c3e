package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveGateway("context", "model", time.Now())
	m.RecordFallback("context", "timeout")
	m.RecordFallback("context", "timeout")
	m.RecordCache(true)
	m.RecordMerge("both")
	m.RecordEvent("leads.lead.created")

	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("context", "model")); got != 1 {
		t.Errorf("calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GatewayFallbacksTotal.WithLabelValues("context", "timeout")); got != 2 {
		t.Errorf("fallbacks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EnrichmentCacheTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MergesTotal.WithLabelValues("both")); got != 1 {
		t.Errorf("merges = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.EventsTotal.WithLabelValues("leads.lead.created")); got != 1 {
		t.Errorf("events = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGateway("enrichment", "apollo", time.Now())
	m.RecordFallback("enrichment", "error")
	m.RecordCache(false)
	m.RecordMerge("scan")
	m.RecordEvent("leads.lead.enriched")
}
