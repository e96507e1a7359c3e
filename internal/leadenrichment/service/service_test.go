package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"lead_capture_backend/internal/leadenrichment/client"
	"lead_capture_backend/platform/logger"
)

type fakeProvider struct {
	enabled bool
	org     *client.Organization
	err     error
	delay   time.Duration
	calls   atomic.Int32
	gotName string
}

func (f *fakeProvider) Enabled() bool { return f.enabled }

func (f *fakeProvider) EnrichByDomain(ctx context.Context, _ string) (*client.Organization, error) {
	return f.respond(ctx)
}

func (f *fakeProvider) SearchByName(ctx context.Context, name string) (*client.Organization, error) {
	f.gotName = name
	return f.respond(ctx)
}

func (f *fakeProvider) respond(ctx context.Context) (*client.Organization, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.org, f.err
}

func ptr[T any](v T) *T { return &v }

func employees(n float64) *client.FlexNumber {
	f := client.FlexNumber(n)
	return &f
}

func newService(p Provider, cache Cache, timeout time.Duration) *Service {
	return New(p, cache, timeout, logger.New("test"), nil)
}

func TestEnrichWithoutInput(t *testing.T) {
	svc := newService(&fakeProvider{enabled: true}, nil, time.Second)
	if _, err := svc.Enrich(context.Background(), nil, nil); !errors.Is(err, ErrNoLookupKey) {
		t.Fatalf("expected ErrNoLookupKey, got %v", err)
	}
	if _, err := svc.Enrich(context.Background(), ptr("  "), ptr("")); !errors.Is(err, ErrNoLookupKey) {
		t.Fatalf("blank input should count as absent, got %v", err)
	}
}

func TestEnrichUnreachableProviderSynthesizes(t *testing.T) {
	p := &fakeProvider{enabled: true, err: errors.New("dial tcp: connection refused")}
	got, err := newService(p, nil, time.Second).Enrich(context.Background(), ptr("a@bigbank.com"), nil)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if got.Provenance != ProvenanceSynthesized {
		t.Fatalf("expected synthesized profile, got %q", got.Provenance)
	}
	if *got.Industry != "Financial Services" || *got.CompanySize != "1000+" {
		t.Fatalf("unexpected background %s / %s", *got.Industry, *got.CompanySize)
	}
	if *got.Website != "https://bigbank.com" || got.Name != "bigbank" {
		t.Fatalf("unexpected synthesis %+v", got)
	}
	if *got.LinkedInURL != "https://linkedin.com/company/bigbank" || *got.Description != "bigbank - Financial Services company" {
		t.Fatalf("unexpected derived fields %+v", got)
	}
}

func TestSynthesizeKeywordTable(t *testing.T) {
	cases := []struct {
		domain   string
		industry string
		size     string
	}{
		{"firstfinance.io", "Financial Services", "1000+"},
		{"cityhealth.org", "Healthcare", "201-1000"},
		{"medicalgroup.com", "Healthcare", "201-1000"},
		{"state.edu", "Education", "1000+"},
		{"acme.com", "Technology", "51-200"},
	}
	for _, tc := range cases {
		got := Synthesize(ptr(tc.domain), nil)
		if *got.Industry != tc.industry || *got.CompanySize != tc.size {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.domain, *got.Industry, *got.CompanySize, tc.industry, tc.size)
		}
	}

	byName := Synthesize(nil, ptr("Acme Widgets"))
	if byName.Website != nil || *byName.Industry != "Technology" {
		t.Fatalf("company-only synthesis should have no website, got %+v", byName)
	}
	if *byName.LinkedInURL != "https://linkedin.com/company/acme-widgets" {
		t.Fatalf("unexpected linkedin %q", *byName.LinkedInURL)
	}
}

func TestEnrichProviderHitIsNotMixed(t *testing.T) {
	p := &fakeProvider{enabled: true, org: &client.Organization{
		Name:                  "Acme Corp",
		Industry:              "Computer Software",
		EstimatedNumEmployees: employees(120),
	}}
	got, err := newService(p, nil, time.Second).Enrich(context.Background(), ptr("jane@acme.com"), nil)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if got.Provenance != ProvenanceApollo || *got.Industry != "Computer Software" || *got.CompanySize != "51-200" {
		t.Fatalf("unexpected profile %+v", got)
	}
	if got.Website != nil || got.LinkedInURL != nil || got.Description != nil {
		t.Fatalf("provider profile must not be padded with synthesized fields: %+v", got)
	}
}

func TestEnrichZeroEmployeesIsUnknown(t *testing.T) {
	p := &fakeProvider{enabled: true, org: &client.Organization{Name: "Tiny", EstimatedNumEmployees: employees(0)}}
	got, _ := newService(p, nil, time.Second).Enrich(context.Background(), nil, ptr("Tiny"))
	if got.CompanySize != nil {
		t.Fatalf("expected unknown size, got %q", *got.CompanySize)
	}
	if p.gotName != "Tiny" {
		t.Fatalf("expected search by name, got %q", p.gotName)
	}
}

func TestEnrichEmptyResultAndMissingKey(t *testing.T) {
	empty := &fakeProvider{enabled: true}
	got, _ := newService(empty, nil, time.Second).Enrich(context.Background(), nil, ptr("Nobody"))
	if got.Provenance != ProvenanceSynthesized || got.Name != "Nobody" {
		t.Fatalf("empty result should synthesize, got %+v", got)
	}

	disabled := &fakeProvider{enabled: false}
	got, _ = newService(disabled, nil, time.Second).Enrich(context.Background(), ptr("x@cityhealth.org"), nil)
	if got.Provenance != ProvenanceSynthesized || disabled.calls.Load() != 0 {
		t.Fatalf("missing key must not call provider, got %+v", got)
	}
}

func TestEnrichTimeoutSynthesizes(t *testing.T) {
	p := &fakeProvider{enabled: true, delay: time.Second, org: &client.Organization{Name: "Late"}}
	got, _ := newService(p, nil, 30*time.Millisecond).Enrich(context.Background(), ptr("a@late.com"), nil)
	if got.Provenance != ProvenanceSynthesized {
		t.Fatalf("expected timeout fallback, got %+v", got)
	}
}

func TestEnrichCachesProviderHitsOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := NewRedisCache(rdb, time.Hour)

	hit := &fakeProvider{enabled: true, org: &client.Organization{Name: "Acme", Industry: "Retail"}}
	svc := newService(hit, cache, time.Second)
	for i := 0; i < 3; i++ {
		if _, err := svc.Enrich(context.Background(), ptr("jane@acme.com"), nil); err != nil {
			t.Fatalf("enrich: %v", err)
		}
	}
	if hit.calls.Load() != 1 {
		t.Fatalf("expected one provider call, got %d", hit.calls.Load())
	}
	if !mr.Exists(cacheKeyPrefix + "domain:acme.com") {
		t.Fatalf("expected cache entry")
	}

	failing := &fakeProvider{enabled: true, err: errors.New("boom")}
	svc = newService(failing, cache, time.Second)
	_, _ = svc.Enrich(context.Background(), ptr("jane@broken.com"), nil)
	if mr.Exists(cacheKeyPrefix + "domain:broken.com") {
		t.Fatalf("synthesized profiles must not be cached")
	}
}

func TestEnrichDeduplicatesConcurrentLookups(t *testing.T) {
	p := &fakeProvider{enabled: true, delay: 50 * time.Millisecond, org: &client.Organization{Name: "Acme", Industry: "Retail"}}
	svc := newService(p, NewMemoryCache(time.Hour), time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Enrich(context.Background(), ptr("x@acme.com"), nil)
		}()
	}
	wg.Wait()

	if p.calls.Load() != 1 {
		t.Fatalf("expected a single provider call, got %d", p.calls.Load())
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(context.Background(), "k", Profile{Name: "Acme"})

	if _, ok := c.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected fresh entry")
	}
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatalf("expected expired entry")
	}
}

func TestMemoryCacheSweepsExpiredEntriesOnSet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.lastSweep = now
	c.Set(context.Background(), "a", Profile{Name: "A"})
	c.Set(context.Background(), "b", Profile{Name: "B"})

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	c.Set(context.Background(), "c", Profile{Name: "C"})

	if len(c.entries) != 1 {
		t.Fatalf("expected expired entries to be swept, have %d", len(c.entries))
	}
	if _, ok := c.Get(context.Background(), "c"); !ok {
		t.Fatalf("expected fresh entry to survive the sweep")
	}
}

func TestMemoryCacheEvictsOldestWhenFull(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	c.maxEntries = 2
	now := time.Now()
	c.lastSweep = now
	for i, key := range []string{"a", "b", "c"} {
		at := now.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return at }
		c.Set(context.Background(), key, Profile{Name: key})
	}

	if len(c.entries) != 2 {
		t.Fatalf("expected cache capped at 2 entries, have %d", len(c.entries))
	}
	if _, ok := c.Get(context.Background(), "a"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := c.Get(context.Background(), "c"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}
