// Package service resolves company profiles for leads. Provider lookups that
// fail or come back empty are replaced by a deterministic synthesis, so a
// profile is always either entirely provider data or entirely synthesized.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"lead_capture_backend/internal/leadenrichment/client"
	"lead_capture_backend/internal/shared/normalize"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
)

const (
	ProvenanceApollo      = "apollo"
	ProvenanceSynthesized = "synthesized"

	gatewayName    = "enrichment"
	defaultTimeout = 10 * time.Second
)

// ErrNoLookupKey is returned when neither an email nor a company was supplied.
var ErrNoLookupKey = errors.New("enrichment requires an email or a company")

// Profile is the canonical company profile.
type Profile struct {
	Name        string  `json:"name"`
	Domain      *string `json:"domain,omitempty"`
	Industry    *string `json:"industry,omitempty"`
	CompanySize *string `json:"company_size,omitempty"`
	LinkedInURL *string `json:"linkedin_url,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`
	Provenance  string  `json:"provenance"`
}

// Provider is the company-data lookup the service falls back from.
type Provider interface {
	Enabled() bool
	EnrichByDomain(ctx context.Context, domain string) (*client.Organization, error)
	SearchByName(ctx context.Context, name string) (*client.Organization, error)
}

// Service handles enrichment lookups with caching and fallback.
type Service struct {
	provider Provider
	cache    Cache
	group    singleflight.Group
	timeout  time.Duration
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New creates the gateway. cache may be nil.
func New(provider Provider, cache Cache, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		log:      log,
		metrics:  m,
	}
}

type lookup struct {
	key    string
	domain *string
	name   *string
}

// Enrich resolves a profile by the email's domain, else by company name.
// It fails only with ErrNoLookupKey.
func (s *Service) Enrich(ctx context.Context, email, company *string) (Profile, error) {
	company = normalize.Text(company)
	domain := normalize.Domain(normalize.Text(email))

	var l lookup
	switch {
	case domain != nil:
		l = lookup{key: "domain:" + *domain, domain: domain, name: company}
	case company != nil:
		l = lookup{key: "name:" + strings.ToLower(*company), name: company}
	default:
		return Profile{}, ErrNoLookupKey
	}

	// The synthesis fallback depends on the company too.
	flightKey := l.key
	if company != nil {
		flightKey += "|" + strings.ToLower(*company)
	}
	v, _, _ := s.group.Do(flightKey, func() (any, error) {
		return s.resolve(context.WithoutCancel(ctx), l), nil
	})
	return v.(Profile), nil
}

func (s *Service) resolve(ctx context.Context, l lookup) Profile {
	started := time.Now()

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, l.key); ok {
			s.metrics.RecordCache(true)
			s.metrics.ObserveGateway(gatewayName, cached.Provenance, started)
			return cached
		}
		s.metrics.RecordCache(false)
	}

	if s.provider == nil || !s.provider.Enabled() {
		return s.fallback(l, "not_configured", nil, started)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		org *client.Organization
		err error
	)
	if l.domain != nil {
		org, err = s.provider.EnrichByDomain(callCtx, *l.domain)
	} else {
		org, err = s.provider.SearchByName(callCtx, *l.name)
	}

	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return s.fallback(l, "timeout", err, started)
	case err != nil:
		return s.fallback(l, "error", err, started)
	case isEmpty(org):
		return s.fallback(l, "empty", nil, started)
	}

	profile := fromOrganization(org, l)
	if s.cache != nil {
		s.cache.Set(ctx, l.key, profile)
	}
	s.metrics.ObserveGateway(gatewayName, ProvenanceApollo, started)
	return profile
}

func (s *Service) fallback(l lookup, reason string, err error, started time.Time) Profile {
	if s.log != nil {
		s.log.GatewayFallback(gatewayName, reason, err)
	}
	s.metrics.RecordFallback(gatewayName, reason)
	s.metrics.ObserveGateway(gatewayName, ProvenanceSynthesized, started)
	return Synthesize(l.domain, l.name)
}

func isEmpty(org *client.Organization) bool {
	return org == nil || (strings.TrimSpace(org.Name) == "" &&
		strings.TrimSpace(org.Industry) == "" &&
		org.EstimatedNumEmployees.ToIntPtr() == nil &&
		strings.TrimSpace(org.WebsiteURL) == "")
}

func fromOrganization(org *client.Organization, l lookup) Profile {
	name := strings.TrimSpace(org.Name)
	if name == "" && l.name != nil {
		name = *l.name
	}

	domain := l.domain
	if domain == nil {
		domain = normalize.Text(normalize.Ptr(strings.ToLower(org.PrimaryDomain)))
	}

	return Profile{
		Name:        name,
		Domain:      domain,
		Industry:    normalize.Text(&org.Industry),
		CompanySize: normalize.CompanySize(org.EstimatedNumEmployees.ToIntPtr()),
		LinkedInURL: normalize.Text(&org.LinkedInURL),
		Website:     normalize.Text(&org.WebsiteURL),
		Description: normalize.Text(&org.ShortDescription),
		Provenance:  ProvenanceApollo,
	}
}
