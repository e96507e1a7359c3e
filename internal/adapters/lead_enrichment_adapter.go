package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lead_capture_backend/internal/leadenrichment/service"
	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/leads/ports"
)

// LeadEnrichmentAdapter adapts the company enrichment gateway for the leads domain.
type LeadEnrichmentAdapter struct {
	svc *service.Service
}

// NewLeadEnrichmentAdapter creates a new adapter that wraps the enrichment service.
func NewLeadEnrichmentAdapter(svc *service.Service) *LeadEnrichmentAdapter {
	return &LeadEnrichmentAdapter{svc: svc}
}

// EnrichCompany resolves a company profile and keeps only the fields a merge may set.
func (a *LeadEnrichmentAdapter) EnrichCompany(ctx context.Context, email, company *string) (ports.CompanyEnrichment, error) {
	profile, err := a.svc.Enrich(ctx, email, company)
	if err != nil {
		if errors.Is(err, service.ErrNoLookupKey) {
			return ports.CompanyEnrichment{}, ports.ErrNoLookupKey
		}
		return ports.CompanyEnrichment{}, err
	}
	return toCompanyEnrichment(profile)
}

func toCompanyEnrichment(profile service.Profile) (ports.CompanyEnrichment, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return ports.CompanyEnrichment{}, fmt.Errorf("encode profile: %w", err)
	}

	status := domain.EnrichmentStatusSuccess
	if profile.Provenance == service.ProvenanceSynthesized {
		status = domain.EnrichmentStatusSynthesized
	}

	return ports.CompanyEnrichment{
		Payload: domain.EnrichmentPayload{
			Industry:    profile.Industry,
			CompanySize: profile.CompanySize,
		},
		Provenance: profile.Provenance,
		Status:     status,
		RawProfile: raw,
	}, nil
}

// Compile-time check.
var _ ports.CompanyEnricher = (*LeadEnrichmentAdapter)(nil)
