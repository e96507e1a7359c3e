package adapters

import (
	"context"

	"lead_capture_backend/internal/leads/service"
	"lead_capture_backend/internal/scheduler"

	"github.com/google/uuid"
)

// LeadEnrichmentJob runs background enrichment through the leads service.
type LeadEnrichmentJob struct {
	svc *service.Service
}

// NewLeadEnrichmentJob creates the worker-side enrichment adapter.
func NewLeadEnrichmentJob(svc *service.Service) *LeadEnrichmentJob {
	return &LeadEnrichmentJob{svc: svc}
}

// EnrichLead enriches a stored lead, discarding the response body.
func (j *LeadEnrichmentJob) EnrichLead(ctx context.Context, leadID uuid.UUID) error {
	_, err := j.svc.EnrichLead(ctx, leadID)
	return err
}

var _ scheduler.LeadEnricher = (*LeadEnrichmentJob)(nil)
