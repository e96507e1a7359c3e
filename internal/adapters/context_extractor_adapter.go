package adapters

import (
	"context"

	"lead_capture_backend/internal/intelligence/service"
	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/shared/normalize"
)

// ContextExtractorAdapter adapts the context extraction gateway for the leads domain.
type ContextExtractorAdapter struct {
	svc *service.Service
}

func NewContextExtractorAdapter(svc *service.Service) *ContextExtractorAdapter {
	return &ContextExtractorAdapter{svc: svc}
}

// ExtractContext converts the gateway's analysis into a context payload.
// Blank strings and unknown intents are treated as absent.
func (a *ContextExtractorAdapter) ExtractContext(ctx context.Context, transcript string) ports.ContextAnalysis {
	analysis := a.svc.ExtractContext(ctx, transcript)

	payload := domain.ContextPayload{
		ProductInterest: normalize.Text(&analysis.ProductInterest),
		Notes:           normalize.Text(&analysis.Notes),
		FollowUpMessage: normalize.Text(&analysis.FollowUpMessage),
		ConfidenceScore: normalize.Ptr(analysis.ConfidenceScore),
	}
	if intent, ok := domain.ParseIntent(analysis.Intent); ok {
		payload.Intent = &intent
	}

	return ports.ContextAnalysis{Payload: payload, Source: analysis.Source}
}

// Compile-time check.
var _ ports.ContextExtractor = (*ContextExtractorAdapter)(nil)
