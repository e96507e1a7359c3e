package service

import (
	"encoding/json"

	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/leads/transport"
	"lead_capture_backend/internal/shared/normalize"
	"lead_capture_backend/platform/phone"
	"lead_capture_backend/platform/sanitize"
)

// ToLeadResponse converts a domain lead to its API shape.
func ToLeadResponse(lead domain.Lead) transport.LeadResponse {
	var intent *string
	if lead.Intent != nil {
		v := string(*lead.Intent)
		intent = &v
	}
	return transport.LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Email:           lead.Email,
		Company:         lead.Company,
		Role:            lead.Role,
		Phone:           lead.Phone,
		Intent:          intent,
		ProductInterest: lead.ProductInterest,
		Notes:           lead.Notes,
		FollowUpMessage: lead.FollowUpMessage,
		ConfidenceScore: lead.ConfidenceScore,
		Industry:        lead.Industry,
		CompanySize:     lead.CompanySize,
		LinkedInURL:     lead.LinkedInURL,
		Website:         lead.Website,
		Description:     lead.Description,
		Source:          string(lead.Source),
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func toConversationResponse(c domain.Conversation) transport.ConversationResponse {
	return transport.ConversationResponse{
		ID:         c.ID,
		LeadID:     c.LeadID,
		AudioURL:   c.AudioURL,
		Transcript: c.Transcript,
		CreatedAt:  c.CreatedAt,
	}
}

func toEnrichmentResponse(e domain.Enrichment) transport.EnrichmentResponse {
	raw := json.RawMessage(e.RawPayload)
	if !json.Valid(raw) {
		raw = json.RawMessage("null")
	}
	return transport.EnrichmentResponse{
		ID:         e.ID,
		LeadID:     e.LeadID,
		Provider:   e.Provider,
		RawPayload: raw,
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
	}
}

func toDetailResponse(detail domain.LeadDetail) transport.LeadDetailResponse {
	resp := transport.LeadDetailResponse{
		LeadResponse:  ToLeadResponse(detail.Lead),
		Conversations: make([]transport.ConversationResponse, 0, len(detail.Conversations)),
		Enrichments:   make([]transport.EnrichmentResponse, 0, len(detail.Enrichments)),
	}
	for _, c := range detail.Conversations {
		resp.Conversations = append(resp.Conversations, toConversationResponse(c))
	}
	for _, e := range detail.Enrichments {
		resp.Enrichments = append(resp.Enrichments, toEnrichmentResponse(e))
	}
	return resp
}

func toAnalysisResponse(a ports.ContextAnalysis) transport.ContextAnalysisResponse {
	var intent *string
	if a.Payload.Intent != nil {
		v := string(*a.Payload.Intent)
		intent = &v
	}
	return transport.ContextAnalysisResponse{
		Intent:          intent,
		ProductInterest: a.Payload.ProductInterest,
		Notes:           a.Payload.Notes,
		FollowUpMessage: a.Payload.FollowUpMessage,
		ConfidenceScore: a.Payload.ConfidenceScore,
		Source:          a.Source,
	}
}

func toScanRequest(p domain.ScanPayload) transport.ScanRequest {
	return transport.ScanRequest{
		Name:    p.Name,
		Email:   p.Email,
		Company: p.Company,
		Role:    p.Role,
		Phone:   p.Phone,
	}
}

// scanPayload cleans a structured scan. Blank fields become absent.
func scanPayload(req transport.ScanRequest, region string) domain.ScanPayload {
	return domain.ScanPayload{
		Name:    line(req.Name),
		Email:   line(req.Email),
		Company: line(req.Company),
		Role:    line(req.Role),
		Phone:   phoneNumber(req.Phone, region),
	}
}

func leadEdit(req transport.UpdateLeadRequest, region string) domain.LeadEdit {
	edit := domain.LeadEdit{
		Name:            line(req.Name),
		Email:           line(req.Email),
		Company:         line(req.Company),
		Role:            line(req.Role),
		Phone:           phoneNumber(req.Phone, region),
		ProductInterest: line(req.ProductInterest),
		Notes:           text(req.Notes),
		FollowUpMessage: text(req.FollowUpMessage),
		ConfidenceScore: req.ConfidenceScore,
		Industry:        line(req.Industry),
		CompanySize:     line(req.CompanySize),
		LinkedInURL:     line(req.LinkedInURL),
		Website:         line(req.Website),
		Description:     text(req.Description),
	}
	if req.Intent != nil {
		if intent, ok := domain.ParseIntent(*req.Intent); ok {
			edit.Intent = &intent
		}
	}
	return edit
}

func line(s *string) *string {
	return normalize.Text(sanitize.LinePtr(s))
}

func text(s *string) *string {
	return normalize.Text(sanitize.TextPtr(s))
}

func phoneNumber(s *string, region string) *string {
	cleaned := line(s)
	if cleaned == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*cleaned, region)
	return &normalized
}
