package domain

// ScanPayload carries identity fields captured from a badge, card or QR code.
// A nil field means the scan had no opinion about it.
type ScanPayload struct {
	Name    *string
	Email   *string
	Company *string
	Role    *string
	Phone   *string
}

// HasIdentity reports whether the scan names the person, by name or email.
func (p *ScanPayload) HasIdentity() bool {
	return p != nil && (p.Name != nil || p.Email != nil)
}

// ContextPayload carries the intelligence derived from a transcript.
type ContextPayload struct {
	Intent          *Intent
	ProductInterest *string
	Notes           *string
	FollowUpMessage *string
	ConfidenceScore *int
}

// HasAny reports whether at least one field is present.
func (p *ContextPayload) HasAny() bool {
	return p != nil && (p.Intent != nil ||
		p.ProductInterest != nil ||
		p.Notes != nil ||
		p.FollowUpMessage != nil ||
		p.ConfidenceScore != nil)
}

// EnrichmentPayload carries the company background that may be merged into
// a lead. Industry and company size are the only fields enrichment sets.
type EnrichmentPayload struct {
	Industry    *string
	CompanySize *string
}

// LeadEdit is a hand edit by a user. It may touch any attribute except the
// id, source and creation time.
type LeadEdit struct {
	Name    *string
	Email   *string
	Company *string
	Role    *string
	Phone   *string

	Intent          *Intent
	ProductInterest *string
	Notes           *string
	FollowUpMessage *string
	ConfidenceScore *int

	Industry    *string
	CompanySize *string
	LinkedInURL *string
	Website     *string
	Description *string
}
