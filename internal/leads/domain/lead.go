// Package domain holds the lead model and the partial-update payloads merged
// into it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Intent is the sales temperature derived from a conversation.
type Intent string

const (
	IntentHot  Intent = "Hot"
	IntentWarm Intent = "Warm"
	IntentCold Intent = "Cold"
)

// ParseIntent returns the intent for s and whether s is a known value.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentHot, IntentWarm, IntentCold:
		return Intent(s), true
	}
	return "", false
}

// Source records which capture streams have contributed to a lead.
type Source string

const (
	SourceScan  Source = "scan"
	SourceVoice Source = "voice"
	SourceBoth  Source = "both"
)

const (
	MinConfidence = 0
	MaxConfidence = 100

	// InitialConfidence is the score a lead carries before any conversation.
	InitialConfidence = 50
)

// Lead is the canonical record for a prospective customer contact.
// Every attribute except the metadata is optional; nil means unset.
type Lead struct {
	ID uuid.UUID

	// Identity, from scans.
	Name    *string
	Email   *string
	Company *string
	Role    *string
	Phone   *string

	// Intelligence, from conversations.
	Intent          *Intent
	ProductInterest *string
	Notes           *string
	FollowUpMessage *string
	ConfidenceScore *int

	// Background, from enrichment. Company size is always a bucket.
	Industry    *string
	CompanySize *string
	LinkedInURL *string
	Website     *string
	Description *string

	Source    Source
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLead creates an identity-less lead with a fresh id.
func NewLead(now time.Time) Lead {
	confidence := InitialConfidence
	return Lead{
		ID:              uuid.New(),
		ConfidenceScore: &confidence,
		Source:          SourceScan,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Conversation is a recorded exchange with a lead.
type Conversation struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	AudioURL   *string
	Transcript string
	CreatedAt  time.Time
}

// EnrichmentStatus reports how an enrichment record was produced.
type EnrichmentStatus string

const (
	EnrichmentStatusSuccess     EnrichmentStatus = "success"
	EnrichmentStatusSynthesized EnrichmentStatus = "synthesized"
)

// Enrichment is the stored outcome of one company lookup. RawPayload holds
// the full company profile as JSON.
type Enrichment struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Provider   string
	RawPayload []byte
	Status     EnrichmentStatus
	CreatedAt  time.Time
}

// LeadDetail is a lead with its related records, newest first.
type LeadDetail struct {
	Lead          Lead
	Conversations []Conversation
	Enrichments   []Enrichment
}
