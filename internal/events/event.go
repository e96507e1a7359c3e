// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"lead_capture_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a lead is created from a scan.
type LeadCreated struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Email   *string   `json:"email,omitempty"`
	Company *string   `json:"company,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadReconciled is published after any merge or edit persisted a lead.
type LeadReconciled struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"`
	Cause  string    `json:"cause"`
}

func (e LeadReconciled) EventName() string { return "leads.lead.reconciled" }

// ConversationRecorded is published when a conversation has been merged and stored.
type ConversationRecorded struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	AnalysisSource string    `json:"analysisSource"`
}

func (e ConversationRecorded) EventName() string { return "leads.conversation.recorded" }

// LeadEnriched is published when a company profile has been merged into a lead.
type LeadEnriched struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Provenance string    `json:"provenance"`
}

func (e LeadEnriched) EventName() string { return "leads.lead.enriched" }

// Merge causes carried by LeadReconciled.
const (
	CauseScan         = "scan"
	CauseConversation = "conversation"
	CauseEnrichment   = "enrichment"
	CauseEdit         = "edit"
)
