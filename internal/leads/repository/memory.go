package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"lead_capture_backend/internal/leads/domain"
)

// Memory is a process-local Store for development and tests. Values are
// copied on the way in and out so callers never share state with the store.
type Memory struct {
	mu            sync.RWMutex
	leads         map[uuid.UUID]domain.Lead
	conversations map[uuid.UUID][]domain.Conversation
	enrichments   map[uuid.UUID][]domain.Enrichment
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		leads:         make(map[uuid.UUID]domain.Lead),
		conversations: make(map[uuid.UUID][]domain.Conversation),
		enrichments:   make(map[uuid.UUID][]domain.Enrichment),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Load(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *Memory) Save(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, ok := m.leads[lead.ID]; ok {
		lead.CreatedAt = prior.CreatedAt
	}
	m.leads[lead.ID] = cloneLead(lead)
	return cloneLead(lead), nil
}

func (m *Memory) List(_ context.Context, params ListParams) ([]domain.Lead, error) {
	m.mu.RLock()
	leads := make([]domain.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		if params.MissingIndustry && lead.Industry != nil {
			continue
		}
		leads = append(leads, cloneLead(lead))
	}
	m.mu.RUnlock()

	slices.SortFunc(leads, func(a, b domain.Lead) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	offset := min(params.offset(), len(leads))
	end := min(offset+params.limit(), len(leads))
	return leads[offset:end], nil
}

func (m *Memory) CreateConversation(_ context.Context, c domain.Conversation) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[c.LeadID]; !ok {
		return domain.Conversation{}, ErrNotFound
	}
	c.AudioURL = clonePtr(c.AudioURL)
	m.conversations[c.LeadID] = append(m.conversations[c.LeadID], c)
	return c, nil
}

func (m *Memory) ListConversations(_ context.Context, leadID uuid.UUID) ([]domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.conversations[leadID]
	items := make([]domain.Conversation, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		c := stored[i]
		c.AudioURL = clonePtr(c.AudioURL)
		items = append(items, c)
	}
	return items, nil
}

func (m *Memory) CreateEnrichment(_ context.Context, e domain.Enrichment) (domain.Enrichment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[e.LeadID]; !ok {
		return domain.Enrichment{}, ErrNotFound
	}
	e.RawPayload = slices.Clone(e.RawPayload)
	m.enrichments[e.LeadID] = append(m.enrichments[e.LeadID], e)
	return e, nil
}

func (m *Memory) ListEnrichments(_ context.Context, leadID uuid.UUID) ([]domain.Enrichment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.enrichments[leadID]
	items := make([]domain.Enrichment, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		e := stored[i]
		e.RawPayload = slices.Clone(e.RawPayload)
		items = append(items, e)
	}
	return items, nil
}

func cloneLead(l domain.Lead) domain.Lead {
	l.Name = clonePtr(l.Name)
	l.Email = clonePtr(l.Email)
	l.Company = clonePtr(l.Company)
	l.Role = clonePtr(l.Role)
	l.Phone = clonePtr(l.Phone)
	l.Intent = clonePtr(l.Intent)
	l.ProductInterest = clonePtr(l.ProductInterest)
	l.Notes = clonePtr(l.Notes)
	l.FollowUpMessage = clonePtr(l.FollowUpMessage)
	l.ConfidenceScore = clonePtr(l.ConfidenceScore)
	l.Industry = clonePtr(l.Industry)
	l.CompanySize = clonePtr(l.CompanySize)
	l.LinkedInURL = clonePtr(l.LinkedInURL)
	l.Website = clonePtr(l.Website)
	l.Description = clonePtr(l.Description)
	return l
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
