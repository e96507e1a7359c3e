package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"lead_capture_backend/internal/leads/domain"
)

var ErrNotFound = errors.New("lead not found")

// LeadStore persists lead records. Save inserts or fully replaces a lead.
type LeadStore interface {
	Load(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	Save(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, error)
	Ping(ctx context.Context) error
}

// ConversationStore records conversations held with a lead.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error)
	ListConversations(ctx context.Context, leadID uuid.UUID) ([]domain.Conversation, error)
}

// EnrichmentStore records company lookups made for a lead.
type EnrichmentStore interface {
	CreateEnrichment(ctx context.Context, e domain.Enrichment) (domain.Enrichment, error)
	ListEnrichments(ctx context.Context, leadID uuid.UUID) ([]domain.Enrichment, error)
}

// Store is the full persistence surface used by the leads service.
type Store interface {
	LeadStore
	ConversationStore
	EnrichmentStore
}

// ListParams filters List. Results are ordered newest first.
type ListParams struct {
	Limit           int
	Offset          int
	MissingIndustry bool
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (p ListParams) limit() int {
	switch {
	case p.Limit <= 0:
		return defaultListLimit
	case p.Limit > maxListLimit:
		return maxListLimit
	default:
		return p.Limit
	}
}

func (p ListParams) offset() int {
	return max(p.Offset, 0)
}

// Normalized returns p with the limit and offset the stores actually apply.
func (p ListParams) Normalized() ListParams {
	p.Limit = p.limit()
	p.Offset = p.offset()
	return p
}

// MaxListLimit is the largest page List returns.
const MaxListLimit = maxListLimit

const leadColumns = `id, name, email, company, role, phone,
	intent, product_interest, notes, follow_up_message, confidence_score,
	industry, company_size, linkedin_url, website, description,
	source, created_at, updated_at`

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func intentPtr(s *string) *domain.Intent {
	if s == nil {
		return nil
	}
	intent := domain.Intent(*s)
	return &intent
}

func intentString(i *domain.Intent) *string {
	if i == nil {
		return nil
	}
	s := string(*i)
	return &s
}
