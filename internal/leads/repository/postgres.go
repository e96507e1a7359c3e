// Package repository provides lead persistence backed by Postgres, SQLite or
// process memory.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lead_capture_backend/internal/leads/domain"
)

// DBTX is the subset of *pgxpool.Pool the Postgres store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Postgres struct {
	db DBTX
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *Postgres) Load(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanPostgresLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("load lead: %w", err)
	}
	return lead, nil
}

func (r *Postgres) Save(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			company = EXCLUDED.company,
			role = EXCLUDED.role,
			phone = EXCLUDED.phone,
			intent = EXCLUDED.intent,
			product_interest = EXCLUDED.product_interest,
			notes = EXCLUDED.notes,
			follow_up_message = EXCLUDED.follow_up_message,
			confidence_score = EXCLUDED.confidence_score,
			industry = EXCLUDED.industry,
			company_size = EXCLUDED.company_size,
			linkedin_url = EXCLUDED.linkedin_url,
			website = EXCLUDED.website,
			description = EXCLUDED.description,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`,
		lead.ID, lead.Name, lead.Email, lead.Company, lead.Role, lead.Phone,
		intentString(lead.Intent), lead.ProductInterest, lead.Notes, lead.FollowUpMessage, lead.ConfidenceScore,
		lead.Industry, lead.CompanySize, lead.LinkedInURL, lead.Website, lead.Description,
		string(lead.Source), lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("save lead: %w", err)
	}
	return lead, nil
}

func (r *Postgres) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE ($1::boolean = false OR industry IS NULL)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, params.MissingIndustry, params.limit(), params.offset())
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanPostgresLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

func (r *Postgres) CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversations (id, lead_id, audio_url, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.LeadID, c.AudioURL, c.Transcript, c.CreatedAt)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (r *Postgres) ListConversations(ctx context.Context, leadID uuid.UUID) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, audio_url, transcript, created_at
		FROM conversations WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Conversation, 0)
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.LeadID, &c.AudioURL, &c.Transcript, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func (r *Postgres) CreateEnrichment(ctx context.Context, e domain.Enrichment) (domain.Enrichment, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO enrichments (id, lead_id, provider, raw_payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.LeadID, e.Provider, e.RawPayload, string(e.Status), e.CreatedAt)
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("create enrichment: %w", err)
	}
	return e, nil
}

func (r *Postgres) ListEnrichments(ctx context.Context, leadID uuid.UUID) ([]domain.Enrichment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, provider, raw_payload, status, created_at
		FROM enrichments WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list enrichments: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Enrichment, 0)
	for rows.Next() {
		var (
			e      domain.Enrichment
			status string
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Provider, &e.RawPayload, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = domain.EnrichmentStatus(status)
		items = append(items, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func scanPostgresLead(row scanner) (domain.Lead, error) {
	var (
		lead   domain.Lead
		intent *string
		source string
	)
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Company, &lead.Role, &lead.Phone,
		&intent, &lead.ProductInterest, &lead.Notes, &lead.FollowUpMessage, &lead.ConfidenceScore,
		&lead.Industry, &lead.CompanySize, &lead.LinkedInURL, &lead.Website, &lead.Description,
		&source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Intent = intentPtr(intent)
	lead.Source = domain.Source(source)
	return lead, nil
}
