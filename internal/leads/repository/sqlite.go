package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lead_capture_backend/internal/leads/domain"
)

// SQLite stores leads in an embedded database opened with platform/db.
// Timestamps are stored as fixed-width RFC 3339 text in UTC so that text
// ordering matches time ordering.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (r *SQLite) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLite) Load(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id.String())
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("load lead: %w", err)
	}
	return lead, nil
}

func (r *SQLite) Save(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			company = excluded.company,
			role = excluded.role,
			phone = excluded.phone,
			intent = excluded.intent,
			product_interest = excluded.product_interest,
			notes = excluded.notes,
			follow_up_message = excluded.follow_up_message,
			confidence_score = excluded.confidence_score,
			industry = excluded.industry,
			company_size = excluded.company_size,
			linkedin_url = excluded.linkedin_url,
			website = excluded.website,
			description = excluded.description,
			source = excluded.source,
			updated_at = excluded.updated_at
	`,
		lead.ID.String(), lead.Name, lead.Email, lead.Company, lead.Role, lead.Phone,
		intentString(lead.Intent), lead.ProductInterest, lead.Notes, lead.FollowUpMessage, lead.ConfidenceScore,
		lead.Industry, lead.CompanySize, lead.LinkedInURL, lead.Website, lead.Description,
		string(lead.Source), formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt),
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("save lead: %w", err)
	}
	return lead, nil
}

func (r *SQLite) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE (? = 0 OR industry IS NULL)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, boolInt(params.MissingIndustry), params.limit(), params.offset())
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *SQLite) CreateConversation(ctx context.Context, c domain.Conversation) (domain.Conversation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, lead_id, audio_url, transcript, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID.String(), c.LeadID.String(), c.AudioURL, c.Transcript, formatTime(c.CreatedAt))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (r *SQLite) ListConversations(ctx context.Context, leadID uuid.UUID) ([]domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, audio_url, transcript, created_at
		FROM conversations WHERE lead_id = ?
		ORDER BY created_at DESC
	`, leadID.String())
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Conversation, 0)
	for rows.Next() {
		var (
			c                   domain.Conversation
			id, lead, createdAt string
		)
		if err := rows.Scan(&id, &lead, &c.AudioURL, &c.Transcript, &createdAt); err != nil {
			return nil, err
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if c.LeadID, err = uuid.Parse(lead); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *SQLite) CreateEnrichment(ctx context.Context, e domain.Enrichment) (domain.Enrichment, error) {
	var payload *string
	if e.RawPayload != nil {
		s := string(e.RawPayload)
		payload = &s
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrichments (id, lead_id, provider, raw_payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID.String(), e.LeadID.String(), e.Provider, payload, string(e.Status), formatTime(e.CreatedAt))
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("create enrichment: %w", err)
	}
	return e, nil
}

func (r *SQLite) ListEnrichments(ctx context.Context, leadID uuid.UUID) ([]domain.Enrichment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, provider, raw_payload, status, created_at
		FROM enrichments WHERE lead_id = ?
		ORDER BY created_at DESC
	`, leadID.String())
	if err != nil {
		return nil, fmt.Errorf("list enrichments: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Enrichment, 0)
	for rows.Next() {
		var (
			e                           domain.Enrichment
			id, lead, status, createdAt string
			payload                     sql.NullString
		)
		if err := rows.Scan(&id, &lead, &e.Provider, &payload, &status, &createdAt); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.LeadID, err = uuid.Parse(lead); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.RawPayload = []byte(payload.String)
		}
		e.Status = domain.EnrichmentStatus(status)
		items = append(items, e)
	}
	return items, rows.Err()
}

func scanSQLiteLead(row scanner) (domain.Lead, error) {
	var (
		lead                      domain.Lead
		id, source                string
		createdAt, updatedAt      string
		intent                    sql.NullString
		confidence                sql.NullInt64
		name, email, company      sql.NullString
		role, phone               sql.NullString
		interest, notes, followUp sql.NullString
		industry, size, linkedIn  sql.NullString
		website, description      sql.NullString
	)
	err := row.Scan(
		&id, &name, &email, &company, &role, &phone,
		&intent, &interest, &notes, &followUp, &confidence,
		&industry, &size, &linkedIn, &website, &description,
		&source, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	if lead.ID, err = uuid.Parse(id); err != nil {
		return domain.Lead{}, err
	}
	if lead.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Lead{}, err
	}
	if lead.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Lead{}, err
	}

	lead.Name = nullString(name)
	lead.Email = nullString(email)
	lead.Company = nullString(company)
	lead.Role = nullString(role)
	lead.Phone = nullString(phone)
	lead.Intent = intentPtr(nullString(intent))
	lead.ProductInterest = nullString(interest)
	lead.Notes = nullString(notes)
	lead.FollowUpMessage = nullString(followUp)
	if confidence.Valid {
		v := int(confidence.Int64)
		lead.ConfidenceScore = &v
	}
	lead.Industry = nullString(industry)
	lead.CompanySize = nullString(size)
	lead.LinkedInURL = nullString(linkedIn)
	lead.Website = nullString(website)
	lead.Description = nullString(description)
	lead.Source = domain.Source(source)
	return lead, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
