// Package ports defines the interfaces the leads service needs from other
// modules. Implementations live in internal/adapters so the leads domain never
// imports another bounded context directly.
package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"lead_capture_backend/internal/leads/domain"
)

// ErrNoLookupKey is returned by a CompanyEnricher when neither an email nor a
// company name is available.
var ErrNoLookupKey = errors.New("no email or company to enrich from")

// ErrStorageDisabled is returned by ObjectStorage when no object store is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// ContextAnalysis is the intelligence extracted from one transcript.
type ContextAnalysis struct {
	Payload domain.ContextPayload
	// Source is "model" or "heuristic".
	Source string
}

// ContextExtractor turns a transcript into intelligence fields. It never fails;
// collaborator errors degrade to a heuristic result.
type ContextExtractor interface {
	ExtractContext(ctx context.Context, transcript string) ContextAnalysis
}

// CompanyEnrichment is the outcome of one company lookup.
type CompanyEnrichment struct {
	Payload    domain.EnrichmentPayload
	Provenance string
	Status     domain.EnrichmentStatus
	// RawProfile is the full company profile as JSON.
	RawProfile []byte
}

// CompanyEnricher resolves company background from an email or company name.
type CompanyEnricher interface {
	EnrichCompany(ctx context.Context, email, company *string) (CompanyEnrichment, error)
}

// Upload kinds accepted by ObjectStorage.
const (
	UploadConversationAudio = "conversation_audio"
	UploadScanImage         = "scan_image"
)

// Upload is a file received alongside a capture.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// ObjectStorage stores capture attachments.
type ObjectStorage interface {
	// Store uploads the file under the lead and returns its object reference.
	Store(ctx context.Context, kind string, leadID uuid.UUID, upload Upload) (string, error)
	// DownloadURL returns a time-limited URL for a stored reference.
	DownloadURL(ctx context.Context, ref string) (string, time.Time, error)
}

// FollowUpSender delivers a lead's follow-up message.
type FollowUpSender interface {
	SendFollowUp(ctx context.Context, toEmail, toName, message string) error
}

// EnrichmentScheduler queues a background enrichment for a lead.
type EnrichmentScheduler interface {
	ScheduleLeadEnrichment(ctx context.Context, leadID uuid.UUID) error
}
