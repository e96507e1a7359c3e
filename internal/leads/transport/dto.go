package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Export formats accepted by GET /leads/:id/export.
const (
	ExportFormatJSON  = "json"
	ExportFormatCSV   = "csv"
	ExportFormatXLSX  = "xlsx"
	ExportFormatVCard = "vcf"
	ExportFormatQR    = "qr"
)

// Request DTOs

// ScanRequest is a structured scan of a badge, card or QR code.
type ScanRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Role    *string `json:"role,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// ScanCaptureRequest carries undecoded scanner output. QR text wins when both
// texts are sent; at least one is required.
type ScanCaptureRequest struct {
	QRText  *string `json:"qr_text,omitempty" form:"qr_text" validate:"omitempty,max=4096"`
	RawText *string `json:"raw_text,omitempty" form:"raw_text" validate:"omitempty,max=8192"`
}

type UpdateLeadRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Role    *string `json:"role,omitempty" validate:"omitempty,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`

	Intent          *string `json:"intent,omitempty" validate:"omitempty,intent"`
	ProductInterest *string `json:"product_interest,omitempty" validate:"omitempty,max=200"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=10000"`
	FollowUpMessage *string `json:"follow_up_message,omitempty" validate:"omitempty,max=10000"`
	ConfidenceScore *int    `json:"confidence_score,omitempty" validate:"omitempty,min=0,max=100"`

	Industry    *string `json:"industry,omitempty" validate:"omitempty,max=200"`
	CompanySize *string `json:"company_size,omitempty" validate:"omitempty,sizebucket"`
	LinkedInURL *string `json:"linkedin_url,omitempty" validate:"omitempty,url,max=500"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// RecordConversationRequest is bound from JSON or from multipart form fields,
// in which case the optional scan is sent as a JSON string in "scan".
type RecordConversationRequest struct {
	LeadID     string       `json:"lead_id" form:"lead_id" validate:"required,uuid"`
	Transcript string       `json:"transcript" form:"transcript" validate:"required,max=100000"`
	Scan       *ScanRequest `json:"scan,omitempty" form:"-" validate:"omitempty"`
}

type EnrichRequest struct {
	LeadID  string  `json:"lead_id" validate:"required,uuid"`
	Email   *string `json:"email,omitempty" validate:"omitempty,max=320"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
}

type ListLeadsRequest struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

type ExportRequest struct {
	Format string `form:"format" validate:"omitempty,oneof=json csv xlsx vcf qr"`
}

// Response DTOs

type LeadResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    *string   `json:"name"`
	Email   *string   `json:"email"`
	Company *string   `json:"company"`
	Role    *string   `json:"role"`
	Phone   *string   `json:"phone"`

	Intent          *string `json:"intent"`
	ProductInterest *string `json:"product_interest"`
	Notes           *string `json:"notes"`
	FollowUpMessage *string `json:"follow_up_message"`
	ConfidenceScore *int    `json:"confidence_score"`

	Industry    *string `json:"industry"`
	CompanySize *string `json:"company_size"`
	LinkedInURL *string `json:"linkedin_url"`
	Website     *string `json:"website"`
	Description *string `json:"description"`

	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConversationResponse struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"lead_id"`
	AudioURL   *string   `json:"audio_url"`
	Transcript string    `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}

type EnrichmentResponse struct {
	ID         uuid.UUID       `json:"id"`
	LeadID     uuid.UUID       `json:"lead_id"`
	Provider   string          `json:"provider"`
	RawPayload json.RawMessage `json:"raw_payload"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

type LeadDetailResponse struct {
	LeadResponse
	Conversations []ConversationResponse `json:"conversations"`
	Enrichments   []EnrichmentResponse   `json:"enrichments"`
}

type LeadListResponse struct {
	Items  []LeadResponse `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type ScanCaptureResponse struct {
	Lead     LeadResponse `json:"lead"`
	Parsed   ScanRequest  `json:"parsed"`
	ImageRef *string      `json:"image_ref,omitempty"`
}

type ContextAnalysisResponse struct {
	Intent          *string `json:"intent"`
	ProductInterest *string `json:"product_interest"`
	Notes           *string `json:"notes"`
	FollowUpMessage *string `json:"follow_up_message"`
	ConfidenceScore *int    `json:"confidence_score"`
	Source          string  `json:"source"`
}

type RecordConversationResponse struct {
	Conversation ConversationResponse    `json:"conversation"`
	Lead         LeadResponse            `json:"lead"`
	AIAnalysis   ContextAnalysisResponse `json:"ai_analysis"`
}

type EnrichResponse struct {
	Lead       LeadResponse       `json:"lead"`
	Enrichment EnrichmentResponse `json:"enrichment"`
}

type AudioURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FollowUpResponse struct {
	Sent bool   `json:"sent"`
	To   string `json:"to"`
}

// ExportFile is a rendered export ready to be written to the client.
type ExportFile struct {
	ContentType string
	FileName    string
	Body        []byte
}
