// Package service orchestrates lead capture: it feeds scans, conversations and
// company enrichment through the reconciliation engine and persists the result.
// Merges for one lead are serialized with a Locker.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lead_capture_backend/internal/events"
	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/leads/export"
	"lead_capture_backend/internal/leads/locker"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/leads/reconcile"
	"lead_capture_backend/internal/leads/repository"
	"lead_capture_backend/internal/leads/scan"
	"lead_capture_backend/internal/leads/transport"
	"lead_capture_backend/internal/shared/normalize"
	"lead_capture_backend/platform/apperr"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
	"lead_capture_backend/platform/phone"
)

const (
	CodeLeadNotFound          = "lead_not_found"
	CodeConversationNotFound  = "conversation_not_found"
	CodeEnrichmentUnavailable = "enrichment_unavailable"
	CodeEmptyScan             = "empty_scan"
	CodeMissingEmail          = "missing_email"
	CodeMissingFollowUp       = "missing_follow_up"
	CodeEmailDisabled         = "email_disabled"
	CodeStorageDisabled       = "storage_disabled"

	backfillBatch = 50
)

// Service handles lead capture and reconciliation.
type Service struct {
	store     repository.Store
	locker    locker.Locker
	bus       events.Bus
	extractor ports.ContextExtractor
	enricher  ports.CompanyEnricher
	parser    *scan.Parser
	region    string
	log       *logger.Logger
	metrics   *metrics.Metrics

	storage ports.ObjectStorage
	mailer  ports.FollowUpSender
	now     func() time.Time
}

// New creates the leads service. region is the default phone region; an empty
// region falls back to phone.DefaultRegion.
func New(
	store repository.Store,
	lk locker.Locker,
	bus events.Bus,
	extractor ports.ContextExtractor,
	enricher ports.CompanyEnricher,
	region string,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Service{
		store:     store,
		locker:    lk,
		bus:       bus,
		extractor: extractor,
		enricher:  enricher,
		parser:    scan.NewParser(region),
		region:    region,
		log:       log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetObjectStorage enables audio and card image uploads.
func (s *Service) SetObjectStorage(storage ports.ObjectStorage) { s.storage = storage }

// SetFollowUpSender enables follow-up email delivery.
func (s *Service) SetFollowUpSender(sender ports.FollowUpSender) { s.mailer = sender }

// Create creates a lead from a structured scan.
func (s *Service) Create(ctx context.Context, req transport.ScanRequest) (transport.LeadResponse, error) {
	payload := scanPayload(req, s.region)
	lead, err := s.create(ctx, payload)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

// CaptureScan parses raw QR or OCR text into a scan and creates a lead from
// it. The optional card image is stored against the new lead.
func (s *Service) CaptureScan(ctx context.Context, req transport.ScanCaptureRequest, image *ports.Upload) (transport.ScanCaptureResponse, error) {
	var payload domain.ScanPayload
	switch {
	case req.QRText != nil && normalize.Text(req.QRText) != nil:
		payload = s.parser.ParseQR(*req.QRText)
	case req.RawText != nil && normalize.Text(req.RawText) != nil:
		payload = s.parser.ParseOCR(*req.RawText)
	default:
		return transport.ScanCaptureResponse{}, apperr.Validation("qr_text or raw_text is required").WithCode(CodeEmptyScan)
	}

	lead, err := s.create(ctx, payload)
	if err != nil {
		return transport.ScanCaptureResponse{}, err
	}

	resp := transport.ScanCaptureResponse{
		Lead:   ToLeadResponse(lead),
		Parsed: toScanRequest(payload),
	}
	if image != nil {
		ref, err := s.upload(ctx, ports.UploadScanImage, lead.ID, *image)
		if err != nil {
			s.log.WithContext(ctx).Warn("scan image not stored", "leadId", lead.ID, "error", err)
		} else {
			resp.ImageRef = &ref
		}
	}
	return resp, nil
}

func (s *Service) create(ctx context.Context, payload domain.ScanPayload) (domain.Lead, error) {
	if !hasAnyScanField(payload) {
		return domain.Lead{}, apperr.Validation("scan contains no contact details").WithCode(CodeEmptyScan)
	}

	lead := reconcile.Merge(domain.NewLead(s.now()), &payload, nil, nil)
	saved, err := s.store.Save(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("save lead: %w", err)
	}

	s.reconciled(ctx, saved, events.CauseScan, payload.HasIdentity(), false, false)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    saved.ID,
		Email:     saved.Email,
		Company:   saved.Company,
	})
	return saved, nil
}

// AddScan merges another scan into an existing lead.
func (s *Service) AddScan(ctx context.Context, id uuid.UUID, req transport.ScanRequest) (transport.LeadResponse, error) {
	payload := scanPayload(req, s.region)
	lead, err := s.mutate(ctx, id, func(current domain.Lead) domain.Lead {
		return reconcile.Merge(current, &payload, nil, nil)
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	s.reconciled(ctx, lead, events.CauseScan, payload.HasIdentity(), false, false)
	return ToLeadResponse(lead), nil
}

// List returns leads, newest first.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	params := repository.ListParams{Limit: req.Limit, Offset: req.Offset}.Normalized()
	leads, err := s.store.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, fmt.Errorf("list leads: %w", err)
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: items, Limit: params.Limit, Offset: params.Offset}, nil
}

// Get returns a lead with its conversations and enrichments.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	detail, err := s.detail(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}
	return toDetailResponse(detail), nil
}

func (s *Service) detail(ctx context.Context, id uuid.UUID) (domain.LeadDetail, error) {
	lead, err := s.load(ctx, id)
	if err != nil {
		return domain.LeadDetail{}, err
	}
	conversations, err := s.store.ListConversations(ctx, id)
	if err != nil {
		return domain.LeadDetail{}, fmt.Errorf("list conversations: %w", err)
	}
	enrichments, err := s.store.ListEnrichments(ctx, id)
	if err != nil {
		return domain.LeadDetail{}, fmt.Errorf("list enrichments: %w", err)
	}
	return domain.LeadDetail{Lead: lead, Conversations: conversations, Enrichments: enrichments}, nil
}

// Update applies a user edit. Edits outrank every capture source.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	edit := leadEdit(req, s.region)
	lead, err := s.mutate(ctx, id, func(current domain.Lead) domain.Lead {
		return reconcile.ApplyEdit(current, edit)
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	s.reconciled(ctx, lead, events.CauseEdit, false, false, false)
	return ToLeadResponse(lead), nil
}

// RecordConversation extracts intelligence from a transcript, merges it with
// the optional scan and stores the conversation. Audio upload and extraction
// run concurrently; a failed upload aborts the call.
func (s *Service) RecordConversation(ctx context.Context, req transport.RecordConversationRequest, audio *ports.Upload) (transport.RecordConversationResponse, error) {
	id, err := uuid.Parse(req.LeadID)
	if err != nil {
		return transport.RecordConversationResponse{}, apperr.Validation("invalid lead_id")
	}
	if _, err := s.load(ctx, id); err != nil {
		return transport.RecordConversationResponse{}, err
	}

	cleaned := text(&req.Transcript)
	if cleaned == nil {
		return transport.RecordConversationResponse{}, apperr.Validation("transcript is empty")
	}
	transcript := *cleaned

	var scanned *domain.ScanPayload
	if req.Scan != nil {
		p := scanPayload(*req.Scan, s.region)
		scanned = &p
	}

	var (
		analysis ports.ContextAnalysis
		audioRef *string
	)
	g, gctx := errgroup.WithContext(ctx)
	if audio != nil {
		g.Go(func() error {
			ref, err := s.upload(gctx, ports.UploadConversationAudio, id, *audio)
			if err != nil {
				return err
			}
			audioRef = &ref
			return nil
		})
	}
	g.Go(func() error {
		analysis = s.extractor.ExtractContext(gctx, transcript)
		return nil
	})
	if err := g.Wait(); err != nil {
		return transport.RecordConversationResponse{}, err
	}

	var conversation domain.Conversation
	lead, err := s.mutateThen(ctx, id, func(current domain.Lead) domain.Lead {
		return reconcile.Merge(current, scanned, &analysis.Payload, nil)
	}, func(ctx context.Context, leadID uuid.UUID) error {
		created, err := s.store.CreateConversation(ctx, domain.Conversation{
			ID:         uuid.New(),
			LeadID:     leadID,
			AudioURL:   audioRef,
			Transcript: transcript,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		conversation = created
		return nil
	})
	if err != nil {
		return transport.RecordConversationResponse{}, err
	}

	s.reconciled(ctx, lead, events.CauseConversation, scanned.HasIdentity(), analysis.Payload.HasAny(), false)
	s.bus.Publish(ctx, events.ConversationRecorded{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		ConversationID: conversation.ID,
		AnalysisSource: analysis.Source,
	})

	return transport.RecordConversationResponse{
		Conversation: toConversationResponse(conversation),
		Lead:         ToLeadResponse(lead),
		AIAnalysis:   toAnalysisResponse(analysis),
	}, nil
}

// Enrich looks up company background for a lead and merges it. The lead's own
// email and company are used when the request omits them.
func (s *Service) Enrich(ctx context.Context, req transport.EnrichRequest) (transport.EnrichResponse, error) {
	id, err := uuid.Parse(req.LeadID)
	if err != nil {
		return transport.EnrichResponse{}, apperr.Validation("invalid lead_id")
	}
	return s.enrich(ctx, id, line(req.Email), line(req.Company))
}

// EnrichLead enriches a lead from its own email and company. The background
// worker and the backfill command use it.
func (s *Service) EnrichLead(ctx context.Context, id uuid.UUID) (transport.EnrichResponse, error) {
	return s.enrich(ctx, id, nil, nil)
}

func (s *Service) enrich(ctx context.Context, id uuid.UUID, email, company *string) (transport.EnrichResponse, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return transport.EnrichResponse{}, err
	}
	if email == nil {
		email = current.Email
	}
	if company == nil {
		company = current.Company
	}

	result, err := s.enricher.EnrichCompany(ctx, email, company)
	if err != nil {
		if errors.Is(err, ports.ErrNoLookupKey) {
			return transport.EnrichResponse{}, apperr.Unprocessable("lead has no email or company to enrich from").WithCode(CodeEnrichmentUnavailable)
		}
		return transport.EnrichResponse{}, fmt.Errorf("enrich company: %w", err)
	}

	var record domain.Enrichment
	lead, err := s.mutateThen(ctx, id, func(current domain.Lead) domain.Lead {
		return reconcile.Merge(current, nil, nil, &result.Payload)
	}, func(ctx context.Context, leadID uuid.UUID) error {
		created, err := s.store.CreateEnrichment(ctx, domain.Enrichment{
			ID:         uuid.New(),
			LeadID:     leadID,
			Provider:   result.Provenance,
			RawPayload: result.RawProfile,
			Status:     result.Status,
			CreatedAt:  s.now(),
		})
		if err != nil {
			return fmt.Errorf("create enrichment: %w", err)
		}
		record = created
		return nil
	})
	if err != nil {
		return transport.EnrichResponse{}, err
	}

	s.reconciled(ctx, lead, events.CauseEnrichment, false, false, true)
	s.bus.Publish(ctx, events.LeadEnriched{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		Provenance: result.Provenance,
	})

	return transport.EnrichResponse{
		Lead:       ToLeadResponse(lead),
		Enrichment: toEnrichmentResponse(record),
	}, nil
}

// BackfillEnrichment enriches up to limit leads that have no industry yet and
// returns how many were enriched. Leads without an email or company are skipped.
func (s *Service) BackfillEnrichment(ctx context.Context, limit int) (int, error) {
	enriched := 0
	offset := 0
	for enriched < limit {
		batch, err := s.store.List(ctx, repository.ListParams{
			Limit:           min(backfillBatch, limit-enriched),
			Offset:          offset,
			MissingIndustry: true,
		})
		if err != nil {
			return enriched, fmt.Errorf("list leads: %w", err)
		}
		if len(batch) == 0 {
			return enriched, nil
		}

		for _, lead := range batch {
			if err := ctx.Err(); err != nil {
				return enriched, err
			}
			resp, err := s.EnrichLead(ctx, lead.ID)
			if err != nil {
				if apperr.Is(err, apperr.KindUnprocessable) {
					offset++
					continue
				}
				return enriched, err
			}
			if resp.Lead.Industry == nil {
				// still matches the filter; step over it
				offset++
			}
			enriched++
		}
	}
	return enriched, nil
}

// Export renders a lead in the requested format. An empty format means JSON.
func (s *Service) Export(ctx context.Context, id uuid.UUID, format string) (transport.ExportFile, error) {
	base := "lead-" + id.String()

	switch format {
	case "", transport.ExportFormatJSON:
		detail, err := s.detail(ctx, id)
		if err != nil {
			return transport.ExportFile{}, err
		}
		body, err := json.MarshalIndent(toDetailResponse(detail), "", "  ")
		if err != nil {
			return transport.ExportFile{}, fmt.Errorf("encode json export: %w", err)
		}
		return transport.ExportFile{ContentType: "application/json", FileName: base + ".json", Body: body}, nil
	}

	lead, err := s.load(ctx, id)
	if err != nil {
		return transport.ExportFile{}, err
	}

	switch format {
	case transport.ExportFormatCSV:
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, lead); err != nil {
			return transport.ExportFile{}, err
		}
		return transport.ExportFile{ContentType: "text/csv", FileName: base + ".csv", Body: buf.Bytes()}, nil
	case transport.ExportFormatXLSX:
		body, err := export.XLSX(lead)
		if err != nil {
			return transport.ExportFile{}, err
		}
		return transport.ExportFile{
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			FileName:    base + ".xlsx",
			Body:        body,
		}, nil
	case transport.ExportFormatVCard:
		return transport.ExportFile{ContentType: "text/vcard", FileName: base + ".vcf", Body: []byte(export.VCard(lead))}, nil
	case transport.ExportFormatQR:
		body, err := export.QRCode(lead)
		if err != nil {
			return transport.ExportFile{}, err
		}
		return transport.ExportFile{ContentType: "image/png", FileName: base + ".png", Body: body}, nil
	default:
		return transport.ExportFile{}, apperr.Validation("unsupported export format")
	}
}

// ExportAll renders every lead, newest first, as CSV or XLSX.
func (s *Service) ExportAll(ctx context.Context, format string) (transport.ExportFile, error) {
	var leads []domain.Lead
	for {
		page, err := s.store.List(ctx, repository.ListParams{Limit: repository.MaxListLimit, Offset: len(leads)})
		if err != nil {
			return transport.ExportFile{}, fmt.Errorf("list leads: %w", err)
		}
		leads = append(leads, page...)
		if len(page) < repository.MaxListLimit {
			break
		}
	}

	switch format {
	case "", transport.ExportFormatCSV:
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, leads...); err != nil {
			return transport.ExportFile{}, err
		}
		return transport.ExportFile{ContentType: "text/csv", FileName: "leads.csv", Body: buf.Bytes()}, nil
	case transport.ExportFormatXLSX:
		body, err := export.XLSX(leads...)
		if err != nil {
			return transport.ExportFile{}, err
		}
		return transport.ExportFile{
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			FileName:    "leads.xlsx",
			Body:        body,
		}, nil
	default:
		return transport.ExportFile{}, apperr.Validation("unsupported export format")
	}
}

// AudioURL returns a short-lived download link for a conversation recording.
func (s *Service) AudioURL(ctx context.Context, leadID, conversationID uuid.UUID) (transport.AudioURLResponse, error) {
	if s.storage == nil {
		return transport.AudioURLResponse{}, apperr.Unavailable("object storage is not configured").WithCode(CodeStorageDisabled)
	}
	if _, err := s.load(ctx, leadID); err != nil {
		return transport.AudioURLResponse{}, err
	}
	conversations, err := s.store.ListConversations(ctx, leadID)
	if err != nil {
		return transport.AudioURLResponse{}, fmt.Errorf("list conversations: %w", err)
	}
	for _, c := range conversations {
		if c.ID != conversationID {
			continue
		}
		if c.AudioURL == nil {
			break
		}
		url, expiresAt, err := s.storage.DownloadURL(ctx, *c.AudioURL)
		if err != nil {
			return transport.AudioURLResponse{}, fmt.Errorf("presign audio: %w", err)
		}
		return transport.AudioURLResponse{URL: url, ExpiresAt: expiresAt}, nil
	}
	return transport.AudioURLResponse{}, apperr.NotFound("conversation recording not found").WithCode(CodeConversationNotFound)
}

// SendFollowUp emails the lead's follow-up message to the lead.
func (s *Service) SendFollowUp(ctx context.Context, id uuid.UUID) (transport.FollowUpResponse, error) {
	if s.mailer == nil {
		return transport.FollowUpResponse{}, apperr.Unavailable("email delivery is not configured").WithCode(CodeEmailDisabled)
	}
	lead, err := s.load(ctx, id)
	if err != nil {
		return transport.FollowUpResponse{}, err
	}
	if lead.Email == nil {
		return transport.FollowUpResponse{}, apperr.Unprocessable("lead has no email address").WithCode(CodeMissingEmail)
	}
	if lead.FollowUpMessage == nil {
		return transport.FollowUpResponse{}, apperr.Unprocessable("lead has no follow-up message").WithCode(CodeMissingFollowUp)
	}

	name := ""
	if lead.Name != nil {
		name = *lead.Name
	}
	if err := s.mailer.SendFollowUp(ctx, *lead.Email, name, *lead.FollowUpMessage); err != nil {
		return transport.FollowUpResponse{}, fmt.Errorf("send follow-up: %w", err)
	}
	return transport.FollowUpResponse{Sent: true, To: *lead.Email}, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.Lead{}, storeError("load lead", err)
	}
	return lead, nil
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, apply func(domain.Lead) domain.Lead) (domain.Lead, error) {
	return s.mutateThen(ctx, id, apply, nil)
}

// mutateThen loads, transforms and saves a lead while holding its lock. The
// record func writes the conversation or enrichment row before the merged lead
// is saved, so a failed insert leaves the lead untouched. The two writes are not
// one transaction: a failed save after a written record surfaces as an error.
func (s *Service) mutateThen(ctx context.Context, id uuid.UUID, apply func(domain.Lead) domain.Lead, record func(context.Context, uuid.UUID) error) (domain.Lead, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(id))
	if err != nil {
		return domain.Lead{}, fmt.Errorf("lock lead %s: %w", id, err)
	}
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return domain.Lead{}, err
	}

	if record != nil {
		if err := record(ctx, current.ID); err != nil {
			return domain.Lead{}, err
		}
	}

	next := apply(current)
	next.UpdatedAt = s.now()
	saved, err := s.store.Save(ctx, next)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("save lead: %w", err)
	}
	return saved, nil
}

func (s *Service) upload(ctx context.Context, kind string, leadID uuid.UUID, upload ports.Upload) (string, error) {
	if s.storage == nil {
		return "", apperr.Unavailable("object storage is not configured").WithCode(CodeStorageDisabled)
	}
	ref, err := s.storage.Store(ctx, kind, leadID, upload)
	if err != nil {
		if errors.Is(err, ports.ErrStorageDisabled) {
			return "", apperr.Unavailable("object storage is not configured").WithCode(CodeStorageDisabled)
		}
		return "", fmt.Errorf("store %s: %w", kind, err)
	}
	return ref, nil
}

func (s *Service) reconciled(ctx context.Context, lead domain.Lead, cause string, hasScan, hasContext, hasEnrichment bool) {
	s.metrics.RecordMerge(string(lead.Source))
	s.log.WithContext(ctx).LeadReconciled(lead.ID.String(), string(lead.Source), hasScan, hasContext, hasEnrichment)
	s.bus.Publish(ctx, events.LeadReconciled{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    string(lead.Source),
		Cause:     cause,
	})
}

func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found").WithCode(CodeLeadNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func lockKey(id uuid.UUID) string {
	return "lead:" + id.String()
}

func hasAnyScanField(p domain.ScanPayload) bool {
	return p.Name != nil || p.Email != nil || p.Company != nil || p.Role != nil || p.Phone != nil
}
