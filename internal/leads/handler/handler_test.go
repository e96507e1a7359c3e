package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lead_capture_backend/internal/events"
	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/leads/locker"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/leads/repository"
	"lead_capture_backend/internal/leads/service"
	"lead_capture_backend/internal/leads/transport"
	"lead_capture_backend/platform/httpkit"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExtractor struct{}

func (stubExtractor) ExtractContext(context.Context, string) ports.ContextAnalysis {
	warm := domain.IntentWarm
	score := 60
	return ports.ContextAnalysis{
		Payload: domain.ContextPayload{Intent: &warm, ConfidenceScore: &score},
		Source:  "heuristic",
	}
}

type stubEnricher struct{}

func (stubEnricher) EnrichCompany(_ context.Context, email, company *string) (ports.CompanyEnrichment, error) {
	if email == nil && company == nil {
		return ports.CompanyEnrichment{}, ports.ErrNoLookupKey
	}
	industry := "Software"
	return ports.CompanyEnrichment{
		Payload:    domain.EnrichmentPayload{Industry: &industry},
		Provenance: "synthesized",
		Status:     domain.EnrichmentStatusSynthesized,
		RawProfile: []byte(`{"industry":"Software"}`),
	}, nil
}

type memoryStorage struct {
	refs []string
}

func (m *memoryStorage) Store(_ context.Context, kind string, leadID uuid.UUID, upload ports.Upload) (string, error) {
	ref := kind + "/" + leadID.String() + "/" + upload.FileName
	m.refs = append(m.refs, ref)
	return ref, nil
}

func (m *memoryStorage) DownloadURL(_ context.Context, ref string) (string, time.Time, error) {
	return "https://files.example.com/" + ref, time.Now().Add(15 * time.Minute), nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()

	val := validator.New()
	if err := transport.RegisterValidators(val); err != nil {
		t.Fatalf("register validators: %v", err)
	}
	log := logger.New("test")
	svc := service.New(repository.NewMemory(), locker.NewLocal(), events.NewInMemoryBus(log),
		stubExtractor{}, stubEnricher{}, "US", log, nil)

	h := New(svc, val)
	engine := gin.New()
	v1 := engine.Group("/api/v1")
	h.RegisterRoutes(v1.Group("/leads"))
	h.RegisterCaptureRoutes(v1)
	return engine, svc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func createLead(t *testing.T, engine *gin.Engine) transport.LeadResponse {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/leads", map[string]string{
		"name":    "Jane Doe",
		"email":   "jane@acme.com",
		"company": "Acme",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var lead transport.LeadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &lead); err != nil {
		t.Fatalf("decode lead: %v", err)
	}
	return lead
}

func TestCreateLead(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	if lead.ID == uuid.Nil || lead.Source != "scan" {
		t.Fatalf("unexpected lead %+v", lead)
	}
}

func TestCreateLeadRejectsInvalidEmail(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/leads", map[string]string{"email": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Error   string                 `json:"error"`
		Details []validator.FieldError `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != msgValidationFailed || len(resp.Details) != 1 || resp.Details[0].Field != "email" {
		t.Fatalf("unexpected error body %s", rec.Body.String())
	}
}

func TestCreateLeadRejectsEmptyScan(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/leads", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp httpkit.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != service.CodeEmptyScan {
		t.Fatalf("expected %s code, got %q", service.CodeEmptyScan, resp.Code)
	}
}

func TestGetLeadNotFoundAndBadID(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/leads/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/leads/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateLeadValidatesIntent(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)
	path := "/api/v1/leads/" + lead.ID.String()

	rec := doJSON(t, engine, http.MethodPut, path, map[string]string{"intent": "Lukewarm"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown intent, got %d", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPut, path, map[string]any{"intent": "Cold", "confidence_score": 20})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated transport.LeadResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Intent == nil || *updated.Intent != "Cold" || *updated.ConfidenceScore != 20 {
		t.Fatalf("unexpected update %+v", updated)
	}
}

func TestRecordConversationJSON(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/conversations", map[string]any{
		"lead_id":    lead.ID.String(),
		"transcript": "Interested in a demo next month.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.RecordConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Lead.Source != "voice" || resp.AIAnalysis.Source != "heuristic" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRecordConversationJSONWithScanIsBoth(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/conversations", map[string]any{
		"lead_id":    lead.ID.String(),
		"transcript": "Interested in a demo next month.",
		"scan":       map[string]any{"name": "Jane Doe"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.RecordConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Lead.Source != "both" {
		t.Fatalf("expected source both, got %q", resp.Lead.Source)
	}
}

func TestRecordConversationMultipartWithAudio(t *testing.T) {
	engine, svc := newTestEngine(t)
	storage := &memoryStorage{}
	svc.SetObjectStorage(storage)
	lead := createLead(t, engine)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("lead_id", lead.ID.String())
	_ = mw.WriteField("transcript", "Budget approved for Q3.")
	_ = mw.WriteField("scan", `{"role":"CTO"}`)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="memo.m4a"`)
	header.Set("Content-Type", "audio/mp4")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("audio-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.RecordConversationResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Conversation.AudioURL == nil || len(storage.refs) != 1 {
		t.Fatalf("expected stored audio, got %+v", resp.Conversation)
	}
	if resp.Lead.Role == nil || *resp.Lead.Role != "CTO" {
		t.Fatalf("expected scan role to merge, got %v", resp.Lead.Role)
	}

	audio := doJSON(t, engine, http.MethodGet,
		"/api/v1/leads/"+lead.ID.String()+"/conversations/"+resp.Conversation.ID.String()+"/audio", nil)
	if audio.Code != http.StatusOK {
		t.Fatalf("expected 200 for audio url, got %d: %s", audio.Code, audio.Body.String())
	}
}

func TestRecordConversationRejectsBadScanJSON(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("lead_id", lead.ID.String())
	_ = mw.WriteField("transcript", "hello")
	_ = mw.WriteField("scan", `{not json`)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRecordConversationUnknownLead(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/conversations", map[string]any{
		"lead_id":    uuid.NewString(),
		"transcript": "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEnrich(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/enrich", map[string]any{"lead_id": lead.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.EnrichResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Lead.Industry == nil || *resp.Lead.Industry != "Software" || resp.Enrichment.Status != "synthesized" {
		t.Fatalf("unexpected enrich response %+v", resp)
	}
}

func TestCaptureScanMultipartRawText(t *testing.T) {
	engine, _ := newTestEngine(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("raw_text", "John Smith\nGlobex Inc\njohn@globex.com")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/scan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp transport.ScanCaptureResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Lead.Email == nil || *resp.Lead.Email != "john@globex.com" {
		t.Fatalf("unexpected parsed lead %+v", resp.Lead)
	}
}

func TestExportSetsAttachmentHeaders(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/leads/"+lead.ID.String()+"/export?format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, lead.ID.String()+".csv") {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "jane@acme.com") {
		t.Fatalf("expected lead email in csv: %s", rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/leads/"+lead.ID.String()+"/export?format=pdf", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestListLeads(t *testing.T) {
	engine, _ := newTestEngine(t)
	createLead(t, engine)
	createLead(t, engine)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/leads?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp transport.LeadListResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Items) != 1 || resp.Limit != 1 {
		t.Fatalf("unexpected list %+v", resp)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/v1/leads?limit=9000", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestFollowUpWithoutMailerIsUnavailable(t *testing.T) {
	engine, _ := newTestEngine(t)
	lead := createLead(t, engine)

	rec := doJSON(t, engine, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/follow-up", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
