// Package service extracts sales intelligence from conversation transcripts
// with a language model, degrading to keyword classification on any failure.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"lead_capture_backend/internal/intelligence/classifier"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
)

const (
	appName     = "lead-context-extractor"
	gatewayName = "context"

	SourceModel     = "model"
	SourceHeuristic = "heuristic"

	defaultTimeout = 15 * time.Second
	temperature    = 0.2
)

// Analysis is the intelligence extracted from one transcript.
type Analysis struct {
	Intent          string
	ProductInterest string
	Notes           string
	FollowUpMessage string
	ConfidenceScore int
	Source          string
}

// Service is the context extraction gateway. A Service without a model
// always answers with the heuristic classifier.
type Service struct {
	runner         *runner.Runner
	sessionService session.Service
	schema         *jsonschema.Schema
	timeout        time.Duration
	log            *logger.Logger
	metrics        *metrics.Metrics
}

// New creates the gateway. llm may be nil when no provider is configured.
func New(llm model.LLM, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) (*Service, error) {
	schema, err := compileContextSchema()
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	svc := &Service{
		schema:  schema,
		timeout: timeout,
		log:     log,
		metrics: m,
	}
	if llm == nil {
		return svc, nil
	}

	extractor, err := llmagent.New(llmagent.Config{
		Name:        "LeadContextExtractor",
		Model:       llm,
		Description: "Extracts intent, product interest and follow-up details from sales conversations.",
		Instruction: getContextSystemPrompt(),
		GenerateContentConfig: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](temperature),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          extractor,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context runner: %w", err)
	}

	svc.runner = r
	svc.sessionService = sessionService
	return svc, nil
}

// ExtractContext never fails: any model problem yields the classifier result.
func (s *Service) ExtractContext(ctx context.Context, transcript string) Analysis {
	started := time.Now()

	if s.runner == nil {
		return s.fallback(transcript, "not_configured", nil, started)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generate(callCtx, transcript)
	if err != nil {
		reason := "transport"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return s.fallback(transcript, reason, err, started)
	}

	reply, err := parseReply(s.schema, raw)
	if err != nil {
		return s.fallback(transcript, "malformed", err, started)
	}

	s.metrics.ObserveGateway(gatewayName, SourceModel, started)
	return Analysis{
		Intent:          reply.Intent,
		ProductInterest: strings.TrimSpace(reply.ProductInterest),
		Notes:           strings.TrimSpace(reply.Notes),
		FollowUpMessage: strings.TrimSpace(reply.FollowUpMessage),
		ConfidenceScore: int(reply.ConfidenceScore),
		Source:          SourceModel,
	}
}

func (s *Service) generate(ctx context.Context, transcript string) (string, error) {
	sessionID := uuid.New().String()
	userID := "context-" + sessionID

	_, err := s.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("context extraction: create session: %w", err)
	}
	defer func() {
		_ = s.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := genai.NewContentFromText(buildContextPrompt(transcript), genai.RoleUser)
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var outputText strings.Builder
	for event, err := range s.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("context extraction: run failed: %w", err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			outputText.WriteString(part.Text)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return outputText.String(), nil
}

func (s *Service) fallback(transcript, reason string, err error, started time.Time) Analysis {
	if s.log != nil {
		s.log.GatewayFallback(gatewayName, reason, err)
	}
	s.metrics.RecordFallback(gatewayName, reason)
	s.metrics.ObserveGateway(gatewayName, SourceHeuristic, started)

	r := classifier.Classify(transcript)
	return Analysis{
		Intent:          r.Intent,
		ProductInterest: r.ProductInterest,
		Notes:           r.Notes,
		FollowUpMessage: r.FollowUpMessage,
		ConfidenceScore: r.ConfidenceScore,
		Source:          SourceHeuristic,
	}
}
