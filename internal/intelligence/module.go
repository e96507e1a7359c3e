// Package intelligence provides the composition root for conversation analysis.
package intelligence

import (
	"context"
	"fmt"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"lead_capture_backend/internal/intelligence/service"
	"lead_capture_backend/platform/ai/moonshot"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
)

// Module wires the context extraction gateway.
type Module struct {
	service *service.Service
}

// NewModule builds the configured model. A missing API key is not an error:
// the gateway then answers from the keyword classifier alone.
func NewModule(ctx context.Context, cfg config.IntelligenceConfig, log *logger.Logger, m *metrics.Metrics) (*Module, error) {
	llm, err := newModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		log.Warn("no intelligence provider credentials; using keyword classification",
			"provider", cfg.GetIntelligenceProvider())
	}

	svc, err := service.New(llm, cfg.GetIntelligenceTimeout(), log, m)
	if err != nil {
		return nil, err
	}
	return &Module{service: svc}, nil
}

// Service returns the context extraction gateway.
func (m *Module) Service() *service.Service {
	return m.service
}

func newModel(ctx context.Context, cfg config.IntelligenceConfig) (model.LLM, error) {
	switch cfg.GetIntelligenceProvider() {
	case config.IntelligenceProviderMoonshot:
		if cfg.GetMoonshotAPIKey() == "" {
			return nil, nil
		}
		return moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetMoonshotModel(),
		}), nil
	default:
		if cfg.GetGeminiAPIKey() == "" {
			return nil, nil
		}
		llm, err := gemini.NewModel(ctx, cfg.GetGeminiModel(), &genai.ClientConfig{
			APIKey:  cfg.GetGeminiAPIKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return llm, nil
	}
}
