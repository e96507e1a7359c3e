// Package leads provides the lead capture bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"lead_capture_backend/internal/events"
	apphttp "lead_capture_backend/internal/http"
	"lead_capture_backend/internal/leads/handler"
	"lead_capture_backend/internal/leads/locker"
	"lead_capture_backend/internal/leads/ports"
	"lead_capture_backend/internal/leads/repository"
	"lead_capture_backend/internal/leads/service"
	"lead_capture_backend/internal/leads/transport"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"
	"lead_capture_backend/platform/metrics"
	"lead_capture_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	store repository.Store,
	lk locker.Locker,
	eventBus events.Bus,
	val *validator.Validator,
	extractor ports.ContextExtractor,
	enricher ports.CompanyEnricher,
	cfg config.ScanConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) (*Module, error) {
	if err := transport.RegisterValidators(val); err != nil {
		return nil, err
	}

	svc := service.New(store, lk, eventBus, extractor, enricher, cfg.GetDefaultPhoneRegion(), log, m)

	module := &Module{
		handler: handler.New(svc, val),
		service: svc,
		bus:     eventBus,
		log:     log,
		metrics: m,
	}
	module.subscribeActivity()
	return module, nil
}

// subscribeActivity counts every lead event and logs it at debug level.
func (m *Module) subscribeActivity() {
	record := events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		m.metrics.RecordEvent(event.EventName())
		m.log.WithContext(ctx).Debug("lead event", "event", event.EventName())
		return nil
	})
	for _, name := range []string{
		events.LeadCreated{}.EventName(),
		events.LeadReconciled{}.EventName(),
		events.ConversationRecorded{}.EventName(),
		events.LeadEnriched{}.EventName(),
	} {
		m.bus.Subscribe(name, record)
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for workers and maintenance commands.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetObjectStorage enables audio and card image uploads.
func (m *Module) SetObjectStorage(storage ports.ObjectStorage) {
	m.service.SetObjectStorage(storage)
}

// SetFollowUpSender enables follow-up email delivery.
func (m *Module) SetFollowUpSender(sender ports.FollowUpSender) {
	m.service.SetFollowUpSender(sender)
}

// SetEnrichmentScheduler enqueues background enrichment for every new lead
// that carries an email or company.
func (m *Module) SetEnrichmentScheduler(scheduler ports.EnrichmentScheduler) {
	if scheduler == nil {
		return
	}
	m.bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCreated)
		if !ok {
			return nil
		}
		if e.Email == nil && e.Company == nil {
			return nil
		}
		if err := scheduler.ScheduleLeadEnrichment(ctx, e.LeadID); err != nil {
			m.log.WithContext(ctx).Error("failed to schedule lead enrichment", "leadId", e.LeadID, "error", err)
			return err
		}
		return nil
	}))
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterCaptureRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
