package scheduler

import (
	"context"
	"fmt"

	"lead_capture_backend/platform/apperr"
	"lead_capture_backend/platform/config"
	"lead_capture_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadEnricher runs enrichment for a stored lead.
type LeadEnricher interface {
	EnrichLead(ctx context.Context, leadID uuid.UUID) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	enricher LeadEnricher
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, enricher LeadEnricher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(enricher, log)
	w.server = server
	return w, nil
}

func newWorker(enricher LeadEnricher, log *logger.Logger) *Worker {
	w := &Worker{
		mux:      asynq.NewServeMux(),
		enricher: enricher,
		log:      log,
	}
	w.mux.HandleFunc(TaskEnrichLead, w.handleEnrichLead)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleEnrichLead retries transient failures. A deleted lead or a lead with
// no lookup key will never succeed, so those skip the retry queue.
func (w *Worker) handleEnrichLead(ctx context.Context, task *asynq.Task) error {
	leadID, err := ParseEnrichLeadPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.enricher.EnrichLead(ctx, leadID)
	switch {
	case err == nil:
		return nil
	case apperr.Is(err, apperr.KindNotFound), apperr.Is(err, apperr.KindUnprocessable):
		w.log.WithContext(ctx).Info("lead enrichment skipped", "leadId", leadID, "reason", err.Error())
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}
