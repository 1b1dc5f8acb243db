package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/pkg/events"
	"github.com/noah-isme/eco-report-api/pkg/jobs"
)

const eventJobType = "domain_event"

// EventService publishes domain events after their changes commit. Events are
// queued and delivered by background workers; delivery never fails a request.
type EventService struct {
	publisher events.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// EventServiceConfig sizes the delivery worker pool.
type EventServiceConfig struct {
	Workers    int
	Retries    int
	BufferSize int
}

// NewEventService wires a publisher to a job queue.
func NewEventService(publisher events.Publisher, cfg EventServiceConfig, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EventService{publisher: publisher, metrics: metrics, logger: logger, now: time.Now}
	s.queue = jobs.NewQueue("events", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *EventService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop waits for workers to exit and closes the publisher.
func (s *EventService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("close event publisher", zap.Error(err))
	}
}

// Emit queues an event. A full or stopped queue drops the event with a warning.
func (s *EventService) Emit(eventType models.EventType, payload interface{}) {
	if s == nil {
		return
	}
	evt := models.DomainEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: evt.ID, Type: eventJobType, Payload: evt}); err != nil {
		s.metrics.EventPublished(eventType, false)
		s.logger.Warn("drop domain event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (s *EventService) deliver(ctx context.Context, job jobs.Job) error {
	evt, ok := job.Payload.(models.DomainEvent)
	if !ok {
		s.logger.Error("unexpected event payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.publisher.Publish(ctx, string(evt.Type), evt); err != nil {
		s.metrics.EventPublished(evt.Type, false)
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	s.metrics.EventPublished(evt.Type, true)
	return nil
}
