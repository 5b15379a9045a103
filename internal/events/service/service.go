// Package service composes the event store, bus, and persistence
// collaborators into the appendable event core.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"employee-compass/internal/events"
	"employee-compass/internal/events/bus"
	"employee-compass/internal/platform/metrics"
	id "employee-compass/pkg/domain"
)

// Store is the canonical event store the service writes through.
type Store interface {
	Append(ctx context.Context, req events.AppendRequest) (events.Event, error)
	List(ctx context.Context, recipient id.UserID, category events.Category, page events.Page) ([]events.Event, error)
	MarkRead(ctx context.Context, eventID int64) (bool, error)
	MarkAllRead(ctx context.Context, recipient id.UserID, category events.Category) (int, error)
	UnreadCount(ctx context.Context, recipient id.UserID) (int, error)
}

// Service is the single write path for events. It serializes append+publish
// so subscribers observe events in exactly the order the store assigned IDs,
// and hands each appended event to the persistence inbox without blocking.
type Service struct {
	appendMu sync.Mutex

	store   Store
	bus     *bus.Bus
	persist chan<- events.Event
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPersistInbox routes appended events to a persistence worker. The send
// is non-blocking: when the inbox is full the event is dropped from the
// persistence path (never from the store) and counted.
func WithPersistInbox(inbox chan<- events.Event) Option {
	return func(s *Service) {
		s.persist = inbox
	}
}

// New creates the event service.
func New(store Store, b *bus.Bus, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if b == nil {
		return nil, fmt.Errorf("event bus is required")
	}

	svc := &Service{
		store:  store,
		bus:    b,
		tracer: otel.Tracer("employee-compass/events"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Append validates and stores the event, publishes it to live subscribers,
// and queues it for persistence. The in-memory commit is authoritative: a
// persistence failure later on never rolls it back.
func (s *Service) Append(ctx context.Context, req events.AppendRequest) (events.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Append",
		trace.WithAttributes(attribute.String("event.kind", req.Kind.String())),
	)
	defer span.End()

	s.appendMu.Lock()
	event, err := s.store.Append(ctx, req)
	if err != nil {
		s.appendMu.Unlock()
		if s.metrics != nil {
			s.metrics.AppendRejected.Inc()
		}
		return events.Event{}, err
	}
	s.bus.Publish(ctx, event)
	s.appendMu.Unlock()

	span.SetAttributes(attribute.Int64("event.id", event.ID))

	if s.metrics != nil {
		s.metrics.IncEventsAppended(string(event.Category))
	}
	s.enqueuePersist(ctx, event)

	return event, nil
}

func (s *Service) enqueuePersist(ctx context.Context, event events.Event) {
	if s.persist == nil {
		return
	}
	select {
	case s.persist <- event:
		if s.metrics != nil {
			s.metrics.PersistQueueDepth.Set(float64(len(s.persist)))
		}
	default:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "persist inbox full, dropping event from persistence path",
				"event_id", event.ID,
				"kind", event.Kind,
			)
		}
		if s.metrics != nil {
			s.metrics.PersistDropped.Inc()
		}
	}
}

// List returns the recipient's events in the category, newest first.
func (s *Service) List(ctx context.Context, recipient id.UserID, category events.Category, page events.Page) ([]events.Event, error) {
	return s.store.List(ctx, recipient, category, page)
}

// MarkRead transitions one notification to read. Unknown IDs are a benign
// no-op reported as false.
func (s *Service) MarkRead(ctx context.Context, eventID int64) (bool, error) {
	ok, err := s.store.MarkRead(ctx, eventID)
	if err == nil && ok && s.metrics != nil {
		s.metrics.NotificationsRead.Inc()
	}
	return ok, err
}

// MarkAllRead transitions every unread notification for the recipient.
func (s *Service) MarkAllRead(ctx context.Context, recipient id.UserID, category events.Category) (int, error) {
	n, err := s.store.MarkAllRead(ctx, recipient, category)
	if err == nil && s.metrics != nil && n > 0 {
		s.metrics.NotificationsRead.Add(float64(n))
	}
	return n, err
}

// UnreadCount returns the live unread notification count for the recipient.
func (s *Service) UnreadCount(ctx context.Context, recipient id.UserID) (int, error) {
	return s.store.UnreadCount(ctx, recipient)
}

// Subscribe registers a live callback for the recipient's events.
func (s *Service) Subscribe(recipient id.UserID, cb bus.Callback) *bus.Subscription {
	return s.bus.Subscribe(recipient, cb)
}

// SubscribeAll registers a live callback for all events (admin surfaces).
func (s *Service) SubscribeAll(cb bus.Callback) *bus.Subscription {
	return s.bus.SubscribeAll(cb)
}

// Unsubscribe removes a live subscription.
func (s *Service) Unsubscribe(sub *bus.Subscription) {
	s.bus.Unsubscribe(sub)
}
