// Package worker drains appended events into a persistence collaborator.
package worker

import (
	"context"
	"log/slog"

	"employee-compass/internal/events"
)

// Worker consumes events from an inbox channel and hands them to a Saver.
// The in-memory store is already the source of truth by the time an event
// reaches the inbox, so a failed save is surfaced through the logger and the
// failure hook but never retried or propagated back to the caller.
type Worker struct {
	saver     events.Saver
	inbox     <-chan events.Event
	logger    *slog.Logger
	onFailure func()
}

// Option configures the Worker.
type Option func(*Worker)

// WithLogger sets a logger for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithFailureHook registers a callback invoked on every failed save,
// typically to bump a metric.
func WithFailureHook(hook func()) Option {
	return func(w *Worker) {
		w.onFailure = hook
	}
}

// New creates a worker reading from inbox.
func New(saver events.Saver, inbox <-chan events.Event, opts ...Option) *Worker {
	w := &Worker{saver: saver, inbox: inbox}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.saver.Save(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "event persistence failed",
						"event_id", event.ID,
						"kind", event.Kind,
						"error", err,
					)
				}
				if w.onFailure != nil {
					w.onFailure()
				}
			}
		}
	}
}
