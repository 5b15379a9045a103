// Package bus delivers freshly appended events to live subscribers.
//
// The bus holds no history: a subscriber only sees events published after its
// subscription was created, and re-subscribing never replays earlier
// deliveries. Durable history comes from the event store's List operation.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"employee-compass/internal/events"
	id "employee-compass/pkg/domain"
)

// Callback is invoked once per matching event, in append order.
// Callbacks run on the publisher's goroutine; keep them short.
type Callback func(event events.Event)

// Subscription is a live registration scoped to a UI session.
type Subscription struct {
	id        uint64
	recipient id.UserID
	all       bool
	cb        Callback

	// lastID guards against duplicate delivery within a session: a
	// subscriber never sees the same event twice, even if a publisher
	// misbehaves.
	lastID int64
}

// Bus fans out published events to subscribers.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*Subscription

	logger  *slog.Logger
	onPanic func()
}

// Option configures the Bus.
type Option func(*Bus)

// WithLogger sets a logger for subscriber failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithPanicHook registers a callback invoked whenever a subscriber panics,
// typically to bump a metric.
func WithPanicHook(hook func()) Option {
	return func(b *Bus) {
		b.onPanic = hook
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a callback for events addressed to recipient.
// The returned subscription stays live until Unsubscribe.
func (b *Bus) Subscribe(recipient id.UserID, cb Callback) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, recipient: recipient, cb: cb}
	b.subs = append(b.subs, sub)
	return sub
}

// SubscribeAll registers a callback for every event regardless of recipient.
// Used by admin surfaces with view-all access.
func (b *Bus) SubscribeAll(cb Callback) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, all: true, cb: cb}
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes the subscription. Delivery stops immediately; no events
// are queued for an unsubscribed session.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.subs {
		if existing.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every matching subscriber in subscription
// order. A panicking callback is isolated: it is logged and delivery
// continues to the remaining subscribers.
//
// Publish holds the bus lock for the whole fan-out so event order is
// preserved per subscriber across concurrent publishers.
func (b *Bus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.all && sub.recipient != event.Recipient {
			continue
		}
		if event.ID <= sub.lastID {
			continue
		}
		sub.lastID = event.ID
		b.deliver(ctx, sub, event)
	}
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.logger != nil {
				b.logger.ErrorContext(ctx, "event subscriber panicked",
					"subscription_id", sub.id,
					"event_id", event.ID,
					"panic", r,
				)
			}
			if b.onPanic != nil {
				b.onPanic()
			}
		}
	}()
	sub.cb(event)
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
