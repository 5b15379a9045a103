// Package memory provides the canonical in-memory event store.
//
// The store is the single source of truth for events during the process
// lifetime. Appends, read-state transitions, and the per-recipient unread
// counters all mutate under one lock, so no caller can observe a
// partially-applied append.
package memory

import (
	"context"
	"sync"
	"time"

	"employee-compass/internal/events"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

// Store holds events in arrival order, partitioned per recipient.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	lastAt time.Time

	all    []*events.Event
	byID   map[int64]*events.Event
	byUser map[id.UserID][]*events.Event

	// unread is derived state, maintained under the same lock as every
	// mutation. It must always equal the count of unread notifications for
	// the recipient in byUser.
	unread map[id.UserID]int

	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nextID: 1,
		byID:   make(map[int64]*events.Event),
		byUser: make(map[id.UserID][]*events.Event),
		unread: make(map[id.UserID]int),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates the request, assigns the next ordinal ID and a monotonic
// non-decreasing timestamp, stores the event, and returns a copy.
//
// Errors: CodeInvalidInput when the kind is outside the closed set,
// CodeBadRequest when the recipient is unset. No state changes on failure.
func (s *Store) Append(_ context.Context, req events.AppendRequest) (events.Event, error) {
	category, ok := req.Kind.Category()
	if !ok {
		return events.Event{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown event kind %q", req.Kind)
	}
	if req.Recipient.IsNil() {
		return events.Event{}, dErrors.New(dErrors.CodeBadRequest, "event recipient is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if at.Before(s.lastAt) {
		at = s.lastAt
	}
	s.lastAt = at

	event := &events.Event{
		ID:         s.nextID,
		Recipient:  req.Recipient,
		Category:   category,
		Kind:       req.Kind,
		Title:      req.Title,
		Body:       req.Body,
		SubjectRef: req.SubjectRef,
		Metadata:   cloneMetadata(req.Metadata),
		NavigateTo: req.NavigateTo,
		CreatedAt:  at,
	}
	s.nextID++

	s.all = append(s.all, event)
	s.byID[event.ID] = event
	s.byUser[event.Recipient] = append(s.byUser[event.Recipient], event)
	if category == events.CategoryNotification {
		s.unread[event.Recipient]++
	}

	return *event, nil
}

// List returns the recipient's events in the category, most recent first.
// Pagination restarts from the BeforeID cursor; results are bounded by Limit
// and by the stored count.
func (s *Store) List(_ context.Context, recipient id.UserID, category events.Category, page events.Page) ([]events.Event, error) {
	if !category.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown event category %q", category)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.byUser[recipient]
	out := make([]events.Event, 0, len(owned))
	for i := len(owned) - 1; i >= 0; i-- {
		e := owned[i]
		if e.Category != category {
			continue
		}
		if page.BeforeID > 0 && e.ID >= page.BeforeID {
			continue
		}
		out = append(out, *e)
		if page.Limit > 0 && len(out) == page.Limit {
			break
		}
	}
	return out, nil
}

// MarkRead transitions a notification to read. It is idempotent: the second
// call on the same ID still returns true. Unknown IDs and audit entries
// (which carry no read state) return false without error, since UI
// double-clicks are expected.
func (s *Store) MarkRead(_ context.Context, eventID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.byID[eventID]
	if !ok || event.Category != events.CategoryNotification {
		return false, nil
	}
	if !event.Read {
		event.Read = true
		at := s.now()
		event.ReadAt = &at
		s.unread[event.Recipient]--
	}
	return true, nil
}

// MarkAllRead transitions every unread event for the recipient and category
// to read, returning the number changed. A second call returns 0.
func (s *Store) MarkAllRead(_ context.Context, recipient id.UserID, category events.Category) (int, error) {
	if !category.IsValid() {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unknown event category %q", category)
	}

	if category == events.CategoryAudit {
		// Audit entries are a write-only log with no read state.
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	at := s.now()
	for _, event := range s.byUser[recipient] {
		if event.Category != category || event.Read {
			continue
		}
		event.Read = true
		readAt := at
		event.ReadAt = &readAt
		changed++
	}
	if changed > 0 {
		s.unread[recipient] -= changed
	}
	return changed, nil
}

// UnreadCount returns the number of unread notifications for the recipient.
// The counter is maintained synchronously with every append and read-state
// transition; it is always recomputable from the stored events.
func (s *Store) UnreadCount(_ context.Context, recipient id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread[recipient], nil
}

// Len returns the total number of stored events across all recipients.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
