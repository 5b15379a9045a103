// Package postgres persists events for durability beyond the process
// lifetime. The in-memory store stays authoritative for reads; this store is
// the fire-and-forget persistence collaborator fed by the worker.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"employee-compass/internal/events"
	id "employee-compass/pkg/domain"
)

// Store implements events.Saver backed by Postgres.
type Store struct {
	db *sql.DB
}

// New creates a Postgres event store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts one event. Inserts are idempotent on (ordinal, recipient) so a
// replayed persistence attempt does not duplicate rows.
func (s *Store) Save(ctx context.Context, event events.Event) error {
	metadata := []byte("{}")
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
	}

	var subjectRef any
	if !event.SubjectRef.IsNil() {
		subjectRef = event.SubjectRef.String()
	}

	query := `
		INSERT INTO events (ordinal, recipient, category, kind, title, body, subject_ref, metadata, navigate_to, created_at, read, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ordinal, recipient) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Recipient.String(),
		string(event.Category),
		string(event.Kind),
		event.Title,
		event.Body,
		subjectRef,
		metadata,
		event.NavigateTo,
		event.CreatedAt,
		event.Read,
		event.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByRecipient returns persisted events for a recipient, newest first.
// Used by operational tooling and tests; live traffic reads the memory store.
func (s *Store) ListByRecipient(ctx context.Context, recipient id.UserID, category events.Category) ([]events.Event, error) {
	query := `
		SELECT ordinal, recipient, category, kind, title, body, subject_ref, metadata, navigate_to, created_at, read, read_at
		FROM events
		WHERE recipient = $1 AND category = $2
		ORDER BY ordinal DESC
	`
	rows, err := s.db.QueryContext(ctx, query, recipient.String(), string(category))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			event      events.Event
			recipient  string
			category   string
			kind       string
			subjectRef sql.NullString
			metadata   []byte
			readAt     sql.NullTime
		)
		if err := rows.Scan(&event.ID, &recipient, &category, &kind, &event.Title, &event.Body,
			&subjectRef, &metadata, &event.NavigateTo, &event.CreatedAt, &event.Read, &readAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.Recipient, err = id.ParseUserID(recipient)
		if err != nil {
			return nil, fmt.Errorf("parse recipient: %w", err)
		}
		event.Category = events.Category(category)
		event.Kind = events.Kind(kind)
		if subjectRef.Valid {
			ref, err := id.ParseEmployeeID(subjectRef.String)
			if err != nil {
				return nil, fmt.Errorf("parse subject ref: %w", err)
			}
			event.SubjectRef = ref
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal event metadata: %w", err)
			}
		}
		if readAt.Valid {
			t := readAt.Time
			event.ReadAt = &t
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
