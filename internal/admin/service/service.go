// Package service applies admin settings changes and records them in the
// audit log.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"employee-compass/internal/admin"
	"employee-compass/internal/events"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
	"employee-compass/pkg/platform/sentinel"
	"employee-compass/pkg/requestcontext"
)

// SettingsStore holds thresholds and departments.
type SettingsStore interface {
	Thresholds(ctx context.Context) (admin.Thresholds, error)
	SetThresholds(ctx context.Context, t admin.Thresholds) error
	Departments(ctx context.Context) ([]admin.Department, error)
	AddDepartment(ctx context.Context, name string) (admin.Department, error)
	RemoveDepartment(ctx context.Context, name string) error
}

// Auditor records settings changes in the audit log.
type Auditor interface {
	Append(ctx context.Context, req events.AppendRequest) (events.Event, error)
}

// Service manages admin settings.
type Service struct {
	store   SettingsStore
	auditor Auditor
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditor wires settings changes into the audit log.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// New creates the admin service.
func New(store SettingsStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("settings store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Thresholds returns the current risk bands.
func (s *Service) Thresholds(ctx context.Context) (admin.Thresholds, error) {
	t, err := s.store.Thresholds(ctx)
	if err != nil {
		return admin.Thresholds{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load thresholds")
	}
	return t, nil
}

// UpdateThresholds validates and replaces the risk bands.
func (s *Service) UpdateThresholds(ctx context.Context, actor id.UserID, t admin.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.SetThresholds(ctx, t); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store thresholds")
	}

	s.audit(ctx, actor, events.AppendRequest{
		Recipient: actor,
		Kind:      events.KindRecordEdit,
		Title:     "Risk thresholds updated",
		Body: fmt.Sprintf("Risk bands set to low 0-%d, medium %d-%d, high %d-100",
			t.LowMax, t.LowMax+1, t.MediumMax, t.MediumMax+1),
		Metadata: map[string]string{
			"low_max":    strconv.Itoa(t.LowMax),
			"medium_max": strconv.Itoa(t.MediumMax),
		},
	})
	return nil
}

// Departments lists all departments.
func (s *Service) Departments(ctx context.Context) ([]admin.Department, error) {
	depts, err := s.store.Departments(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list departments")
	}
	return depts, nil
}

// AddDepartment creates a department and records the change.
func (s *Service) AddDepartment(ctx context.Context, actor id.UserID, name string) (admin.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return admin.Department{}, dErrors.New(dErrors.CodeInvalidInput, "department name is required")
	}

	dept, err := s.store.AddDepartment(ctx, name)
	if errors.Is(err, sentinel.ErrConflict) {
		return admin.Department{}, dErrors.Newf(dErrors.CodeConflict, "department %q already exists", name)
	}
	if err != nil {
		return admin.Department{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add department")
	}

	s.audit(ctx, actor, events.AppendRequest{
		Recipient: actor,
		Kind:      events.KindRecordAdd,
		Title:     "Department added",
		Body:      fmt.Sprintf("Added department %q", name),
		Metadata:  map[string]string{"department": name},
	})
	return dept, nil
}

// RemoveDepartment deletes a department and records the change.
func (s *Service) RemoveDepartment(ctx context.Context, actor id.UserID, name string) error {
	err := s.store.RemoveDepartment(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "department %q not found", name)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove department")
	}

	s.audit(ctx, actor, events.AppendRequest{
		Recipient: actor,
		Kind:      events.KindRecordDelete,
		Title:     "Department removed",
		Body:      fmt.Sprintf("Removed department %q", name),
		Metadata:  map[string]string{"department": name},
	})
	return nil
}

func (s *Service) audit(ctx context.Context, actor id.UserID, req events.AppendRequest) {
	if s.auditor == nil || actor.IsNil() {
		return
	}
	if _, err := s.auditor.Append(ctx, req); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to append audit event for settings change",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
