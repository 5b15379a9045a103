// Package service resolves effective roles and manages role grants.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"employee-compass/internal/events"
	"employee-compass/internal/rbac"
	"employee-compass/internal/rbac/cache"
	"employee-compass/internal/platform/metrics"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
	"employee-compass/pkg/requestcontext"
)

// GrantStore supplies and mutates role grants. The resolver itself never
// touches storage; this service is the seam between the two.
type GrantStore interface {
	Grants(ctx context.Context, userID id.UserID) ([]rbac.Grant, error)
	Add(ctx context.Context, grant rbac.Grant) error
	Remove(ctx context.Context, userID id.UserID, role rbac.Role) (int, error)
	ListUsers(ctx context.Context) ([]rbac.UserRoles, error)
}

// Auditor records role-management actions in the audit log.
type Auditor interface {
	Append(ctx context.Context, req events.AppendRequest) (events.Event, error)
}

// Service answers authorization questions and administers grants.
type Service struct {
	store   GrantStore
	cache   *cache.RoleCache
	auditor Auditor
	logger  *slog.Logger
	metrics *metrics.Metrics
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

// WithCache enables the effective-role cache. A nil cache is accepted and
// behaves as a permanent miss.
func WithCache(c *cache.RoleCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithAuditor wires grant changes into the audit log.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// New creates the rbac service.
func New(store GrantStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("grant store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EffectiveRole returns the identity's single effective role. Unknown
// identities resolve to RoleUser; that is not an error.
func (s *Service) EffectiveRole(ctx context.Context, userID id.UserID) (rbac.Role, error) {
	if role, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		if s.metrics != nil {
			s.metrics.RoleCacheHits.Inc()
		}
		return role, nil
	} else if err != nil && s.logger != nil {
		// Cache trouble degrades to a store lookup, never to a failure.
		s.logger.WarnContext(ctx, "role cache read failed", "error", err)
	}

	grants, err := s.store.Grants(ctx, userID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role grants")
	}
	role := rbac.Resolve(grants)

	if s.metrics != nil {
		s.metrics.RoleCacheMisses.Inc()
	}
	if err := s.cache.Set(ctx, userID, role); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "role cache write failed", "error", err)
	}
	return role, nil
}

// Can reports whether the identity holds the capability.
func (s *Service) Can(ctx context.Context, userID id.UserID, capability rbac.Capability) (bool, error) {
	role, err := s.EffectiveRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return rbac.Can(role, capability), nil
}

// Authorize returns CodeForbidden when the identity lacks the capability.
func (s *Service) Authorize(ctx context.Context, userID id.UserID, capability rbac.Capability) error {
	allowed, err := s.Can(ctx, userID, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return dErrors.Newf(dErrors.CodeForbidden, "missing capability %s", capability)
	}
	return nil
}

// GrantRole adds a role grant to the target identity and records the change
// in the actor's audit log.
func (s *Service) GrantRole(ctx context.Context, actor, target id.UserID, role rbac.Role) error {
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid role %q", role)
	}
	if target.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "target user is required")
	}

	grant := rbac.Grant{UserID: target, Role: role, GrantedAt: requestcontext.Now(ctx)}
	if err := s.store.Add(ctx, grant); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add role grant")
	}
	if err := s.cache.Invalidate(ctx, target); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "role cache invalidation failed", "error", err, "user_id", target)
	}

	s.audit(ctx, actor, events.AppendRequest{
		Recipient: actor,
		Kind:      events.KindRecordEdit,
		Title:     "Role granted",
		Body:      fmt.Sprintf("Granted role %s to user %s", role, target),
		Metadata: map[string]string{
			"target_user": target.String(),
			"role":        role.String(),
		},
	})
	return nil
}

// RevokeRole removes every grant of the role from the target identity.
func (s *Service) RevokeRole(ctx context.Context, actor, target id.UserID, role rbac.Role) error {
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid role %q", role)
	}

	removed, err := s.store.Remove(ctx, target, role)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove role grant")
	}
	if removed == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "user %s holds no %s grant", target, role)
	}
	if err := s.cache.Invalidate(ctx, target); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "role cache invalidation failed", "error", err, "user_id", target)
	}

	s.audit(ctx, actor, events.AppendRequest{
		Recipient: actor,
		Kind:      events.KindRecordEdit,
		Title:     "Role revoked",
		Body:      fmt.Sprintf("Revoked role %s from user %s", role, target),
		Metadata: map[string]string{
			"target_user": target.String(),
			"role":        role.String(),
		},
	})
	return nil
}

// ListUsers returns every identity holding grants, with effective roles.
func (s *Service) ListUsers(ctx context.Context) ([]rbac.UserRoles, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list user roles")
	}
	return users, nil
}

func (s *Service) audit(ctx context.Context, actor id.UserID, req events.AppendRequest) {
	if s.auditor == nil || actor.IsNil() {
		return
	}
	if _, err := s.auditor.Append(ctx, req); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to append audit event for role change",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
