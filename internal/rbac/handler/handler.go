// Package handler exposes role administration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"employee-compass/internal/platform/middleware"
	"employee-compass/internal/rbac"
	"employee-compass/internal/transport/http/shared"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

// Service is the role administration surface the handler delegates to.
type Service interface {
	EffectiveRole(ctx context.Context, userID id.UserID) (rbac.Role, error)
	Authorize(ctx context.Context, userID id.UserID, capability rbac.Capability) error
	GrantRole(ctx context.Context, actor, target id.UserID, role rbac.Role) error
	RevokeRole(ctx context.Context, actor, target id.UserID, role rbac.Role) error
	ListUsers(ctx context.Context) ([]rbac.UserRoles, error)
}

// Handler handles the /admin/users role-management endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	auth    func(http.Handler) http.Handler
}

// New creates the rbac Handler.
func New(service Service, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		auth:    auth,
	}
}

// Register mounts the role-management routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.require(rbac.CapManageUsers))

		r.Get("/admin/users", h.handleListUsers)
		r.Post("/admin/users/{userID}/roles", h.handleGrantRole)
		r.Delete("/admin/users/{userID}/roles/{role}", h.handleRevokeRole)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/me/role", h.handleMyRole)
	})
}

// require rejects callers lacking the capability. Denials fail closed.
func (h *Handler) require(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := h.service.Authorize(ctx, middleware.GetUserID(ctx), capability); err != nil {
				h.logger.WarnContext(ctx, "capability denied",
					"request_id", middleware.GetRequestID(ctx),
					"capability", string(capability),
				)
				shared.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

type grantRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.GrantRole(ctx, middleware.GetUserID(ctx), target, role); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id": target.String(),
		"role":    role.String(),
	})
}

func (h *Handler) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}
	role, err := rbac.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.service.RevokeRole(ctx, middleware.GetUserID(ctx), target, role); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMyRole returns the caller's effective role so clients can shape
// their UI without a second resolver.
func (h *Handler) handleMyRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := h.service.EffectiveRole(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"role": role.String()})
}
