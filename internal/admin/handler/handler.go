// Package handler exposes admin settings over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"employee-compass/internal/admin"
	"employee-compass/internal/platform/middleware"
	"employee-compass/internal/rbac"
	"employee-compass/internal/transport/http/shared"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

// Service is the settings surface the handler delegates to.
type Service interface {
	Thresholds(ctx context.Context) (admin.Thresholds, error)
	UpdateThresholds(ctx context.Context, actor id.UserID, t admin.Thresholds) error
	Departments(ctx context.Context) ([]admin.Department, error)
	AddDepartment(ctx context.Context, actor id.UserID, name string) (admin.Department, error)
	RemoveDepartment(ctx context.Context, actor id.UserID, name string) error
}

// Authorizer answers capability questions.
type Authorizer interface {
	Authorize(ctx context.Context, userID id.UserID, capability rbac.Capability) error
}

// Handler handles the admin settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	authz   Authorizer
	auth    func(http.Handler) http.Handler
}

// New creates the admin Handler.
func New(service Service, authz Authorizer, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		authz:   authz,
		auth:    auth,
	}
}

// Register mounts the settings routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/admin/settings/thresholds", func(r chi.Router) {
			r.Get("/", h.handleGetThresholds)
			r.With(h.require(rbac.CapManageThresholds)).Put("/", h.handleUpdateThresholds)
		})

		r.Route("/admin/departments", func(r chi.Router) {
			r.Get("/", h.handleListDepartments)
			r.With(h.require(rbac.CapManageDepartments)).Post("/", h.handleAddDepartment)
			r.With(h.require(rbac.CapManageDepartments)).Delete("/{name}", h.handleRemoveDepartment)
		})
	})
}

func (h *Handler) require(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := h.authz.Authorize(ctx, middleware.GetUserID(ctx), capability); err != nil {
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

func (h *Handler) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Thresholds(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var t admin.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.UpdateThresholds(ctx, middleware.GetUserID(ctx), t); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.service.Departments(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"departments": depts})
}

type departmentRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleAddDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	dept, err := h.service.AddDepartment(ctx, middleware.GetUserID(ctx), req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, dept)
}

func (h *Handler) handleRemoveDepartment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid department name"))
		return
	}
	if err := h.service.RemoveDepartment(ctx, middleware.GetUserID(ctx), name); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
