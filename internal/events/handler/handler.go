// Package handler exposes the event core over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"employee-compass/internal/events"
	"employee-compass/internal/events/bus"
	"employee-compass/internal/platform/middleware"
	"employee-compass/internal/rbac"
	"employee-compass/internal/transport/http/shared"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
	"employee-compass/pkg/requestcontext"
)

// Service is the event core the handler delegates to.
type Service interface {
	Append(ctx context.Context, req events.AppendRequest) (events.Event, error)
	List(ctx context.Context, recipient id.UserID, category events.Category, page events.Page) ([]events.Event, error)
	MarkRead(ctx context.Context, eventID int64) (bool, error)
	MarkAllRead(ctx context.Context, recipient id.UserID, category events.Category) (int, error)
	UnreadCount(ctx context.Context, recipient id.UserID) (int, error)
	Subscribe(recipient id.UserID, cb bus.Callback) *bus.Subscription
	Unsubscribe(sub *bus.Subscription)
}

// Authorizer answers capability questions for cross-user access.
type Authorizer interface {
	Authorize(ctx context.Context, userID id.UserID, capability rbac.Capability) error
}

// Handler handles notification and audit-log endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	authz   Authorizer
	auth    func(http.Handler) http.Handler
}

// New creates the events Handler. auth is the authentication middleware the
// routes are mounted behind.
func New(service Service, authz Authorizer, auth func(http.Handler) http.Handler, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		authz:   authz,
		auth:    auth,
	}
}

// Register mounts the event routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/events", h.handleAppend)

		r.Get("/notifications", h.handleListNotifications)
		r.Get("/notifications/unread-count", h.handleUnreadCount)
		r.Get("/notifications/stream", h.handleStream)
		r.Post("/notifications/{id}/read", h.handleMarkRead)
		r.Post("/notifications/read-all", h.handleMarkAllRead)

		r.Get("/audit", h.handleListAudit)
		r.Get("/audit/users/{userID}", h.handleListAuditForUser)

		r.Post("/session/login", h.handleLogin)
		r.Post("/session/logout", h.handleLogout)
	})
}

// appendRequest is the wire form of an append call.
type appendRequest struct {
	Recipient  string            `json:"recipient,omitempty"`
	Kind       string            `json:"kind"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	SubjectRef string            `json:"subject_ref,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	NavigateTo string            `json:"navigate_to,omitempty"`
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetUserID(ctx)

	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid append request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	recipient := caller
	if req.Recipient != "" {
		parsed, err := id.ParseUserID(req.Recipient)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid recipient"))
			return
		}
		// Appending on someone else's behalf needs cross-user visibility.
		if parsed != caller {
			if err := h.authz.Authorize(ctx, caller, rbac.CapViewAllEmployees); err != nil {
				shared.WriteError(w, err)
				return
			}
		}
		recipient = parsed
	}

	appendReq := events.AppendRequest{
		Recipient:  recipient,
		Kind:       events.Kind(req.Kind),
		Title:      req.Title,
		Body:       req.Body,
		Metadata:   req.Metadata,
		NavigateTo: req.NavigateTo,
	}
	if req.SubjectRef != "" {
		ref, err := id.ParseEmployeeID(req.SubjectRef)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid subject_ref"))
			return
		}
		appendReq.SubjectRef = ref
	}

	event, err := h.service.Append(ctx, appendReq)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, events.CategoryNotification, middleware.GetUserID(r.Context()))
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, events.CategoryAudit, middleware.GetUserID(r.Context()))
}

// handleListAuditForUser lets hr/admin read another user's audit trail.
func (h *Handler) handleListAuditForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetUserID(ctx)

	target, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return
	}
	if target != caller {
		if err := h.authz.Authorize(ctx, caller, rbac.CapViewAllEmployees); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	h.list(w, r, events.CategoryAudit, target)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, category events.Category, recipient id.UserID) {
	ctx := r.Context()

	page := events.Page{Limit: 50}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		page.Limit = limit
	}
	if raw := r.URL.Query().Get("before_id"); raw != "" {
		before, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || before < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid before_id"))
			return
		}
		page.BeforeID = before
	}

	list, err := h.service.List(ctx, recipient, category, page)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var nextBefore int64
	if n := len(list); n > 0 && page.Limit > 0 && n == page.Limit {
		nextBefore = list[n-1].ID
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"events":         list,
		"next_before_id": nextBefore,
	})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.service.UnreadCount(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || eventID < 1 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event id"))
		return
	}

	ok, err := h.service.MarkRead(ctx, eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"read": ok})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.service.MarkAllRead(ctx, middleware.GetUserID(ctx), events.CategoryNotification)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"marked": count})
}

// handleStream pushes the caller's new events as server-sent events. The
// subscription lives for the duration of the request; closing the tab
// unsubscribes, and a re-opened stream does not replay earlier deliveries.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Deliver through a buffered channel so the bus never blocks on a slow
	// client; the subscriber callback stays short.
	inbox := make(chan events.Event, 64)
	sub := h.service.Subscribe(middleware.GetUserID(ctx), func(event events.Event) {
		select {
		case inbox <- event:
		default:
		}
	})
	defer h.service.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-inbox:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.sessionAudit(w, r, events.KindLogin, "User logged in from %s")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessionAudit(w, r, events.KindLogout, "User logged out from %s")
}

// sessionAudit appends a login/logout audit entry enriched with the device
// description parsed by the Device middleware.
func (h *Handler) sessionAudit(w http.ResponseWriter, r *http.Request, kind events.Kind, format string) {
	ctx := r.Context()
	device := requestcontext.Device(ctx)
	if device == "" {
		device = "unknown device"
	}

	metadata := map[string]string{"device": device}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		metadata["ip"] = ip
	}

	event, err := h.service.Append(ctx, events.AppendRequest{
		Recipient: middleware.GetUserID(ctx),
		Kind:      kind,
		Title:     "Session " + kind.String(),
		Body:      fmt.Sprintf(format, device),
		Metadata:  metadata,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, event)
}
