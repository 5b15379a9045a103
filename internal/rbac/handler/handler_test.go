package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"employee-compass/internal/platform/logger"
	"employee-compass/internal/platform/middleware"
	"employee-compass/internal/platform/token"
	"employee-compass/internal/rbac"
	rbacservice "employee-compass/internal/rbac/service"
	rbacmemory "employee-compass/internal/rbac/store/memory"
	id "employee-compass/pkg/domain"
)

type fixture struct {
	router chi.Router
	tokens *token.Service
	grants *rbacmemory.Store
	admin  id.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New()

	grants := rbacmemory.New()
	service, err := rbacservice.New(grants)
	require.NoError(t, err)

	admin := id.NewUserID()
	require.NoError(t, grants.Add(t.Context(), rbac.Grant{
		UserID:    admin,
		Role:      rbac.RoleAdmin,
		GrantedAt: time.Now(),
	}))

	tokens := token.New("test-signing-key")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	New(service, middleware.RequireAuth(tokens, log), log).Register(r)

	return &fixture{router: r, tokens: tokens, grants: grants, admin: admin}
}

func (f *fixture) do(t *testing.T, method, path string, body any, user id.UserID) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	accessToken, err := f.tokens.GenerateAccessToken(user, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminEndpointsRequireManageUsers(t *testing.T) {
	f := newFixture(t)
	outsider := id.NewUserID()

	rec := f.do(t, http.MethodGet, "/admin/users", nil, outsider)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/users/"+id.NewUserID().String()+"/roles",
		map[string]string{"role": "hr"}, outsider)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGrantRevokeAndListFlow(t *testing.T) {
	f := newFixture(t)
	target := id.NewUserID()

	rec := f.do(t, http.MethodPost, "/admin/users/"+target.String()+"/roles",
		map[string]string{"role": "hr"}, f.admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/users", nil, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Users []rbac.UserRoles `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listResp))
	require.Len(t, listResp.Users, 2) // bootstrap admin + target

	rec = f.do(t, http.MethodDelete, "/admin/users/"+target.String()+"/roles/hr", nil, f.admin)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/admin/users/"+target.String()+"/roles/hr", nil, f.admin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrantValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/users/not-a-uuid/roles",
		map[string]string{"role": "hr"}, f.admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/users/"+id.NewUserID().String()+"/roles",
		map[string]string{"role": "superuser"}, f.admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyRole(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/me/role", nil, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"role":"admin"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/me/role", nil, id.NewUserID())
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"role":"user"}`, rec.Body.String())
}
