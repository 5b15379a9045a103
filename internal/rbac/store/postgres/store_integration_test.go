//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"employee-compass/internal/rbac"
	"employee-compass/pkg/testutil/containers"
	id "employee-compass/pkg/domain"
)

func TestGrantLifecycle(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../../migrations")
	store := New(pg.DB)
	ctx := context.Background()

	user := id.NewUserID()

	grants, err := store.Grants(ctx, user)
	require.NoError(t, err)
	require.Empty(t, grants)

	require.NoError(t, store.Add(ctx, rbac.Grant{
		UserID:    user,
		Role:      rbac.RoleHR,
		GrantedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Add(ctx, rbac.Grant{
		UserID:    user,
		Role:      rbac.RoleAdmin,
		GrantedAt: time.Now().UTC(),
	}))

	grants, err = store.Grants(ctx, user)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	removed, err := store.Remove(ctx, user, rbac.RoleHR)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	grants, err = store.Grants(ctx, user)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, rbac.RoleAdmin, grants[0].Role)
}

func TestListUsersComputesEffectiveRole(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../../migrations")
	store := New(pg.DB)
	ctx := context.Background()

	alice := id.NewUserID()
	bob := id.NewUserID()

	require.NoError(t, store.Add(ctx, rbac.Grant{UserID: alice, Role: rbac.RoleUser, GrantedAt: time.Now().UTC()}))
	require.NoError(t, store.Add(ctx, rbac.Grant{UserID: alice, Role: rbac.RoleAdmin, GrantedAt: time.Now().UTC()}))
	require.NoError(t, store.Add(ctx, rbac.Grant{UserID: bob, Role: rbac.RoleHR, GrantedAt: time.Now().UTC()}))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	byUser := map[id.UserID]rbac.UserRoles{}
	for _, u := range users {
		byUser[u.UserID] = u
	}
	require.Equal(t, rbac.RoleAdmin, byUser[alice].Effective)
	require.Len(t, byUser[alice].Grants, 2)
	require.Equal(t, rbac.RoleHR, byUser[bob].Effective)
}
