//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"employee-compass/internal/rbac"
	"employee-compass/pkg/testutil/containers"
	id "employee-compass/pkg/domain"
)

func TestRoleCacheRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	cache := New(rc.Client, time.Minute)
	ctx := context.Background()

	user := id.NewUserID()

	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, user, rbac.RoleHR))

	role, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rbac.RoleHR, role)

	require.NoError(t, cache.Invalidate(ctx, user))

	_, ok, err = cache.Get(ctx, user)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoleCacheExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	cache := New(rc.Client, 50*time.Millisecond)
	ctx := context.Background()

	user := id.NewUserID()
	require.NoError(t, cache.Set(ctx, user, rbac.RoleAdmin))

	time.Sleep(200 * time.Millisecond)

	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCorruptEntryReadsAsMiss(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	cache := New(rc.Client, time.Minute)
	ctx := context.Background()

	user := id.NewUserID()
	require.NoError(t, rc.Client.Set(ctx, "rbac:role:"+user.String(), "superuser", time.Minute).Err())

	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *RoleCache
	ctx := context.Background()
	user := id.NewUserID()

	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.Set(ctx, user, rbac.RoleHR))
	require.NoError(t, cache.Invalidate(ctx, user))
}
