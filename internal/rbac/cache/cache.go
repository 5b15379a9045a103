// Package cache provides a Redis-backed cache for effective-role lookups.
// Role grants change rarely and are read on nearly every authorized request,
// so a short TTL cache keeps the grant store off the hot path.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"employee-compass/internal/rbac"
	id "employee-compass/pkg/domain"
)

const roleKeyPrefix = "rbac:role:"

// RoleCache caches effective roles with a TTL. A nil *RoleCache is safe to
// use: every lookup misses and every write is a no-op, so callers need no
// conditionals when Redis is not configured.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a role cache. Returns nil when client is nil.
func New(client *redis.Client, ttl time.Duration) *RoleCache {
	if client == nil {
		return nil
	}
	return &RoleCache{client: client, ttl: ttl}
}

// Get returns the cached effective role and whether it was present.
func (c *RoleCache) Get(ctx context.Context, userID id.UserID) (rbac.Role, bool, error) {
	if c == nil {
		return "", false, nil
	}
	val, err := c.client.Get(ctx, roleKeyPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("role cache get: %w", err)
	}
	role := rbac.Role(val)
	if !role.IsValid() {
		// Corrupt entry; treat as a miss so the resolver recomputes it.
		return "", false, nil
	}
	return role, true, nil
}

// Set stores the effective role with the configured TTL.
func (c *RoleCache) Set(ctx context.Context, userID id.UserID, role rbac.Role) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, roleKeyPrefix+userID.String(), role.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached role after a grant change.
func (c *RoleCache) Invalidate(ctx context.Context, userID id.UserID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, roleKeyPrefix+userID.String()).Err(); err != nil {
		return fmt.Errorf("role cache invalidate: %w", err)
	}
	return nil
}
