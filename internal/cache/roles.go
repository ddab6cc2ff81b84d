// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// roles.go provides a Valkey-backed cache for resolved user roles. The
// authorization resolver consults it before hitting the users table;
// entries are short-lived and invalidated eagerly on role changes.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"threadpress/internal/models"
)

const (
	// roleKeyPrefix namespaces role entries in Valkey.
	roleKeyPrefix = "role:"

	// DefaultRoleTTL bounds how stale a cached role can get if an
	// invalidation is missed.
	DefaultRoleTTL = time.Minute
)

// RoleCache caches userID → role lookups in Valkey. All methods degrade
// on cache errors — a broken cache only costs a database round-trip.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoleCache creates a role cache backed by the given Valkey client.
func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	if ttl == 0 {
		ttl = DefaultRoleTTL
	}
	return &RoleCache{client: client, ttl: ttl}
}

// Get retrieves a cached role. The second return value is false on miss.
func (rc *RoleCache) Get(ctx context.Context, id uuid.UUID) (models.Role, bool) {
	val, err := rc.client.Get(ctx, roleKeyPrefix+id.String()).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("role cache get error", "user_id", id, "error", err)
		return "", false
	}
	role := models.Role(val)
	if !role.Valid() {
		return "", false
	}
	return role, true
}

// Set stores a resolved role with the configured TTL.
func (rc *RoleCache) Set(ctx context.Context, id uuid.UUID, role models.Role) {
	if err := rc.client.Set(ctx, roleKeyPrefix+id.String(), string(role), rc.ttl).Err(); err != nil {
		slog.Warn("role cache set error", "user_id", id, "error", err)
	}
}

// Invalidate drops a user's cached role, forcing the next permission
// check back to the database. Called after role changes.
func (rc *RoleCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := rc.client.Del(ctx, roleKeyPrefix+id.String()).Err(); err != nil {
		slog.Warn("role cache invalidate error", "user_id", id, "error", err)
	}
}
