// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package authz

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"threadpress/internal/models"
)

// RoleSource is the read-only userID → role lookup backing the resolver.
// Implemented by store.UserStore.
type RoleSource interface {
	RoleByID(ctx context.Context, id uuid.UUID) (models.Role, bool, error)
}

// RoleCache holds resolved roles between requests so the stores don't hit
// the users table on every permission check. Implemented by
// cache.RoleCache; may be nil to disable caching (tests).
type RoleCache interface {
	Get(ctx context.Context, id uuid.UUID) (models.Role, bool)
	Set(ctx context.Context, id uuid.UUID, role models.Role)
}

// ActorResolver turns a caller's user ID into an Actor. Stores depend on
// this interface rather than the concrete Resolver.
type ActorResolver interface {
	ActorFor(ctx context.Context, userID uuid.UUID) Actor
}

// Resolver resolves roles through an optional cache with a database
// fallback. Lookups never fail the caller: a missing or unreadable user
// record degrades to the least-privileged role.
type Resolver struct {
	source RoleSource
	cache  RoleCache
}

// NewResolver creates a Resolver over the given source and cache.
func NewResolver(source RoleSource, cache RoleCache) *Resolver {
	return &Resolver{source: source, cache: cache}
}

// RoleOf returns the role for userID. Unknown users and lookup failures
// resolve to member; the ambiguity is logged rather than surfaced.
func (r *Resolver) RoleOf(ctx context.Context, userID uuid.UUID) models.Role {
	if userID == uuid.Nil {
		return models.RoleMember
	}

	if r.cache != nil {
		if role, ok := r.cache.Get(ctx, userID); ok {
			return role
		}
	}

	role, found, err := r.source.RoleByID(ctx, userID)
	if err != nil {
		slog.Warn("role lookup failed, treating as member", "user_id", userID, "error", err)
		return models.RoleMember
	}
	if !found {
		slog.Warn("role lookup for unknown user", "user_id", userID)
		return models.RoleMember
	}
	if !role.Valid() {
		slog.Warn("unknown role value in users table, treating as member", "user_id", userID, "role", role)
		role = models.RoleMember
	}

	if r.cache != nil {
		r.cache.Set(ctx, userID, role)
	}
	return role
}

// ActorFor bundles userID with its resolved role.
func (r *Resolver) ActorFor(ctx context.Context, userID uuid.UUID) Actor {
	return Actor{ID: userID, Role: r.RoleOf(ctx, userID)}
}
