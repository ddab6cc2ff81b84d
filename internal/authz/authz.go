// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package authz is the single authorization funnel for the forum. Every
// store operation resolves its caller into an Actor and evaluates one of
// the two decision functions below; permission logic is never duplicated
// at call sites.
package authz

import (
	"github.com/google/uuid"

	"threadpress/internal/models"
)

// Actor is the identity performing an operation: a user ID and the role
// resolved for it. The zero-ID Actor is an unauthenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// Anonymous reports whether the actor has no resolvable identity.
func (a Actor) Anonymous() bool {
	return a.ID == uuid.Nil
}

// CanManage decides whether the actor may edit or delete a resource owned
// by ownerID. Admins and moderators may manage anything; everyone else
// only their own resources. Anonymous actors can manage nothing.
func CanManage(actor Actor, ownerID uuid.UUID) bool {
	if actor.Anonymous() {
		return false
	}
	return actor.Role.IsStaff() || actor.ID == ownerID
}

// CanAdminister decides whether the actor may manage categories and user
// roles. Categories have no owner, so ownership never applies here.
func CanAdminister(actor Actor) bool {
	return !actor.Anonymous() && actor.Role == models.RoleAdmin
}
