// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"threadpress/internal/cache"
	"threadpress/internal/middleware"
	"threadpress/internal/models"
	"threadpress/internal/session"
	"threadpress/internal/store"
)

// Users handles public profiles, self-service profile edits and role
// administration.
type Users struct {
	users     *store.UserStore
	sessions  *session.Store
	roleCache *cache.RoleCache
}

// NewUsers returns the user handler group. roleCache may be nil in tests.
func NewUsers(users *store.UserStore, sessions *session.Store, roleCache *cache.RoleCache) *Users {
	return &Users{users: users, sessions: sessions, roleCache: roleCache}
}

// profile is the public view of a user: no email, no password hash.
type profile struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Role           models.Role `json:"role"`
	ProfilePicture string      `json:"profile_picture"`
	PostCount      int         `json:"post_count"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Profile returns a user's public profile by username.
// GET /api/v1/users/{username}
func (h *Users) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, profile{
		ID:             user.ID.String(),
		Username:       user.Username,
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
		PostCount:      h.users.PostCountBy(r.Context(), user.ID),
		CreatedAt:      user.CreatedAt,
	})
}

// UpdateMe edits the authenticated user's own profile and refreshes the
// username snapshot held in the session.
// PUT /api/v1/me
func (h *Users) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Username       string `json:"username"`
		ProfilePicture string `json:"profile_picture"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateUsername(req.Username); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if msg := validateProfilePicture(req.ProfilePicture); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := h.users.UpdateProfile(r.Context(), sess.UserID, sess.UserID, req.Username, req.ProfilePicture); err != nil {
		respondStoreError(w, err)
		return
	}

	// Keep the session's display name in step with the database.
	sess.Username = req.Username
	if err := h.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Warn("session refresh failed", "user_id", sess.UserID, "error", err)
	}

	user, err := h.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetRole changes a user's role. Admin only; the cached role is dropped so
// the change takes effect on the user's next request.
// PUT /api/v1/users/{userID}/role
func (h *Users) SetRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(w, r, "userID")
	if !ok {
		return
	}

	var req struct {
		Role models.Role `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	actorID := middleware.UserIDFromCtx(r.Context())
	if err := h.users.SetRole(r.Context(), actorID, userID, req.Role); err != nil {
		respondStoreError(w, err)
		return
	}

	if h.roleCache != nil {
		h.roleCache.Invalidate(r.Context(), userID)
	}

	slog.Info("role changed", "user_id", userID, "role", req.Role, "changed_by", actorID)
	w.WriteHeader(http.StatusNoContent)
}
