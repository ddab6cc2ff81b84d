// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"threadpress/internal/middleware"
	"threadpress/internal/session"
	"threadpress/internal/store"
)

// Auth handles registration, login, logout and the current-user endpoint.
type Auth struct {
	users    *store.UserStore
	sessions *session.Store
}

// NewAuth returns the authentication handler group.
func NewAuth(users *store.UserStore, sessions *session.Store) *Auth {
	return &Auth{users: users, sessions: sessions}
}

// Register creates a new member account and logs it in.
// POST /api/v1/auth/register
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg := validateUsername(req.Username); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "Password must be at least 8 characters.")
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	if _, err := h.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}); err != nil {
		slog.Error("session create failed after registration", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and starts a session.
// POST /api/v1/auth/login
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	// Same response for unknown user and wrong password.
	if user == nil || !h.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if _, err := h.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}); err != nil {
		slog.Error("session create failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

// Logout destroys the current session.
// POST /api/v1/auth/logout
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's account.
// GET /api/v1/auth/me
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if user == nil {
		// Session outlived the account.
		_ = h.sessions.Destroy(r.Context(), w, r)
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user.PostCount = h.users.PostCountBy(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, user)
}
