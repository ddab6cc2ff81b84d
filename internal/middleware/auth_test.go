// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"threadpress/internal/session"
)

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	var called bool
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called {
		t.Error("handler must not run for anonymous requests")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestRequireAuthPassesSession(t *testing.T) {
	var called bool
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	data := &session.Data{UserID: uuid.New(), Username: "tester"}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), SessionKey, data))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !called {
		t.Error("handler should run for authenticated requests")
	}
}

func TestSessionFromCtx(t *testing.T) {
	if got := SessionFromCtx(context.Background()); got != nil {
		t.Errorf("empty context: got %+v, want nil", got)
	}

	data := &session.Data{UserID: uuid.New(), Username: "tester"}
	ctx := context.WithValue(context.Background(), SessionKey, data)
	if got := SessionFromCtx(ctx); got != data {
		t.Error("expected the stored session back")
	}
}

func TestUserIDFromCtx(t *testing.T) {
	if got := UserIDFromCtx(context.Background()); got != uuid.Nil {
		t.Errorf("anonymous: got %s, want uuid.Nil", got)
	}

	id := uuid.New()
	ctx := context.WithValue(context.Background(), SessionKey, &session.Data{UserID: id})
	if got := UserIDFromCtx(ctx); got != id {
		t.Errorf("authenticated: got %s, want %s", got, id)
	}
}

func TestLoadSessionWithoutCookie(t *testing.T) {
	// Without a session cookie the store is never consulted, so an
	// unconnected client is fine here.
	store := session.NewStore(nil, false)

	var sawSession *session.Data
	handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSession = SessionFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
	if sawSession != nil {
		t.Errorf("expected no session, got %+v", sawSession)
	}
}
