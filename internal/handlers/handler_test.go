// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"threadpress/internal/authz"
	"threadpress/internal/database"
	"threadpress/internal/handlers"
	"threadpress/internal/middleware"
	"threadpress/internal/router"
	"threadpress/internal/session"
	"threadpress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "threadpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "threadpress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkey connects to the test Valkey instance, skipping when absent.
func testValkey(t *testing.T) *redis.Client {
	t.Helper()

	addr := envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379")
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("VALKEY_PASSWORD")})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() { client.Close() })
	return client
}

// testServer assembles the full application stack — stores, resolver,
// sessions, handler groups and router — around the given backends.
func testServer(t *testing.T, db *sql.DB, valkey *redis.Client) *httptest.Server {
	t.Helper()

	users := store.NewUserStore(db)
	resolver := authz.NewResolver(users, nil)
	users.SetResolver(resolver)
	categories := store.NewCategoryStore(db, resolver)
	threads := store.NewThreadStore(db, resolver)

	sessions := session.NewStore(valkey, false)

	r := router.New(
		sessions,
		handlers.NewAuth(users, sessions),
		handlers.NewForum(categories, threads),
		handlers.NewUsers(users, sessions, nil),
		handlers.NewHealth(db, valkey),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// testClient is an HTTP client with a cookie jar holding the session and
// CSRF cookies across requests.
func testClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// csrfToken digs the CSRF token out of the client's cookie jar.
func csrfToken(t *testing.T, client *http.Client, serverURL string) string {
	t.Helper()
	u, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	t.Fatal("no CSRF cookie in jar; make a GET request first")
	return ""
}

// doJSON sends a JSON request with the CSRF header set and decodes the
// response body into out (when out is non-nil). Returns the status code.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, out any) int {
	t.Helper()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.CSRFHeaderName, token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}
