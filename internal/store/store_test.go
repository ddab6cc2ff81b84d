// store_test.go provides shared test database helpers for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"threadpress/internal/authz"
	"threadpress/internal/database"
	"threadpress/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "threadpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "threadpress")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testStores wires the three stores around a cache-less role resolver,
// the same shape main() builds at startup.
func testStores(db *sql.DB) (*UserStore, *CategoryStore, *ThreadStore) {
	users := NewUserStore(db)
	resolver := authz.NewResolver(users, nil)
	users.SetResolver(resolver)
	return users, NewCategoryStore(db, resolver), NewThreadStore(db, resolver)
}

// createTestUser inserts a user with the given role and registers cleanup
// of the user and everything it authored.
func createTestUser(t *testing.T, db *sql.DB, users *UserStore, username string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()

	u, err := users.Create(ctx, username, username+"@store-test.local", "testpass123")
	if err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	if role != models.RoleMember {
		if _, err := db.Exec(`UPDATE users SET role = $1 WHERE id = $2`, role, u.ID); err != nil {
			t.Fatalf("set test user role: %v", err)
		}
		u.Role = role
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM posts WHERE created_by = $1`, u.ID)
		db.Exec(`DELETE FROM threads WHERE created_by = $1`, u.ID)
		db.Exec(`DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

// createTestCategory creates a category as the given admin and registers
// cleanup of the category and its contents.
func createTestCategory(t *testing.T, db *sql.DB, categories *CategoryStore, admin *models.User, name string) *models.Category {
	t.Helper()

	c, err := categories.Create(context.Background(), admin.ID, name, "integration test category")
	if err != nil {
		t.Fatalf("create test category %s: %v", name, err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM posts WHERE thread_id IN (SELECT id FROM threads WHERE category_id = $1)`, c.ID)
		db.Exec(`DELETE FROM threads WHERE category_id = $1`, c.ID)
		db.Exec(`DELETE FROM categories WHERE id = $1`, c.ID)
	})
	return c
}
