package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"threadpress/internal/models"
)

// testValkeyClient connects to the test Valkey, skipping when unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "role:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRoleCacheSetGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRoleCache(client, time.Minute)
	ctx := context.Background()

	id := uuid.New()

	// Miss before any Set.
	if _, ok := rc.Get(ctx, id); ok {
		t.Error("expected miss for unseen user")
	}

	rc.Set(ctx, id, models.RoleModerator)
	role, ok := rc.Get(ctx, id)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if role != models.RoleModerator {
		t.Errorf("role: got %q, want %q", role, models.RoleModerator)
	}
}

func TestRoleCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRoleCache(client, time.Minute)
	ctx := context.Background()

	id := uuid.New()
	rc.Set(ctx, id, models.RoleAdmin)
	rc.Invalidate(ctx, id)

	if _, ok := rc.Get(ctx, id); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestRoleCacheExpiry(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRoleCache(client, time.Second)
	ctx := context.Background()

	id := uuid.New()
	rc.Set(ctx, id, models.RoleMember)

	time.Sleep(1500 * time.Millisecond)
	if _, ok := rc.Get(ctx, id); ok {
		t.Error("expected entry to expire")
	}
}

func TestRoleCacheRejectsCorruptValue(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewRoleCache(client, time.Minute)
	ctx := context.Background()

	id := uuid.New()
	// A value written outside the cache that is not a known role must
	// read as a miss, never as a privilege.
	client.Set(ctx, "role:"+id.String(), "superuser", time.Minute)

	if _, ok := rc.Get(ctx, id); ok {
		t.Error("expected miss for unknown role value")
	}
}
