package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Health reports liveness of the service and its backing stores.
type Health struct {
	db     *sql.DB
	valkey *redis.Client
}

// NewHealth returns the health check handler.
func NewHealth(db *sql.DB, valkey *redis.Client) *Health {
	return &Health{db: db, valkey: valkey}
}

// Check pings the database and Valkey with a short deadline.
// GET /health
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	dbStatus := "up"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	valkeyStatus := "up"
	if err := h.valkey.Ping(ctx).Err(); err != nil {
		valkeyStatus = "down"
		status = http.StatusServiceUnavailable
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	writeJSON(w, status, map[string]string{
		"status":   overall,
		"database": dbStatus,
		"valkey":   valkeyStatus,
	})
}
