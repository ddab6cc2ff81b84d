// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access for all forum entities. Each
// store struct wraps a *sql.DB and exposes typed operations; every
// operation that touches more than one row runs inside a single
// transaction so counters and collections never diverge.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds returned by store operations. Callers distinguish them with
// errors.Is; the HTTP layer maps each kind to a status code.
var (
	// ErrNotFound means the referenced category, thread, post or user
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument means a required text field was empty after
	// trimming or otherwise malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPermissionDenied means the authorization policy rejected the
	// actor, including unauthenticated callers on mutating operations.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidOperation means the action is structurally disallowed,
	// such as deleting a thread's first post directly.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConflict means an atomic multi-write could not be committed
	// after bounded retries due to concurrent modification.
	ErrConflict = errors.New("conflict")
)

// txAttempts bounds the optimistic retry loop for transactions that lose
// a race. Conflicts still present after the last attempt surface as
// ErrConflict.
const txAttempts = 3

// withTx runs fn inside a transaction, retrying serialization failures,
// deadlocks and sort-order collisions a bounded number of times. The
// transaction is rolled back whenever fn or the commit fails, so either
// every write in fn is visible or none is.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			if retryableTxError(err) {
				lastErr = err
				continue
			}
			return err
		}

		// Deferred constraints are checked here.
		if err := tx.Commit(); err != nil {
			if retryableTxError(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	}
	return fmt.Errorf("transaction retries exhausted: %w (%v)", ErrConflict, lastErr)
}

// retryableTxError reports whether the transaction can be retried from
// scratch: serialization failure, deadlock, or a collision on the category
// sort-order slot (two admins creating or moving at once).
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01":
		return true
	case "23505":
		return pgErr.ConstraintName == "categories_sort_order_key"
	}
	return false
}

// uniqueViolation reports whether err is a Postgres unique constraint
// violation, used to map duplicate usernames/emails to ErrConflict.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
