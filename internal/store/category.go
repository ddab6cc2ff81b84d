// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"threadpress/internal/authz"
	"threadpress/internal/models"
)

// CategoryStore manages forum categories and their display order.
// All management operations are admin-only; reads are open.
type CategoryStore struct {
	db    *sql.DB
	roles authz.ActorResolver
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB, roles authz.ActorResolver) *CategoryStore {
	return &CategoryStore{db: db, roles: roles}
}

const categoryColumns = `id, name, description, sort_order, thread_count, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Description, &c.SortOrder,
		&c.ThreadCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ascending by sort order. An empty forum
// yields an empty slice, never an error.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY sort_order ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category at the end of the display order. Admin only.
func (s *CategoryStore) Create(ctx context.Context, actorID uuid.UUID, name, description string) (*models.Category, error) {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanAdminister(actor) {
		return nil, fmt.Errorf("create category: %w", ErrPermissionDenied)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create category: name is required: %w", ErrInvalidArgument)
	}
	description = strings.TrimSpace(description)

	var created *models.Category
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		// The order slot is computed and claimed inside the transaction;
		// a concurrent create collides on the sort_order constraint and
		// is retried by withTx with a fresh MAX.
		row := tx.QueryRowContext(ctx, `
			INSERT INTO categories (name, description, sort_order)
			SELECT $1, $2, COALESCE(MAX(sort_order), 0) + 1 FROM categories
			RETURNING `+categoryColumns,
			name, description,
		)
		c, err := scanCategory(row)
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Rename updates a category's name and description. Admin only.
func (s *CategoryStore) Rename(ctx context.Context, actorID, id uuid.UUID, name, description string) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanAdminister(actor) {
		return fmt.Errorf("rename category: %w", ErrPermissionDenied)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename category: name is required: %w", ErrInvalidArgument)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
	`, name, strings.TrimSpace(description), id)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

// MoveUp swaps the category with its predecessor in display order.
// Returns false without error when the category is already first.
func (s *CategoryStore) MoveUp(ctx context.Context, actorID, id uuid.UUID) (bool, error) {
	return s.move(ctx, actorID, id, true)
}

// MoveDown swaps the category with its successor in display order.
// Returns false without error when the category is already last.
func (s *CategoryStore) MoveDown(ctx context.Context, actorID, id uuid.UUID) (bool, error) {
	return s.move(ctx, actorID, id, false)
}

// move performs the pairwise order swap. Both rows are locked and updated
// in one transaction; the deferred sort_order constraint tolerates the
// transient tie until commit.
func (s *CategoryStore) move(ctx context.Context, actorID, id uuid.UUID, up bool) (bool, error) {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanAdminister(actor) {
		return false, fmt.Errorf("move category: %w", ErrPermissionDenied)
	}

	neighborQuery := `
		SELECT id, sort_order FROM categories
		WHERE sort_order < $1
		ORDER BY sort_order DESC
		LIMIT 1
		FOR UPDATE`
	if !up {
		neighborQuery = `
		SELECT id, sort_order FROM categories
		WHERE sort_order > $1
		ORDER BY sort_order ASC
		LIMIT 1
		FOR UPDATE`
	}

	moved := false
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		moved = false

		var curOrder int
		err := tx.QueryRowContext(ctx, `
			SELECT sort_order FROM categories WHERE id = $1 FOR UPDATE
		`, id).Scan(&curOrder)
		if err == sql.ErrNoRows {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock category: %w", err)
		}

		var neighborID uuid.UUID
		var neighborOrder int
		err = tx.QueryRowContext(ctx, neighborQuery, curOrder).Scan(&neighborID, &neighborOrder)
		if err == sql.ErrNoRows {
			// Already at the edge — a no-op, not an error.
			return nil
		}
		if err != nil {
			return fmt.Errorf("find neighbor: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE categories SET sort_order = $1, updated_at = NOW() WHERE id = $2
		`, neighborOrder, id); err != nil {
			return fmt.Errorf("swap order (target): %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE categories SET sort_order = $1, updated_at = NOW() WHERE id = $2
		`, curOrder, neighborID); err != nil {
			return fmt.Errorf("swap order (neighbor): %w", err)
		}

		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// Delete removes an empty category. Admin only. Deleting a category that
// still holds threads is rejected so threads are never orphaned.
func (s *CategoryStore) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanAdminister(actor) {
		return fmt.Errorf("delete category: %w", ErrPermissionDenied)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var threadCount int
		err := tx.QueryRowContext(ctx, `
			SELECT thread_count FROM categories WHERE id = $1 FOR UPDATE
		`, id).Scan(&threadCount)
		if err == sql.ErrNoRows {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock category: %w", err)
		}

		if threadCount > 0 {
			return fmt.Errorf("category still holds %d threads: %w", threadCount, ErrInvalidOperation)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
