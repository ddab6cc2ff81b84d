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

// ThreadStore manages threads and their posts. Every mutation that changes
// a child collection adjusts the parent aggregate (category thread_count,
// thread post_count) inside the same transaction, so no call site can
// forget the counter update.
type ThreadStore struct {
	db    *sql.DB
	roles authz.ActorResolver
}

// NewThreadStore returns a new ThreadStore.
func NewThreadStore(db *sql.DB, roles authz.ActorResolver) *ThreadStore {
	return &ThreadStore{db: db, roles: roles}
}

const threadColumns = `id, category_id, title, created_by, created_by_username, post_count, last_post_at, created_at, updated_at`

const postColumns = `id, thread_id, content, created_by, created_by_username, created_at, edited_at, is_edited`

// scanThread scans a row into a Thread struct and derives ReplyCount.
func scanThread(scanner interface{ Scan(...any) error }) (*models.Thread, error) {
	var t models.Thread
	err := scanner.Scan(
		&t.ID, &t.CategoryID, &t.Title, &t.CreatedBy, &t.CreatedByUsername,
		&t.PostCount, &t.LastPostAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ReplyCount = t.PostCount - 1
	return &t, nil
}

// scanPost scans a row into a Post struct.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.ThreadID, &p.Content, &p.CreatedBy, &p.CreatedByUsername,
		&p.CreatedAt, &p.EditedAt, &p.IsEdited,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCategory returns the threads of a category, newest first.
func (s *ThreadStore) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Thread, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)
	`, categoryID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+threadColumns+`
		FROM threads
		WHERE category_id = $1
		ORDER BY created_at DESC, id DESC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var items []models.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// GetWithPosts returns a thread together with all of its posts ascending
// by creation time (ties break by id, deterministically). The first
// element of the slice is always the thread body. Both reads share one
// repeatable-read snapshot so a concurrent thread deletion can never
// yield the thread row without its posts.
func (s *ThreadStore) GetWithPosts(ctx context.Context, threadID uuid.UUID) (*models.Thread, []models.Post, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+threadColumns+` FROM threads WHERE id = $1`, threadID)
	t, err := scanThread(row)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find thread: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
	`, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit read tx: %w", err)
	}
	return t, posts, nil
}

// CreateThread creates a thread and its first post in one transaction and
// increments the parent category's thread counter. Any authenticated user
// may create threads.
func (s *ThreadStore) CreateThread(ctx context.Context, actorID, categoryID uuid.UUID, title, body string) (uuid.UUID, error) {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return uuid.Nil, fmt.Errorf("create thread: %w", ErrPermissionDenied)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return uuid.Nil, fmt.Errorf("create thread: title is required: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(body) == "" {
		return uuid.Nil, fmt.Errorf("create thread: body is required: %w", ErrInvalidArgument)
	}

	username, err := s.usernameOf(ctx, actorID)
	if err != nil {
		return uuid.Nil, err
	}

	var threadID uuid.UUID
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		// The counter update doubles as the existence check and takes the
		// category row lock for the rest of the transaction.
		res, err := tx.ExecContext(ctx, `
			UPDATE categories SET thread_count = thread_count + 1, updated_at = NOW()
			WHERE id = $1
		`, categoryID)
		if err != nil {
			return fmt.Errorf("increment thread count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO threads (category_id, title, created_by, created_by_username)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, categoryID, title, actorID, username).Scan(&threadID)
		if err != nil {
			return fmt.Errorf("insert thread: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO posts (thread_id, content, created_by, created_by_username)
			VALUES ($1, $2, $3, $4)
		`, threadID, body, actorID, username); err != nil {
			return fmt.Errorf("insert first post: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return threadID, nil
}

// CreatePost appends a reply to a thread, incrementing its post counter
// and bumping last_post_at in the same transaction.
func (s *ThreadStore) CreatePost(ctx context.Context, actorID, threadID uuid.UUID, content string) (uuid.UUID, error) {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return uuid.Nil, fmt.Errorf("create post: %w", ErrPermissionDenied)
	}
	if strings.TrimSpace(content) == "" {
		return uuid.Nil, fmt.Errorf("create post: content is required: %w", ErrInvalidArgument)
	}

	username, err := s.usernameOf(ctx, actorID)
	if err != nil {
		return uuid.Nil, err
	}

	var postID uuid.UUID
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE threads SET post_count = post_count + 1, last_post_at = NOW()
			WHERE id = $1
		`, threadID)
		if err != nil {
			return fmt.Errorf("increment post count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO posts (thread_id, content, created_by, created_by_username)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, threadID, content, actorID, username).Scan(&postID)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return postID, nil
}

// UpdateThread retitles a thread and, when body is non-nil, rewrites the
// thread body (its first post) with edit markers. Permitted for the thread
// creator, moderators and admins.
func (s *ThreadStore) UpdateThread(ctx context.Context, actorID, threadID uuid.UUID, title string, body *string) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return fmt.Errorf("update thread: %w", ErrPermissionDenied)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("update thread: title is required: %w", ErrInvalidArgument)
	}
	if body != nil && strings.TrimSpace(*body) == "" {
		return fmt.Errorf("update thread: body must not be empty: %w", ErrInvalidArgument)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var createdBy uuid.UUID
		err := tx.QueryRowContext(ctx, `
			SELECT created_by FROM threads WHERE id = $1 FOR UPDATE
		`, threadID).Scan(&createdBy)
		if err == sql.ErrNoRows {
			return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock thread: %w", err)
		}

		if !authz.CanManage(actor, createdBy) {
			return fmt.Errorf("update thread: %w", ErrPermissionDenied)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE threads SET title = $1, updated_at = NOW() WHERE id = $2
		`, title, threadID); err != nil {
			return fmt.Errorf("update thread title: %w", err)
		}

		if body != nil {
			firstID, err := firstPostID(ctx, tx, threadID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE posts SET content = $1, is_edited = TRUE, edited_at = NOW()
				WHERE id = $2
			`, *body, firstID); err != nil {
				return fmt.Errorf("update thread body: %w", err)
			}
		}
		return nil
	})
}

// DeleteThread removes a thread and all of its posts and decrements the
// parent category's thread counter, all in one transaction. Permitted for
// the thread creator, moderators and admins.
func (s *ThreadStore) DeleteThread(ctx context.Context, actorID, threadID uuid.UUID) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return fmt.Errorf("delete thread: %w", ErrPermissionDenied)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var categoryID, createdBy uuid.UUID
		err := tx.QueryRowContext(ctx, `
			SELECT category_id, created_by FROM threads WHERE id = $1 FOR UPDATE
		`, threadID).Scan(&categoryID, &createdBy)
		if err == sql.ErrNoRows {
			return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock thread: %w", err)
		}

		if !authz.CanManage(actor, createdBy) {
			return fmt.Errorf("delete thread: %w", ErrPermissionDenied)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE thread_id = $1`, threadID); err != nil {
			return fmt.Errorf("cascade delete posts: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, threadID); err != nil {
			return fmt.Errorf("delete thread: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE categories SET thread_count = thread_count - 1, updated_at = NOW()
			WHERE id = $1
		`, categoryID); err != nil {
			return fmt.Errorf("decrement thread count: %w", err)
		}
		return nil
	})
}

// UpdatePost replaces a post's content and stamps its edit markers.
// Permitted for the post creator, moderators and admins.
func (s *ThreadStore) UpdatePost(ctx context.Context, actorID, postID uuid.UUID, content string) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return fmt.Errorf("update post: %w", ErrPermissionDenied)
	}

	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("update post: content is required: %w", ErrInvalidArgument)
	}

	var createdBy uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT created_by FROM posts WHERE id = $1
	`, postID).Scan(&createdBy)
	if err == sql.ErrNoRows {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find post: %w", err)
	}

	if !authz.CanManage(actor, createdBy) {
		return fmt.Errorf("update post: %w", ErrPermissionDenied)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE posts SET content = $1, is_edited = TRUE, edited_at = NOW()
		WHERE id = $2
	`, content, postID); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// DeletePost removes a reply and decrements the thread's post counter.
// The thread's first post is re-derived inside the transaction and can
// never be deleted this way, regardless of the actor's role — removing it
// means deleting the whole thread.
func (s *ThreadStore) DeletePost(ctx context.Context, actorID, postID, threadID uuid.UUID) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if actor.Anonymous() {
		return fmt.Errorf("delete post: %w", ErrPermissionDenied)
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		var createdBy uuid.UUID
		err := tx.QueryRowContext(ctx, `
			SELECT created_by FROM posts WHERE id = $1 AND thread_id = $2 FOR UPDATE
		`, postID, threadID).Scan(&createdBy)
		if err == sql.ErrNoRows {
			return fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		if !authz.CanManage(actor, createdBy) {
			return fmt.Errorf("delete post: %w", ErrPermissionDenied)
		}

		firstID, err := firstPostID(ctx, tx, threadID)
		if err != nil {
			return err
		}
		if firstID == postID {
			return fmt.Errorf("cannot delete the first post; delete the thread instead: %w", ErrInvalidOperation)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE threads SET post_count = post_count - 1 WHERE id = $1
		`, threadID); err != nil {
			return fmt.Errorf("decrement post count: %w", err)
		}
		return nil
	})
}

// firstPostID derives the thread's first post (minimum created_at, ties by
// id) inside the given transaction. Evaluated at decision time, never
// trusted from a client-supplied position.
func firstPostID(ctx context.Context, tx *sql.Tx, threadID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM posts
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE
	`, threadID).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("thread %s has no posts: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find first post: %w", err)
	}
	return id, nil
}

// usernameOf snapshots the author's username for denormalized storage on
// threads and posts.
func (s *ThreadStore) usernameOf(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err == sql.ErrNoRows {
		// Session points at a user that no longer exists.
		return "", fmt.Errorf("unknown author %s: %w", userID, ErrPermissionDenied)
	}
	if err != nil {
		return "", fmt.Errorf("find author: %w", err)
	}
	return username, nil
}
