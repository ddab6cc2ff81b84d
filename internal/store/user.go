// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"threadpress/internal/authz"
	"threadpress/internal/models"
)

// UserStore handles all user-related database operations. It also backs
// the role resolver (RoleByID), which is why the resolver used for its
// own admin-gated operations is wired in after construction.
type UserStore struct {
	db    *sql.DB
	roles authz.ActorResolver
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// SetResolver wires the actor resolver used by SetRole and UpdateProfile.
// Called once at startup, after the resolver has been built around this
// store.
func (s *UserStore) SetResolver(roles authz.ActorResolver) {
	s.roles = roles
}

const userColumns = `id, username, email, password_hash, role, profile_picture, created_at, updated_at`

// scanUser scans a row into a User struct.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByUsername retrieves a user by username (case-sensitive, unique).
// Returns nil if not found.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// Create inserts a new member account with a bcrypt-hashed password.
// Duplicate usernames or emails surface as ErrConflict.
func (s *UserStore) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("create user: username, email and password are required: %w", ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		username, email, string(hash), models.RoleMember,
	)
	u, err := scanUser(row)
	if err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("username or email already taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// RoleByID is the read-only lookup backing authz.Resolver. The second
// return value reports whether the user exists; a missing user is not an
// error here — the resolver degrades it to member.
func (s *UserStore) RoleByID(ctx context.Context, id uuid.UUID) (models.Role, bool, error) {
	var role models.Role
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("role by id: %w", err)
	}
	return role, true, nil
}

// SetRole changes a user's role. Admin only.
func (s *UserStore) SetRole(ctx context.Context, actorID, userID uuid.UUID, role models.Role) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanAdminister(actor) {
		return fmt.Errorf("set role: %w", ErrPermissionDenied)
	}
	if !role.Valid() {
		return fmt.Errorf("set role: unknown role %q: %w", role, ErrInvalidArgument)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, userID)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// UpdateProfile changes a user's username and profile picture URL.
// Permitted for the user themselves, moderators and admins.
func (s *UserStore) UpdateProfile(ctx context.Context, actorID, userID uuid.UUID, username, profilePicture string) error {
	actor := s.roles.ActorFor(ctx, actorID)
	if !authz.CanManage(actor, userID) {
		return fmt.Errorf("update profile: %w", ErrPermissionDenied)
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("update profile: username is required: %w", ErrInvalidArgument)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $1, profile_picture = $2, updated_at = NOW()
		WHERE id = $3
	`, username, strings.TrimSpace(profilePicture), userID)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("username already taken: %w", ErrConflict)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// PostCountBy counts the posts written by a user. Display-only decoration:
// failures degrade to zero instead of failing the containing read.
func (s *UserStore) PostCountBy(ctx context.Context, userID uuid.UUID) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM posts WHERE created_by = $1
	`, userID).Scan(&n); err != nil {
		slog.Warn("post count lookup failed", "user_id", userID, "error", err)
		return 0
	}
	return n
}

// ProfilePictureBy returns a user's profile picture URL. Display-only
// decoration: missing users and failures degrade to the empty string.
func (s *UserStore) ProfilePictureBy(ctx context.Context, userID uuid.UUID) string {
	var url string
	err := s.db.QueryRowContext(ctx, `
		SELECT profile_picture FROM users WHERE id = $1
	`, userID).Scan(&url)
	if err != nil && err != sql.ErrNoRows {
		slog.Warn("profile picture lookup failed", "user_id", userID, "error", err)
	}
	return url
}
