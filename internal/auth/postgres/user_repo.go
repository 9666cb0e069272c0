// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/store"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool store.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user. The unique index on LOWER(username) rejects a
// taken name inside the INSERT itself; that rejection is reported as
// auth.ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, is_privileged, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		user.ID.String(),
		user.Username,
		user.PasswordHash,
		user.IsPrivileged,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_DUPLICATE_USERNAME").
				With("username", user.Username).
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrDuplicateUsername)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_privileged, created_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username (case-insensitive).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_privileged, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr        string
		username     string
		passwordHash string
		privileged   bool
		createdAt    time.Time
	)

	if err := row.Scan(&idStr, &username, &passwordHash, &privileged, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		IsPrivileged: privileged,
		CreatedAt:    createdAt,
	}, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
