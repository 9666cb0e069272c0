// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/internal/store"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
// The principal projection is stored alongside the session so validation
// needs a single lookup.
type SessionRepository struct {
	pool store.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool store.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO web_sessions (id, token_hash, user_id, username, is_privileged, expires_at, created_at, refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		session.ID.String(),
		session.TokenHash,
		session.Principal.UserID.String(),
		session.Principal.Username,
		session.Principal.IsPrivileged,
		session.ExpiresAt,
		session.CreatedAt,
		session.RefreshedAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert web_session").
			With("user_id", session.Principal.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, user_id, username, is_privileged, expires_at, created_at, refreshed_at
		FROM web_sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// UpdatePrincipal replaces the cached principal and its refresh time.
func (r *SessionRepository) UpdatePrincipal(ctx context.Context, id ulid.ULID, principal auth.Principal, refreshedAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE web_sessions SET username = $2, is_privileged = $3, refreshed_at = $4
		WHERE id = $1
	`, id.String(), principal.Username, principal.IsPrivileged, refreshedAt)
	if err != nil {
		return oops.Code("SESSION_UPDATE_PRINCIPAL_FAILED").
			With("operation", "update principal").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByTokenHash removes a session. Zero affected rows is not an error.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM web_sessions WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete web_session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes all sessions expired at now and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM web_sessions WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired web_sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session.
// Callers are responsible for handling pgx.ErrNoRows.
func scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		idStr       string
		tokenHash   string
		userIDStr   string
		username    string
		privileged  bool
		expiresAt   time.Time
		createdAt   time.Time
		refreshedAt time.Time
	)

	err := row.Scan(&idStr, &tokenHash, &userIDStr, &username, &privileged, &expiresAt, &createdAt, &refreshedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan web_session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}

	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &auth.Session{
		ID:        id,
		TokenHash: tokenHash,
		Principal: auth.Principal{
			UserID:       userID,
			Username:     username,
			IsPrivileged: privileged,
		},
		ExpiresAt:   expiresAt,
		CreatedAt:   createdAt,
		RefreshedAt: refreshedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
