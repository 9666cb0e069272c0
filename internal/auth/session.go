// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes     = 32             // 32 bytes = 64 hex chars
	DefaultSessionTTL     = 24 * time.Hour // absolute lifetime
	DefaultSessionRefresh = 5 * time.Minute
)

// Principal is the projection of a User that a session carries. It can go
// stale relative to the user record; SessionManager re-reads it periodically.
type Principal struct {
	UserID       ulid.ULID
	Username     string
	IsPrivileged bool
}

// Session is server-held login state, keyed by the hash of an opaque token.
type Session struct {
	ID          ulid.ULID
	TokenHash   string
	Principal   Principal
	ExpiresAt   time.Time
	CreatedAt   time.Time
	RefreshedAt time.Time
}

// NewSession creates a validated Session instance.
// Returns an error if any required fields are invalid.
func NewSession(principal Principal, tokenHash string, now, expiresAt time.Time) (*Session, error) {
	if principal.UserID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if principal.Username == "" {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("username cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if !expiresAt.After(now) {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be in the future")
	}

	return &Session{
		ID:          ulid.Make(),
		TokenHash:   tokenHash,
		Principal:   principal,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		RefreshedAt: now,
	}, nil
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// NeedsRefreshAt reports whether the cached principal is older than maxAge.
func (s *Session) NeedsRefreshAt(t time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && t.Sub(s.RefreshedAt) >= maxAge
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext token is sent to the client; the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns an error wrapping ErrNotFound if there is none.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdatePrincipal replaces the cached principal and its refresh time.
	UpdatePrincipal(ctx context.Context, id ulid.ULID, principal Principal, refreshedAt time.Time) error

	// DeleteByTokenHash removes a session. Removing an absent session is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes all sessions expired at now and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
