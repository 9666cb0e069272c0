// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// SessionManager issues, validates and revokes login sessions.
type SessionManager struct {
	sessions SessionRepository
	users    UserRepository
	ttl      time.Duration
	refresh  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionTTL sets how long a session lives after login.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(m *SessionManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithPrincipalRefresh sets how old a cached principal may get before
// Validate re-reads the user. Zero disables refreshing.
func WithPrincipalRefresh(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		m.refresh = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithSessionLogger sets the logger used for best-effort failures.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(sessions SessionRepository, users UserRepository, opts ...SessionOption) (*SessionManager, error) {
	if sessions == nil {
		return nil, oops.Code("SESSION_MANAGER_INVALID").Errorf("sessions repository is required")
	}
	if users == nil {
		return nil, oops.Code("SESSION_MANAGER_INVALID").Errorf("users repository is required")
	}
	m := &SessionManager{
		sessions: sessions,
		users:    users,
		ttl:      DefaultSessionTTL,
		refresh:  DefaultSessionRefresh,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue creates a session for user and returns the plaintext token.
func (m *SessionManager) Issue(ctx context.Context, user *User) (string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}

	now := m.now().UTC()
	session, err := NewSession(user.Principal(), tokenHash, now, now.Add(m.ttl))
	if err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return "", oops.Code("SESSION_ISSUE_FAILED").
			With("operation", "persist session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return token, nil
}

// Validate returns the principal bound to token. Any reason the token does
// not identify a live session yields an error wrapping ErrUnauthenticated;
// other errors are storage failures.
func (m *SessionManager) Validate(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrUnauthenticated)
	}

	session, err := m.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, oops.Code("SESSION_INVALID").Wrap(ErrUnauthenticated)
		}
		return Principal{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := m.now().UTC()
	if session.IsExpiredAt(now) {
		return Principal{}, oops.Code("SESSION_EXPIRED").
			With("session_id", session.ID.String()).
			Wrap(ErrUnauthenticated)
	}

	if session.NeedsRefreshAt(now, m.refresh) {
		return m.refreshPrincipal(ctx, session, now)
	}
	return session.Principal, nil
}

// refreshPrincipal re-reads the user behind a session so privilege changes
// and deleted accounts take effect within one refresh interval.
func (m *SessionManager) refreshPrincipal(ctx context.Context, session *Session, now time.Time) (Principal, error) {
	user, err := m.users.GetByID(ctx, session.Principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if delErr := m.sessions.DeleteByTokenHash(ctx, session.TokenHash); delErr != nil {
				m.logger.Warn("failed to delete orphaned session",
					"session_id", session.ID.String(),
					"error", delErr)
			}
			return Principal{}, oops.Code("SESSION_USER_GONE").
				With("user_id", session.Principal.UserID.String()).
				Wrap(ErrUnauthenticated)
		}
		return Principal{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "refresh principal").
			Wrap(err)
	}

	principal := user.Principal()
	if err := m.sessions.UpdatePrincipal(ctx, session.ID, principal, now); err != nil {
		m.logger.Warn("failed to store refreshed principal",
			"session_id", session.ID.String(),
			"error", err)
	}
	return principal, nil
}

// Destroy revokes the session behind token. It is idempotent.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("SESSION_DESTROY_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}
