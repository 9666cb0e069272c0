// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
)

// SessionRepository implements auth.SessionRepository in memory.
type SessionRepository struct {
	mu      sync.RWMutex
	byToken map[string]auth.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byToken: make(map[string]auth.Session)}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("SESSION_CREATE_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byToken[session.TokenHash]; exists {
		return oops.Code("SESSION_CREATE_FAILED").Errorf("token hash collision")
	}
	r.byToken[session.TokenHash] = *session
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byToken[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &s, nil
}

// UpdatePrincipal replaces the cached principal of a session.
func (r *SessionRepository) UpdatePrincipal(ctx context.Context, id ulid.ULID, principal auth.Principal, refreshedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("SESSION_UPDATE_PRINCIPAL_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, s := range r.byToken {
		if s.ID == id {
			s.Principal = principal
			s.RefreshedAt = refreshedAt
			r.byToken[hash] = s
			return nil
		}
	}
	return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
}

// DeleteByTokenHash removes a session if present.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, tokenHash)
	return nil
}

// DeleteExpired removes all sessions expired at now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, s := range r.byToken {
		if s.IsExpiredAt(now) {
			delete(r.byToken, hash)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
