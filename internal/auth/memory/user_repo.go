// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package memory provides in-process implementations of the auth
// repositories, used by the memory store backend and by tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
)

// UserRepository implements auth.UserRepository in memory.
type UserRepository struct {
	mu     sync.RWMutex
	byID   map[ulid.ULID]auth.User
	byName map[string]ulid.ULID
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[ulid.ULID]auth.User),
		byName: make(map[string]ulid.ULID),
	}
}

// Create stores a new user. The name check and the insert happen under one
// write lock, so concurrent creates of the same name cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("USER_CREATE_FAILED").Wrap(err)
	}

	key := strings.ToLower(user.Username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[key]; taken {
		return oops.Code("USER_DUPLICATE_USERNAME").
			With("username", user.Username).
			Wrap(auth.ErrDuplicateUsername)
	}
	r.byID[user.ID] = *user
	r.byName[key] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return &u, nil
}

// GetByUsername retrieves a user by username (case-insensitive).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[strings.ToLower(username)]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	u := r.byID[id]
	return &u, nil
}

// SetPrivileged flips the privilege flag of a stored user.
func (r *UserRepository) SetPrivileged(id ulid.ULID, privileged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	u.IsPrivileged = privileged
	r.byID[id] = u
	return nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
