// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is an account that can log in.
type User struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	IsPrivileged bool
	CreatedAt    time.Time
}

// NewUser creates a validated, unprivileged User.
// The password hash is opaque here; it must come from a PasswordHasher.
func NewUser(username, passwordHash string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Principal returns the projection of the user that sessions carry.
func (u *User) Principal() Principal {
	return Principal{
		UserID:       u.ID,
		Username:     u.Username,
		IsPrivileged: u.IsPrivileged,
	}
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Wrapf(ErrInvalidInput, "username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrapf(ErrInvalidInput, "username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrapf(ErrInvalidInput, "username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Wrapf(ErrInvalidInput, "username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Uniqueness of the username is enforced by
	// the store in the same operation as the insert; a clash returns an
	// error wrapping ErrDuplicateUsername.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	// Returns an error wrapping ErrNotFound if no user has the given name.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
