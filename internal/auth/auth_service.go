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

// DefaultStoreTimeout bounds every repository call made by Service.
const DefaultStoreTimeout = 5 * time.Second

// Service provides signup, login and logout.
type Service struct {
	users        UserRepository
	sessions     *SessionManager
	hasher       PasswordHasher
	storeTimeout time.Duration
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStoreTimeout bounds each repository call. A deadline hit surfaces as
// an internal error, never as a credential failure.
func WithStoreTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewAuthService creates a new Service.
func NewAuthService(users UserRepository, sessions *SessionManager, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	s := &Service{
		users:        users,
		sessions:     sessions,
		hasher:       hasher,
		storeTimeout: DefaultStoreTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Signup creates an account. A taken username returns an error wrapping
// ErrDuplicateUsername; bad input wraps ErrInvalidInput.
func (s *Service) Signup(ctx context.Context, username, password string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, hash)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.users.Create(storeCtx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, oops.Code("AUTH_DUPLICATE_USERNAME").
				With("username", username).
				Wrap(err)
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create user").
			With("username", username).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Login checks credentials and issues a session.
// Returns the plaintext token and the bound principal.
// Uses constant-time operations to prevent timing-based username enumeration.
func (s *Service) Login(ctx context.Context, username, password string) (string, Principal, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	user, lookupErr := s.users.GetByUsername(lookupCtx, username)
	cancel()

	var targetHash string
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = dummyPasswordHash
	default:
		return "", Principal{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	// Always verify, even for unknown users, so both paths cost the same.
	valid, err := s.hasher.Verify(ctx, password, targetHash)
	if err != nil {
		return "", Principal{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}

	if !userExists || !valid {
		return "", Principal{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	issueCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	token, err := s.sessions.Issue(issueCtx, user)
	if err != nil {
		return "", Principal{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session").
			Wrap(err)
	}

	return token, user.Principal(), nil
}

// Authenticate resolves a session token to its principal.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.sessions.Validate(storeCtx, token)
}

// Logout revokes the session behind token. Logging out twice is fine.
func (s *Service) Logout(ctx context.Context, token string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.sessions.Destroy(storeCtx, token)
}
