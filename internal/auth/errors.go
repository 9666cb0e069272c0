// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import "errors"

// Sentinel errors for the authentication domain. Repository and service
// errors wrap one of these with an oops code so callers can classify with
// errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthenticated is returned when a session token is missing, unknown or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidInput is returned when signup input fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
