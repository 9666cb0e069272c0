// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package auth provides credential management and session-based
// authentication for Curio.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their constructors:
//   - NewUser - creates a User with a validated username and password hash
//   - NewSession - creates a Session bound to a Principal with a future expiry
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
//   - Service - signup, login, logout and token authentication
//   - SessionManager - issue, validate and destroy sessions
//   - Reaper - periodic removal of expired sessions
//
// Username uniqueness is a storage guarantee: UserRepository.Create must
// reject a duplicate atomically and report it as ErrDuplicateUsername.
package auth
