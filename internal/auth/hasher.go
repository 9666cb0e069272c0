// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrInvalidInput, "password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted hash of the password. Two calls with the same
	// password never return the same string.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the hash.
	// A malformed hash is a mismatch, not an error. The error is non-nil
	// only when ctx ends before a hashing slot frees up.
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
// At most `concurrency` derivations run at once; each one holds 64 MB.
type Argon2idHasher struct {
	slots *semaphore.Weighted
}

// NewArgon2idHasher creates a new Argon2idHasher. A concurrency of zero or
// less means one slot per CPU.
func NewArgon2idHasher(concurrency int) *Argon2idHasher {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Argon2idHasher{slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_BUSY").With("operation", "acquire hashing slot").Wrap(err)
	}
	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	h.slots.Release(1)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	params, ok := parsePHC(encodedHash)
	if !ok {
		return false, nil
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_BUSY").With("operation", "acquire hashing slot").Wrap(err)
	}
	computed := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))
	h.slots.Release(1)

	return subtle.ConstantTimeCompare(computed, params.key) == 1, nil
}

type phcParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parsePHC decodes an argon2id PHC string. ok is false for anything that is
// not a well-formed argon2id hash with sane parameters.
func parsePHC(encoded string) (phcParams, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phcParams{}, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phcParams{}, false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return phcParams{}, false
	}
	// Stored parameters must not let a forged hash demand unbounded work.
	if memory == 0 || memory > 4*argon2Memory || time == 0 || time > 16 || threads == 0 || threads > 255 {
		return phcParams{}, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phcParams{}, false
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1024 {
		return phcParams{}, false
	}

	return phcParams{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, true
}
