// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioweb/curio/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher(2)
	ctx := context.Background()

	t.Run("produces argon2id PHC string", func(t *testing.T) {
		hash, err := hasher.Hash(ctx, "password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("same password produces different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash(ctx, "samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash(ctx, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrInvalidInput))
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher(2)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "correctpassword")
	require.NoError(t, err)

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := hasher.Verify(ctx, "correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		ok, err := hasher.Verify(ctx, "wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("password is case sensitive", func(t *testing.T) {
		ok, err := hasher.Verify(ctx, "CorrectPassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	malformed := map[string]string{
		"empty":             "",
		"plaintext":         "correctpassword",
		"bcrypt":            "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		"wrong version":     "$argon2id$v=18$m=65536,t=1,p=4$c29tZXNhbHQ$aGFzaA",
		"bad params":        "$argon2id$v=19$m=abc,t=1,p=4$c29tZXNhbHQ$aGFzaA",
		"bad salt encoding": "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"excessive memory":  "$argon2id$v=19$m=4194304,t=1,p=4$c29tZXNhbHQ$aGFzaA",
		"excessive time":    "$argon2id$v=19$m=65536,t=100,p=4$c29tZXNhbHQ$aGFzaA",
		"zero threads":      "$argon2id$v=19$m=65536,t=1,p=0$c29tZXNhbHQ$aGFzaA",
		"missing key":       "$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHQ$",
	}
	for name, encoded := range malformed {
		t.Run("malformed hash is a mismatch: "+name, func(t *testing.T) {
			ok, err := hasher.Verify(ctx, "correctpassword", encoded)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestNewArgon2idHasher_DefaultsConcurrency(t *testing.T) {
	hasher := auth.NewArgon2idHasher(0)
	hash, err := hasher.Hash(context.Background(), "pw")
	require.NoError(t, err)

	ok, err := hasher.Verify(context.Background(), "pw", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}
