// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioweb/curio/internal/auth"
	"github.com/curioweb/curio/pkg/errutil"
)

var userColumns = []string{"id", "username", "password_hash", "is_privileged", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	user, err := auth.NewUser("alice", "$argon2id$hash")
	require.NoError(t, err)

	t.Run("inserts row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), "alice", "$argon2id$hash", false, user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewUserRepository(mock).Create(context.Background(), user))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is a duplicate username", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_lower_idx"})

		err = NewUserRepository(mock).Create(context.Background(), user)
		errutil.AssertKind(t, err, auth.ErrDuplicateUsername, "USER_DUPLICATE_USERNAME")
		errutil.AssertErrorContext(t, err, "constraint", "users_username_lower_idx")
	})

	t.Run("other failures are not duplicates", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		err = NewUserRepository(mock).Create(context.Background(), user)
		require.Error(t, err)
		assert.False(t, errors.Is(err, auth.ErrDuplicateUsername))
		errutil.AssertErrorCode(t, err, "USER_CREATE_FAILED")
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	id := ulid.Make()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("case-insensitive lookup", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("ALICE").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(id.String(), "alice", "$argon2id$hash", true, created))

		user, err := NewUserRepository(mock).GetByUsername(context.Background(), "ALICE")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, user.IsPrivileged)
		assert.Equal(t, created, user.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewUserRepository(mock).GetByUsername(context.Background(), "ghost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM users`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("not-a-ulid", "alice", "$argon2id$hash", false, created))

		_, err = NewUserRepository(mock).GetByUsername(context.Background(), "alice")
		require.Error(t, err)
		assert.False(t, errors.Is(err, auth.ErrNotFound))
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := ulid.Make()
	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewUserRepository(mock).GetByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrNotFound))
	errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
}
