// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioweb/curio/internal/store"
	"github.com/curioweb/curio/pkg/errutil"
)

var (
	usersMigration    = store.Migration{Version: 1, Name: "users"}
	sessionsMigration = store.Migration{Version: 2, Name: "web_sessions"}
	itemsMigration    = store.Migration{Version: 3, Name: "content_items"}
	stubsMigration    = store.Migration{Version: 4, Name: "stub_collections"}
)

type fakeMigrator struct {
	schema   store.Schema
	applied  []store.Migration
	undone   []store.Migration
	upErr    error
	calls    []string
	steps    int
	forced   uint
	forceErr error
	closed   bool
}

func (f *fakeMigrator) Up() ([]store.Migration, error) {
	f.calls = append(f.calls, "up")
	return f.applied, f.upErr
}

func (f *fakeMigrator) Rollback(steps int) ([]store.Migration, error) {
	f.calls = append(f.calls, "rollback")
	f.steps = steps
	return f.undone, nil
}

func (f *fakeMigrator) Schema() (store.Schema, error) { return f.schema, nil }

func (f *fakeMigrator) Force(v uint) error {
	f.calls = append(f.calls, "force")
	f.forced = v
	return f.forceErr
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func runMigrate(t *testing.T, m *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	orig := migratorFactory
	migratorFactory = func() (migrator, error) { return m, nil }
	t.Cleanup(func() { migratorFactory = orig })

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"migrate"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_Up(t *testing.T) {
	t.Run("lists what was applied", func(t *testing.T) {
		m := &fakeMigrator{applied: []store.Migration{itemsMigration, stubsMigration}}
		out, err := runMigrate(t, m, "up")
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, m.calls)
		assert.Equal(t, "Applied 000003_content_items\nApplied 000004_stub_collections\n", out)
		assert.True(t, m.closed)
	})

	t.Run("bare migrate means up", func(t *testing.T) {
		m := &fakeMigrator{applied: []store.Migration{usersMigration}}
		_, err := runMigrate(t, m)
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, m.calls)
	})

	t.Run("nothing pending", func(t *testing.T) {
		out, err := runMigrate(t, &fakeMigrator{}, "up")
		require.NoError(t, err)
		assert.Contains(t, out, "No pending migrations")
	})

	t.Run("partial failure still reports progress", func(t *testing.T) {
		m := &fakeMigrator{applied: []store.Migration{sessionsMigration}, upErr: errors.New("boom")}
		out, err := runMigrate(t, m, "up")
		require.Error(t, err)
		assert.Contains(t, out, "Applied 000002_web_sessions")
		assert.True(t, m.closed)
	})
}

func TestMigrate_Down(t *testing.T) {
	t.Run("one step by default", func(t *testing.T) {
		m := &fakeMigrator{undone: []store.Migration{stubsMigration}}
		out, err := runMigrate(t, m, "down")
		require.NoError(t, err)
		assert.Equal(t, 1, m.steps)
		assert.Contains(t, out, "Rolled back 000004_stub_collections")
	})

	t.Run("explicit steps", func(t *testing.T) {
		m := &fakeMigrator{}
		_, err := runMigrate(t, m, "down", "3")
		require.NoError(t, err)
		assert.Equal(t, 3, m.steps)
	})

	t.Run("all", func(t *testing.T) {
		m := &fakeMigrator{}
		out, err := runMigrate(t, m, "down", "--all")
		require.NoError(t, err)
		assert.Equal(t, []string{"rollback"}, m.calls)
		assert.Zero(t, m.steps)
		assert.Contains(t, out, "Nothing to roll back")
	})

	t.Run("rejects bad step count", func(t *testing.T) {
		for _, arg := range []string{"0", "-2", "abc"} {
			m := &fakeMigrator{}
			_, err := runMigrate(t, m, "down", "--", arg)
			require.Error(t, err, arg)
			errutil.AssertErrorCode(t, err, "MIGRATE_ARGS_INVALID")
			assert.Empty(t, m.calls)
		}
	})

	t.Run("rejects all with steps", func(t *testing.T) {
		m := &fakeMigrator{}
		_, err := runMigrate(t, m, "down", "--all", "2")
		errutil.AssertErrorCode(t, err, "MIGRATE_ARGS_INVALID")
		assert.Empty(t, m.calls)
	})
}

func TestMigrate_VersionAndStatus(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		out, err := runMigrate(t, &fakeMigrator{schema: store.Schema{Version: 4}}, "version")
		require.NoError(t, err)
		assert.Equal(t, "4\n", out)
	})

	t.Run("dirty version", func(t *testing.T) {
		out, err := runMigrate(t, &fakeMigrator{schema: store.Schema{Version: 2, Dirty: true}}, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "2 (dirty)")
	})

	t.Run("status lists pending by name", func(t *testing.T) {
		schema := store.Schema{
			Version: 2,
			Applied: []store.Migration{usersMigration, sessionsMigration},
			Pending: []store.Migration{itemsMigration, stubsMigration},
		}
		out, err := runMigrate(t, &fakeMigrator{schema: schema}, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Current version: 2 (000002_web_sessions)")
		assert.Contains(t, out, "  000003_content_items")
		assert.Contains(t, out, "  000004_stub_collections")
	})

	t.Run("status on an empty database", func(t *testing.T) {
		schema := store.Schema{Pending: []store.Migration{usersMigration}}
		out, err := runMigrate(t, &fakeMigrator{schema: schema}, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Current version: 0 (none)")
	})

	t.Run("status up to date", func(t *testing.T) {
		schema := store.Schema{Version: 4, Applied: []store.Migration{stubsMigration}}
		out, err := runMigrate(t, &fakeMigrator{schema: schema}, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "Schema is up to date")
	})
}

func TestMigrate_Force(t *testing.T) {
	m := &fakeMigrator{}
	out, err := runMigrate(t, m, "force", "3")
	require.NoError(t, err)
	assert.Equal(t, uint(3), m.forced)
	assert.Contains(t, out, "Forced schema version to 3")

	for _, arg := range []string{"x", "-1"} {
		m = &fakeMigrator{}
		_, err = runMigrate(t, m, "force", "--", arg)
		errutil.AssertErrorCode(t, err, "MIGRATE_ARGS_INVALID")
		assert.Empty(t, m.calls)
	}
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate", "version"})

	err := cmd.Execute()
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_DATABASE_URL_MISSING")
}
