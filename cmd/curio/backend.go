// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"

	"github.com/curioweb/curio/internal/auth"
	authmem "github.com/curioweb/curio/internal/auth/memory"
	authpg "github.com/curioweb/curio/internal/auth/postgres"
	"github.com/curioweb/curio/internal/config"
	"github.com/curioweb/curio/internal/content"
	contentmem "github.com/curioweb/curio/internal/content/memory"
	contentpg "github.com/curioweb/curio/internal/content/postgres"
	"github.com/curioweb/curio/internal/observability"
	"github.com/curioweb/curio/internal/store"
)

// connectOptions governs how long serve waits for PostgreSQL. Tests shorten it.
var connectOptions = store.DefaultConnectOptions()

// backend is one storage backend's repositories.
type backend struct {
	Users    auth.UserRepository
	Sessions auth.SessionRepository
	Items    content.Repository
	Ready    observability.ReadinessChecker
	Close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, env config.Env, logger *slog.Logger) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return openMemoryBackend(), nil
	case config.BackendPostgres:
		return openPostgresBackend(ctx, cfg, env, logger)
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("key", "store.backend").
			Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openMemoryBackend() *backend {
	return &backend{
		Users:    authmem.NewUserRepository(),
		Sessions: authmem.NewSessionRepository(),
		Items:    contentmem.NewItemRepository(),
		Ready:    func() bool { return true },
		Close:    func() {},
	}
}

func openPostgresBackend(ctx context.Context, cfg *config.Config, env config.Env, logger *slog.Logger) (*backend, error) {
	dsn, err := env.RequireDatabaseURL()
	if err != nil {
		return nil, err
	}

	// Connect first: it waits out a database that is still starting, and the
	// migrator does not retry.
	opts := connectOptions
	opts.Logger = logger
	pool, err := store.Connect(ctx, dsn, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	if cfg.Store.Migrate {
		if err := migrateUp(dsn, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &backend{
		Users:    authpg.NewUserRepository(pool),
		Sessions: authpg.NewSessionRepository(pool),
		Items:    contentpg.NewItemRepository(pool),
		Ready: func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		},
		Close: pool.Close,
	}, nil
}

// migrateUp applies pending migrations. The migrator logs each one.
func migrateUp(dsn string, logger *slog.Logger) error {
	m, err := store.NewMigrator(dsn, store.WithMigratorLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	applied, err := m.Up()
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		logger.Debug("schema already up to date")
	}
	return nil
}

// seedItems loads the YAML item file at path into items and returns how
// many were stored. Nothing is stored if the file fails validation.
func seedItems(ctx context.Context, items content.Repository, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return 0, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	parsed, err := content.ParseSeed(data)
	if err != nil {
		return 0, oops.With("path", path).Wrap(err)
	}
	for i, item := range parsed {
		if err := items.Create(ctx, item); err != nil {
			return i, oops.Code("SEED_FAILED").
				With("path", path).
				With("index", i).
				Wrap(err)
		}
	}
	return len(parsed), nil
}
