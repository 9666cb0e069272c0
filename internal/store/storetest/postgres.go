// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

//go:build integration

// Package storetest starts a migrated PostgreSQL container for
// integration tests.
package storetest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/curioweb/curio/internal/store"
)

// StartPostgres runs a PostgreSQL container, applies all migrations and
// returns a pool plus a cleanup function that terminates the container.
func StartPostgres(ctx context.Context) (*pgxpool.Pool, func(), error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("curio_test"),
		postgres.WithUsername("curio"),
		postgres.WithPassword("curio"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, oops.With("operation", "start postgres container").Wrap(err)
	}

	terminate := func() { _ = container.Terminate(ctx) }

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, oops.With("operation", "get connection string").Wrap(err)
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		terminate()
		return nil, nil, err
	}
	if _, err := migrator.Up(); err != nil {
		_ = migrator.Close()
		terminate()
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions())
	if err != nil {
		terminate()
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		terminate()
	}
	return pool, cleanup, nil
}
