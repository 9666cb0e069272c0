// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package store provides the PostgreSQL connection pool and schema
// migrations shared by the repositories.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnectOptions controls how Connect retries an unreachable database.
type ConnectOptions struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
	// Logger receives one warning per failed ping. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConnectOptions retries for roughly half a minute.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxRetries:  6,
		BaseBackoff: 500 * time.Millisecond,
	}
}

// Connect opens a pgx pool and pings it, retrying with exponential backoff
// while the database is unreachable. A malformed DSN fails immediately.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(opts.BaseBackoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable yet", "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return pool, nil
}
