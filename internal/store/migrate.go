// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_(\w+)\.(up|down)\.sql$`)

// Migration is one schema change shipped with the binary.
type Migration struct {
	Version uint
	Name    string
}

// String returns the file stem, e.g. "000003_content_items".
func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

var embedded = sync.OnceValues(func() ([]Migration, error) {
	return readMigrations(migrationsFS)
})

// Migrations lists the embedded schema changes in the order they apply.
func Migrations() ([]Migration, error) {
	all, err := embedded()
	if err != nil {
		return nil, err
	}
	return slices.Clone(all), nil
}

// readMigrations pairs up and down files by version. golang-migrate skips
// names it cannot parse, so a misnamed file is an error here rather than a
// silently missing table.
func readMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}

	type halves struct {
		name     string
		up, down bool
	}
	byVersion := make(map[uint]*halves)
	for _, entry := range entries {
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, oops.Code("MIGRATION_NAME_INVALID").
				With("file", entry.Name()).
				Errorf("migration file %q is not named NNNNNN_name.(up|down).sql", entry.Name())
		}
		v, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil || v == 0 {
			return nil, oops.Code("MIGRATION_NAME_INVALID").
				With("file", entry.Name()).
				Errorf("migration file %q needs a version above zero", entry.Name())
		}
		h, ok := byVersion[uint(v)]
		if !ok {
			h = &halves{name: match[2]}
			byVersion[uint(v)] = h
		}
		if h.name != match[2] {
			return nil, oops.Code("MIGRATION_NAME_INVALID").
				With("version", v).
				Errorf("version %d is used by both %q and %q", v, h.name, match[2])
		}
		if match[3] == "up" {
			h.up = true
		} else {
			h.down = true
		}
	}

	all := make([]Migration, 0, len(byVersion))
	for v, h := range byVersion {
		if !h.up || !h.down {
			return nil, oops.Code("MIGRATION_INCOMPLETE").
				With("version", v).
				Errorf("migration %06d_%s needs both an up and a down file", v, h.name)
		}
		all = append(all, Migration{Version: v, Name: h.name})
	}
	slices.SortFunc(all, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return all, nil
}

// between returns the embedded migrations with from < version <= to.
func between(from, to uint) ([]Migration, error) {
	all, err := embedded()
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, m := range all {
		if m.Version > from && m.Version <= to {
			out = append(out, m)
		}
	}
	return out, nil
}

// engine is the part of *migrate.Migrate the Migrator drives.
type engine interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Schema describes a database relative to the embedded migrations.
type Schema struct {
	Version uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

// Migrator applies Curio's embedded migrations to one database.
type Migrator struct {
	engine engine
	logger *slog.Logger
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithMigratorLogger sets where applied and rolled back migrations are logged.
func WithMigratorLogger(logger *slog.Logger) MigratorOption {
	return func(m *Migrator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMigrator opens a migrator against a postgres:// or pgx5:// URL.
func NewMigrator(databaseURL string, opts ...MigratorOption) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}
	eng, err := migrate.NewWithSourceInstance("iofs", source, pgx5URL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // the init error is the one worth returning
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return newMigrator(eng, opts...), nil
}

func newMigrator(eng engine, opts ...MigratorOption) *Migrator {
	m := &Migrator{engine: eng, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// pgx5URL points golang-migrate's pgx/v5 driver at a libpq-style URL.
func pgx5URL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

func (m *Migrator) version() (uint, bool, error) {
	v, dirty, err := m.engine.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return v, dirty, nil
}

// Schema reports the current version and which migrations have run.
func (m *Migrator) Schema() (Schema, error) {
	v, dirty, err := m.version()
	if err != nil {
		return Schema{}, err
	}
	all, err := embedded()
	if err != nil {
		return Schema{}, err
	}
	s := Schema{Version: v, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= v {
			s.Applied = append(s.Applied, mig)
		} else {
			s.Pending = append(s.Pending, mig)
		}
	}
	return s, nil
}

// Up applies every pending migration and returns the ones that completed.
// A dirty schema is refused until it is repaired and forced.
func (m *Migrator) Up() ([]Migration, error) {
	before, dirty, err := m.version()
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, oops.Code("MIGRATION_DIRTY").
			With("version", before).
			Errorf("schema is dirty at version %d; repair it and run 'curio migrate force'", before)
	}

	runErr := m.engine.Up()
	if errors.Is(runErr, migrate.ErrNoChange) {
		runErr = nil
	}

	applied, err := m.moved(before, runErr)
	for _, mig := range applied {
		m.logger.Info("applied migration", "version", mig.Version, "name", mig.Name)
	}
	if err != nil {
		return applied, err
	}
	if runErr != nil {
		return applied, oops.Code("MIGRATION_UP_FAILED").With("from_version", before).Wrap(runErr)
	}
	return applied, nil
}

// moved returns the migrations that completed going up from before. A
// failed run leaves the engine dirty at the migration that broke, which
// does not count as applied.
func (m *Migrator) moved(before uint, runErr error) ([]Migration, error) {
	after, dirty, err := m.version()
	if err != nil {
		if runErr != nil {
			return nil, oops.Code("MIGRATION_UP_FAILED").With("from_version", before).Wrap(runErr)
		}
		return nil, err
	}
	applied, err := between(before, after)
	if err != nil {
		return nil, err
	}
	if dirty && len(applied) > 0 {
		applied = applied[:len(applied)-1]
	}
	return applied, nil
}

// Rollback undoes the newest steps migrations and returns them newest
// first. steps <= 0 undoes all of them, dropping every table.
func (m *Migrator) Rollback(steps int) ([]Migration, error) {
	before, _, err := m.version()
	if err != nil {
		return nil, err
	}

	var runErr error
	if steps <= 0 {
		runErr = m.engine.Down()
	} else {
		runErr = m.engine.Steps(-steps)
	}
	var short migrate.ErrShortLimit
	if errors.Is(runErr, migrate.ErrNoChange) || errors.As(runErr, &short) {
		runErr = nil
	}

	after, _, err := m.version()
	if err != nil {
		return nil, err
	}
	undone, err := between(after, before)
	if err != nil {
		return nil, err
	}
	slices.Reverse(undone)
	for _, mig := range undone {
		m.logger.Warn("rolled back migration", "version", mig.Version, "name", mig.Name)
	}
	if runErr != nil {
		return undone, oops.Code("MIGRATION_ROLLBACK_FAILED").
			With("from_version", before).
			With("steps", steps).
			Wrap(runErr)
	}
	return undone, nil
}

// Force records version as applied and clears the dirty flag without
// running any SQL. version must be 0 or one of the embedded migrations.
func (m *Migrator) Force(version uint) error {
	target := database.NilVersion
	if version != 0 {
		all, err := embedded()
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(all, func(mig Migration) bool { return mig.Version == version }) {
			return oops.Code("MIGRATION_VERSION_UNKNOWN").
				With("version", version).
				Errorf("no migration has version %d", version)
		}
		target = int(version)
	}
	if err := m.engine.Force(target); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	m.logger.Warn("forced schema version", "version", version)
	return nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.engine.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}
