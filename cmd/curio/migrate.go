// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/curioweb/curio/internal/config"
	"github.com/curioweb/curio/internal/logging"
	"github.com/curioweb/curio/internal/store"
)

// migrator is the part of *store.Migrator the migrate commands use.
type migrator interface {
	Up() ([]store.Migration, error)
	Rollback(steps int) ([]store.Migration, error)
	Schema() (store.Schema, error)
	Force(version uint) error
	Close() error
}

// migratorFactory opens a migrator against DATABASE_URL. Tests replace it.
var migratorFactory = func() (migrator, error) {
	env, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}
	dsn, err := env.RequireDatabaseURL()
	if err != nil {
		return nil, err
	}
	// The commands print their own report.
	return store.NewMigrator(dsn, store.WithMigratorLogger(logging.Discard()))
}

// NewMigrateCmd creates the migrate command and its subcommands. Bare
// "curio migrate" is "curio migrate up".
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back and inspect the PostgreSQL schema. Reads DATABASE_URL.`,
		RunE:  withMigrator(runMigrateUp),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(runMigrateUp),
	})

	var all bool
	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, args []string) error {
			return runMigrateDown(cmd, m, args, all)
		}),
	}
	down.Flags().BoolVar(&all, "all", false, "roll back every migration (drops all data)")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(runMigrateVersion),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(runMigrateStatus),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Long:  `Mark the schema as being at <version> and clear the dirty flag. Use only after repairing a failed migration by hand.`,
		Args:  cobra.ExactArgs(1),
		RunE:  withMigrator(runMigrateForce),
	})

	return cmd
}

// withMigrator opens a migrator for the duration of fn.
func withMigrator(fn func(cmd *cobra.Command, m migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := migratorFactory()
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				cmd.PrintErrln("warning: failed to close migrator:", closeErr)
			}
		}()
		return fn(cmd, m, args)
	}
}

func runMigrateUp(cmd *cobra.Command, m migrator, _ []string) error {
	applied, err := m.Up()
	for _, mig := range applied {
		cmd.Println("Applied " + mig.String())
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		cmd.Println("No pending migrations")
	}
	return nil
}

func runMigrateDown(cmd *cobra.Command, m migrator, args []string, all bool) error {
	steps := 1
	switch {
	case all && len(args) > 0:
		return oops.Code("MIGRATE_ARGS_INVALID").Errorf("--all cannot be combined with a step count")
	case all:
		steps = 0
	case len(args) == 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return oops.Code("MIGRATE_ARGS_INVALID").
				With("steps", args[0]).
				Errorf("steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}

	undone, err := m.Rollback(steps)
	for _, mig := range undone {
		cmd.Println("Rolled back " + mig.String())
	}
	if err != nil {
		return err
	}
	if len(undone) == 0 {
		cmd.Println("Nothing to roll back")
	}
	return nil
}

func runMigrateVersion(cmd *cobra.Command, m migrator, _ []string) error {
	s, err := m.Schema()
	if err != nil {
		return err
	}
	if s.Dirty {
		cmd.Printf("%d (dirty)\n", s.Version)
		return nil
	}
	cmd.Println(s.Version)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m migrator, _ []string) error {
	s, err := m.Schema()
	if err != nil {
		return err
	}

	current := "none"
	if n := len(s.Applied); n > 0 {
		current = s.Applied[n-1].String()
	}
	cmd.Printf("Current version: %d (%s)\n", s.Version, current)
	if s.Dirty {
		cmd.Println("WARNING: schema is dirty; repair it and run 'curio migrate force <version>'")
	}
	if len(s.Pending) == 0 {
		cmd.Println("Schema is up to date")
		return nil
	}
	cmd.Printf("Pending migrations: %d\n", len(s.Pending))
	for _, mig := range s.Pending {
		cmd.Println("  " + mig.String())
	}
	return nil
}

func runMigrateForce(cmd *cobra.Command, m migrator, args []string) error {
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return oops.Code("MIGRATE_ARGS_INVALID").
			With("version", args[0]).
			Errorf("version must be a non-negative integer, got %q", args[0])
	}
	if err := m.Force(uint(v)); err != nil {
		return err
	}
	cmd.Printf("Forced schema version to %d\n", v)
	return nil
}
