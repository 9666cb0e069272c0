// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/curioweb/curio/internal/config"
	"github.com/curioweb/curio/internal/content"
	contentpg "github.com/curioweb/curio/internal/content/postgres"
	"github.com/curioweb/curio/internal/store"
)

const defaultItemsTimeout = 30 * time.Second

// itemStoreFactory opens the PostgreSQL item store named by DATABASE_URL.
// Tests replace it.
var itemStoreFactory = func(ctx context.Context) (content.Repository, func(), error) {
	env, err := config.ParseEnv()
	if err != nil {
		return nil, nil, err
	}
	dsn, err := env.RequireDatabaseURL()
	if err != nil {
		return nil, nil, err
	}
	pool, err := store.Connect(ctx, dsn, connectOptions)
	if err != nil {
		return nil, nil, err
	}
	return contentpg.NewItemRepository(pool), pool.Close, nil
}

// NewItemsCmd creates the items command. Item creation and deletion are
// operator actions; the HTTP surface is read-only.
func NewItemsCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage catalog items",
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultItemsTimeout, "timeout for database operations")

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Validate a YAML item file and insert its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItemStore(cmd, timeout, func(ctx context.Context, items content.Repository) error {
				n, err := seedItems(ctx, items, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Seeded %d item(s)\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tombstone <id>",
		Short: "Soft-delete an item so it disappears from every read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := content.ParseID(args[0])
			if err != nil {
				return err
			}
			return withItemStore(cmd, timeout, func(ctx context.Context, items content.Repository) error {
				if err := items.Tombstone(ctx, id, time.Now().UTC()); err != nil {
					return err
				}
				cmd.Printf("Tombstoned %s\n", id)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for item seed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := content.GenerateSeedSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
			return err
		},
	})

	return cmd
}

func withItemStore(cmd *cobra.Command, timeout time.Duration, fn func(context.Context, content.Repository) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	items, closeFn, err := itemStoreFactory(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, items)
}
