// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Curio CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curio",
		Short: "Curio - a small multi-user content site",
		Long: `Curio serves a login-gated landing page and a read-only catalog of
items with pictures and localized text.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewItemsCmd())

	return cmd
}
