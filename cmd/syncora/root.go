// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Syncora CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syncora",
		Short: "Syncora - team collaboration server",
		Long: `Syncora is a team collaboration server with role-based channel
visibility, direct messages, file attachments, and a durable change feed.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
