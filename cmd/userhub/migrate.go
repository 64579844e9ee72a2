// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taibuivan/userhub/internal/platform/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closeLog, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLog()

		return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back the given number of migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			steps = parsed
		}

		cfg, log, closeLog, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLog()

		return migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, log)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closeLog, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLog()

		version, dirty, err := migration.Version(cfg.DatabaseURL, cfg.MigrationPath, log)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
