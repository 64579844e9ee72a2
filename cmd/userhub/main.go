// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command userhub is the entry point for the account API server.
//
// # Commands
//
//   - userhub serve            : run the HTTP API (default).
//   - userhub migrate up       : apply all pending migrations.
//   - userhub migrate down N   : roll back N migrations.
//   - userhub migrate version  : print the current schema version.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/userhub/internal/platform/config"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/logging"
)

// envFile is the optional dotenv file loaded before the environment is parsed.
var envFile string

var rootCmd = &cobra.Command{
	Use:           constants.AppName,
	Short:         "userhub is a session-authenticated user account service.",
	Version:       constants.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
//
// The returned closer flushes the rotating log file, if any.
func bootstrap() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}

	log, closer := logging.New(constants.AppName, logging.Options{
		Level:      level,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	slog.SetDefault(log)

	return cfg, log, closer, nil
}
