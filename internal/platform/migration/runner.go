// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// The serve command applies pending migrations at startup. The migrate
// command exposes up, down and version for operators.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// file source reads .sql files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// open builds a migrator for the given DSN and migrations directory.
func open(dsn, migrationsPath string, logger *slog.Logger) (*migrate.Migrate, error) {
	migrator, err := migrate.New("file://"+migrationsPath, ConvertToPgx5DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}

	// Enable verbose logging via the slog bridge.
	migrator.Log = &migrateLogger{logger: logger}
	return migrator, nil
}

// closeMigrator releases source and database handles, logging failures.
func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceError, dbError := migrator.Close()
	if sourceError != nil {
		logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
	}
	if dbError != nil {
		logger.Error("migration_db_close_failed", slog.Any("error", dbError))
	}
}

// RunUp applies all pending UP migrations.
//
// # Parameters
//   - dsn: A libpq-compatible DSN or postgres:// URL.
//   - migrationsPath: Filesystem path to the migrations directory.
//   - logger: Structured logger for migration events.
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := open(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator, logger)

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}

	if isDirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
	}

	logger.Info("migration_started", slog.Int("current_version", int(currentVersion)))

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	logger.Info("migration_successful",
		slog.Int("from_version", int(currentVersion)),
		slog.Int("to_version", int(newVersion)),
	)

	return nil
}

// RunDown rolls back the given number of migrations.
func RunDown(dsn string, migrationsPath string, steps int, logger *slog.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("migration: steps must be positive, got %d", steps)
	}

	migrator, err := open(dsn, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer closeMigrator(migrator, logger)

	if err := migrator.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: down failed: %w", err)
	}

	logger.Warn("migration_rolled_back", slog.Int("steps", steps))
	return nil
}

// Version reports the applied schema version and whether it is dirty.
// A database without migrations reports version 0.
func Version(dsn string, migrationsPath string, logger *slog.Logger) (uint, bool, error) {
	migrator, err := open(dsn, migrationsPath, logger)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(migrator, logger)

	version, isDirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration: failed to get current version: %w", err)
	}
	return version, isDirty, nil
}

// ConvertToPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func ConvertToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
