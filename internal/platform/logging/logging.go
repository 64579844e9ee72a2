// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package logging builds the process-wide structured logger.
//
// Entries are JSON encoded with log/slog. When a file path is configured the
// same stream is also written to a size-rotated file managed by lumberjack.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures [New].
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values fall back to info.
	Level string
	// File enables rotation into the given path when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output overrides stdout, mainly for tests.
	Output io.Writer
}

// New returns a JSON logger tagged with the application name, and a closer
// for the rotating file (a no-op when no file is configured).
func New(app string, options Options) (*slog.Logger, func() error) {
	var output io.Writer = os.Stdout
	if options.Output != nil {
		output = options.Output
	}

	closer := func() error { return nil }

	if options.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   true,
		}
		output = io.MultiWriter(output, rotator)
		closer = rotator.Close
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(options.Level),
	})

	return slog.New(handler).With(slog.String("app", app)), closer
}

// ParseLevel maps a textual level to [slog.Level].
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
