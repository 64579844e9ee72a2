// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logging_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userhub/internal/platform/logging"
)

/*
TestParseLevel maps textual levels and falls back to info.
*/
func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, expected := range tests {
		assert.Equal(t, expected, logging.ParseLevel(input), input)
	}
}

/*
TestNew_WritesTaggedJSON verifies the app tag and level filtering.
*/
func TestNew_WritesTaggedJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger, closeLog := logging.New("userhub", logging.Options{Level: "warn", Output: &buffer})
	defer func() { _ = closeLog() }()

	logger.Info("ignored_event")
	logger.Warn("cache_put_skipped")

	assert.NotContains(t, buffer.String(), "ignored_event")
	assert.Contains(t, buffer.String(), `"app":"userhub"`)
	assert.Contains(t, buffer.String(), `"msg":"cache_put_skipped"`)
}

/*
TestNew_RotatingFile mirrors entries into the configured file.
*/
func TestNew_RotatingFile(t *testing.T) {
	var buffer bytes.Buffer
	path := filepath.Join(t.TempDir(), "userhub.log")

	logger, closeLog := logging.New("userhub", logging.Options{File: path, MaxSizeMB: 1, Output: &buffer})
	logger.Info("user_registered")
	require.NoError(t, closeLog())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "user_registered")
}
