package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wikisql/internal/config"
)

func restoreDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestSetupLogging_Stderr(t *testing.T) {
	restoreDefaultLogger(t)
	buf := &bytes.Buffer{}

	closer, err := setupLogging(config.LogConfig{Level: "info"}, false, buf)
	require.NoError(t, err)
	assert.Nil(t, closer)

	slog.Debug("hidden")
	slog.Info("shown", "n", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown n=1")
}

func TestSetupLogging_VerboseForcesDebug(t *testing.T) {
	restoreDefaultLogger(t)
	buf := &bytes.Buffer{}

	_, err := setupLogging(config.LogConfig{Level: "error"}, true, buf)
	require.NoError(t, err)

	slog.Debug("details")
	assert.Contains(t, buf.String(), "level=DEBUG msg=details")
}

func TestSetupLogging_File(t *testing.T) {
	restoreDefaultLogger(t)
	buf := &bytes.Buffer{}
	path := filepath.Join(t.TempDir(), "logs", "wikisql.log")

	closer, err := setupLogging(config.LogConfig{File: path, Level: "warn", MaxSizeMB: 1}, false, buf)
	require.NoError(t, err)
	require.NotNil(t, closer)

	slog.Info("skipped")
	slog.Warn("rotating")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=rotating")
	assert.NotContains(t, string(data), "skipped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range testCases {
		got, err := parseLevel(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
}
