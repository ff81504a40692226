package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gatekeeper/internal/models"
	"gatekeeper/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVersion() version.Info {
	return version.Info{Version: "test", GitCommit: "abc1234", BuildDate: "2026-01-01"}
}

func TestSetup_JSONToStdout(t *testing.T) {
	log, closer, err := Setup(models.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, testVersion())

	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Nil(t, closer)
}

func TestSetup_TextToStderr(t *testing.T) {
	log, closer, err := Setup(models.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}, testVersion())

	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Nil(t, closer)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetup_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatekeeper.log")

	log, closer, err := Setup(models.LoggingConfig{
		Level:    "warn",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	}, testVersion())

	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	log.Warn("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"git_commit":"abc1234"`)
}

func TestSetup_FileOutputWithoutPath(t *testing.T) {
	_, _, err := Setup(models.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "file",
	}, testVersion())

	assert.Error(t, err)
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, _, err := Setup(models.LoggingConfig{
		Level:  "loud",
		Format: "json",
		Output: "stdout",
	}, testVersion())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"Warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		level, err := parseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, level, tt.in)
	}
}
