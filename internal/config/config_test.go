package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SLIDEGENIE_API_URL", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DEBUG", "")
	t.Setenv("AUTOSAVE_DELAY", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "dev", cfg.Environment)
	assert.True(t, cfg.Debug)
	assert.Equal(t, time.Second, cfg.AutosaveDelay)
	assert.Equal(t, 3, cfg.ReconnectAttempts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLIDEGENIE_API_URL", "https://api.example.edu/")
	t.Setenv("SLIDEGENIE_WS_URL", "wss://ws.example.edu")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("DEBUG", "")
	t.Setenv("RECONNECT_ATTEMPTS", "5")
	t.Setenv("AUTOSAVE_DELAY", "250ms")

	cfg := Load()

	assert.Equal(t, "https://api.example.edu", cfg.APIURL)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 5, cfg.ReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.AutosaveDelay)
	assert.Equal(t, "wss://ws.example.edu/generation/gen-1", cfg.GenerationSocketURL("gen-1"))
}

func TestPruneLogsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"slidegenie-2024-01-01T00-00-00.000.log",
		"slidegenie-2024-01-02T00-00-00.000.log",
		"slidegenie-2024-01-03T00-00-00.000.log",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}

	require.NoError(t, pruneLogs(dir, 2))

	left, err := filepath.Glob(filepath.Join(dir, "slidegenie-*.log"))
	require.NoError(t, err)
	assert.Len(t, left, 2)
	assert.NoFileExists(t, filepath.Join(dir, names[0]))
}
