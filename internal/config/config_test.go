package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/displayctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "displayctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
interval = 5
modes = "/etc/displayctl/panel0.yaml"
socket = "/tmp/displayctl.sock"
log_level = "debug"
telemetry = true
database = "/tmp/history.db"
default_mode = 1
min_rate = 30.0
max_rate = 90.0
strategy = "v2"
`)
	t.Setenv("DISPLAYCTL_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval, "Expected Interval 5")
	assert.Equal(t, "/etc/displayctl/panel0.yaml", cfg.ModesFile)
	assert.Equal(t, "/tmp/displayctl.sock", cfg.Socket)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.True(t, cfg.Telemetry, "Expected Telemetry true")
	assert.Equal(t, "/tmp/history.db", cfg.TelemetryDB)
	assert.Equal(t, 1, cfg.DefaultMode)
	assert.InDelta(t, 30.0, cfg.MinRate, 0.001)
	assert.InDelta(t, 90.0, cfg.MaxRate, 0.001)
	assert.Equal(t, "v2", cfg.Strategy)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISPLAYCTL_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, 2, cfg.Interval, "Expected default Interval 2")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
	assert.False(t, cfg.Telemetry, "Expected default Telemetry false")
	assert.Equal(t, -1, cfg.DefaultMode, "Expected default mode sentinel -1")
	assert.Equal(t, 0.0, cfg.MinRate)
	assert.Equal(t, 0.0, cfg.MaxRate)
	assert.Equal(t, "v1", cfg.Strategy)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("DISPLAYCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("DISPLAYCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}

func TestInvalidStrategy(t *testing.T) {
	configPath := writeConfig(t, `
strategy = "v9"
`)
	t.Setenv("DISPLAYCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config_invalid_strategy")
}

func TestInvalidRateWindow(t *testing.T) {
	configPath := writeConfig(t, `
min_rate = 90.0
max_rate = 60.0
`)
	t.Setenv("DISPLAYCTL_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config_invalid_rate_window")
}

func TestLogLevelFlag(t *testing.T) {
	// Save original args and restore after test
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	t.Setenv("DISPLAYCTL_CONFIG", "")
	os.Args = []string{"cmd", "--log-level", "debug"}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}
