package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, cfg.Courts)
	assert.Equal(t, 2.0, cfg.Scorecard.PixelRatio)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
courts: ["A", "B"]
scorecard:
  pixel_ratio: 3
session:
  idle_ttl: 30m
observability:
  log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"A", "B"}, cfg.Courts)
	assert.Equal(t, 3.0, cfg.Scorecard.PixelRatio)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, "scorecard_session", cfg.Session.CookieName, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "courts: [\"1\"]\n")
	t.Setenv("PORT", "3000")
	t.Setenv("COURTS", "7, 8 ,,9")
	t.Setenv("PIXEL_RATIO", "1.5")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SCORECARD_TIMEZONE", "UTC")
	t.Setenv("SESSION_MAX_ENTRIES", "50")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, []string{"7", "8", "9"}, cfg.Courts)
	assert.Equal(t, 1.5, cfg.Scorecard.PixelRatio)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.False(t, cfg.Observability.MetricsEnabled)
	assert.Equal(t, "UTC", cfg.Scorecard.Timezone)
	assert.Equal(t, 50, cfg.Session.MaxEntries)
}

func TestScorecardConfig_Location(t *testing.T) {
	loc, err := ScorecardConfig{}.Location()
	require.NoError(t, err)
	assert.Nil(t, loc, "empty keeps the server's zone")

	loc, err = ScorecardConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "courts: [\n"},
		{name: "no courts", body: "courts: []\n"},
		{name: "zero pixel ratio", body: "scorecard:\n  pixel_ratio: 0\n"},
		{name: "bad log level", body: "observability:\n  log_level: loud\n"},
		{name: "bad env ratio", env: map[string]string{"PIXEL_RATIO": "two"}},
		{name: "bad env ttl", env: map[string]string{"SESSION_IDLE_TTL": "forever"}},
		{name: "unknown timezone", body: "scorecard:\n  timezone: Mars/Olympus\n"},
		{name: "negative max entries", body: "session:\n  max_entries: -1\n"},
		{name: "bad env max entries", env: map[string]string{"SESSION_MAX_ENTRIES": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("nope")
	assert.Error(t, err)
}
