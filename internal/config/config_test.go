package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "static", cfg.Server.StaticDir)
	assert.Equal(t, "nifty_candlestick_chart.png", cfg.Server.ChartFile)
	assert.Equal(t, "table.png", cfg.Server.TableFile)
	assert.Equal(t, "NIFTY", cfg.DataSource.Symbol)
	assert.True(t, cfg.ValidateOHLC())
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL())

	start, end := cfg.DefaultRange()
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
  static_dir: /srv/static
data_source:
  symbol: NSEI
scanner:
  validate_ohlc: false
cache:
  sqlite_path: /tmp/bars.db
  ttl: 30m
schedule:
  warm_cron: "0 30 16 * * 1-5"
`)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/static", cfg.Server.StaticDir)
	assert.Equal(t, "NSEI", cfg.DataSource.Symbol)
	assert.False(t, cfg.ValidateOHLC())
	assert.Equal(t, "/tmp/bars.db", cfg.Cache.SQLitePath)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"start date", func(c *Config) { c.DataSource.DefaultStart = "01/01/2023" }},
		{"end date", func(c *Config) { c.DataSource.DefaultEnd = "not a date" }},
		{"reversed range", func(c *Config) { c.DataSource.DefaultStart, c.DataSource.DefaultEnd = "2023-09-30", "2023-01-01" }},
		{"chart size", func(c *Config) { c.Chart.WidthIn = -1 }},
		{"ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"cron", func(c *Config) { c.Schedule.WarmCron = "every day" }},
		{"lookback", func(c *Config) { c.Schedule.WarmLookbackDays = 1 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("DEBUG").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("bogus").GetLevel())
}
