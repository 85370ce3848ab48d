package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/clawback/internal/money"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clawback.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./data/clawback.db", cfg.Storage.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Confirm.TTL)
	assert.Equal(t, money.ILS, cfg.Trips.DefaultBaseCurrency)
	assert.Equal(t, FXFrankfurter, cfg.FX.Provider)
	assert.Equal(t, time.Hour, cfg.FX.CacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Confirm.TTL, cfg.Confirm.TTL)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: /var/lib/clawback/db.sqlite
server:
  addr: ":9090"
  rate_limit:
    per_second: 0.5
    burst: 3
parser:
  wake_words: [bot, בוט]
confirm:
  ttl: 2m
trips:
  default_base_currency: EUR
fx:
  provider: static
  static_rates:
    EUR/ILS: "3.95"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/clawback/db.sqlite", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.InDelta(t, 0.5, cfg.Server.RateLimit.PerSecond, 0.001)
	assert.Equal(t, 3, cfg.Server.RateLimit.Burst)
	assert.Equal(t, []string{"bot", "בוט"}, cfg.Parser.WakeWords)
	assert.Equal(t, 2*time.Minute, cfg.Confirm.TTL)
	assert.Equal(t, money.EUR, cfg.Trips.DefaultBaseCurrency)
	assert.Equal(t, FXStatic, cfg.FX.Provider)
	assert.Equal(t, "3.95", cfg.FX.StaticRates["EUR/ILS"])
	// untouched keys keep their defaults
	assert.Equal(t, time.Minute, cfg.Server.PruneInterval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLAWBACK_DB_PATH", "/tmp/override.db")
	t.Setenv("CLAWBACK_ADDR", ":7070")
	t.Setenv("CLAWBACK_JWT_SECRET", "s3cret")
	t.Setenv("CLAWBACK_FX_PROVIDER", "IDENTITY")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Storage.Path)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, FXIdentity, cfg.FX.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.Confirm.TTL = 0 }},
		{"unknown currency", func(c *Config) { c.Trips.DefaultBaseCurrency = "XYZ" }},
		{"unknown provider", func(c *Config) { c.FX.Provider = "oracle" }},
		{"static without rates", func(c *Config) { c.FX.Provider = FXStatic }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit.PerSecond = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"no storage path", func(c *Config) { c.Storage.Path = "" }},
		{"zero prune interval", func(c *Config) { c.Server.PruneInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "confirm: [not, a, map]\n")
	_, err := Load(path)
	assert.Error(t, err)
}
