// Package config loads clawback.yaml, a .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/clawback/internal/money"
)

// FX providers.
const (
	FXIdentity    = "identity"
	FXStatic      = "static"
	FXFrankfurter = "frankfurter"
)

// Config represents the top-level clawback.yaml configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Parser  ParserConfig  `yaml:"parser"`
	Confirm ConfirmConfig `yaml:"confirm"`
	Trips   TripsConfig   `yaml:"trips"`
	FX      FXConfig      `yaml:"fx"`
	Log     LogConfig     `yaml:"log"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr           string          `yaml:"addr"`
	AllowedOrigins []string        `yaml:"allowed_origins,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	// PruneInterval is how often expired confirmations are swept.
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// RateLimitConfig throttles messages per chat. PerSecond 0 disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type AuthConfig struct {
	// JWTSecret signs bridge tokens. Empty disables auth.
	// TokenTTL 0 issues tokens that never expire.
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type ParserConfig struct {
	WakeWords []string `yaml:"wake_words,omitempty"`
}

type ConfirmConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type TripsConfig struct {
	DefaultBaseCurrency money.Currency `yaml:"default_base_currency"`
}

type FXConfig struct {
	Provider string        `yaml:"provider"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// StaticRates maps "BASE/QUOTE" to a decimal rate, e.g. "EUR/ILS": "3.95".
	StaticRates map[string]string `yaml:"static_rates,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults for a single-host deployment.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: "./data/clawback.db"},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RateLimit:      RateLimitConfig{PerSecond: 2, Burst: 5},
			PruneInterval:  time.Minute,
		},
		Confirm: ConfirmConfig{TTL: 5 * time.Minute},
		Trips:   TripsConfig{DefaultBaseCurrency: money.ILS},
		FX: FXConfig{
			Provider: FXFrankfurter,
			BaseURL:  "https://api.frankfurter.app",
			Timeout:  5 * time.Second,
			CacheTTL: time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path on top of Default, then applies .env and environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.Path = getEnvDefault("CLAWBACK_DB_PATH", c.Storage.Path)
	c.Server.Addr = getEnvDefault("CLAWBACK_ADDR", c.Server.Addr)
	c.Auth.JWTSecret = getEnvDefault("CLAWBACK_JWT_SECRET", c.Auth.JWTSecret)
	c.FX.Provider = getEnvDefault("CLAWBACK_FX_PROVIDER", c.FX.Provider)
	c.Log.Level = getEnvDefault("LOG_LEVEL", c.Log.Level)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Confirm.TTL <= 0 {
		return fmt.Errorf("confirm.ttl must be positive, got %s", c.Confirm.TTL)
	}
	if !c.Trips.DefaultBaseCurrency.Valid() {
		return fmt.Errorf("trips.default_base_currency: unsupported currency %q", c.Trips.DefaultBaseCurrency)
	}
	switch strings.ToLower(c.FX.Provider) {
	case FXIdentity, FXStatic, FXFrankfurter:
		c.FX.Provider = strings.ToLower(c.FX.Provider)
	default:
		return fmt.Errorf("fx.provider: unknown provider %q", c.FX.Provider)
	}
	if c.FX.Provider == FXStatic && len(c.FX.StaticRates) == 0 {
		return errors.New("fx.static_rates is required for the static provider")
	}
	if c.Server.PruneInterval <= 0 {
		return fmt.Errorf("server.prune_interval must be positive, got %s", c.Server.PruneInterval)
	}
	if c.Server.RateLimit.PerSecond < 0 {
		return fmt.Errorf("server.rate_limit.per_second must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
