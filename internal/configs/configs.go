/*
Package configs is responsible for loading and parsing the application's configuration settings.

It loads an optional .env file, then maps environment variables onto AppConfig:
the API base URL and request timeout, client-side request throttling, the
durable session store backend, and list pagination defaults.
*/
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// DefaultTimeoutMS is the request timeout used when API_TIMEOUT_MS is unset or zero.
	DefaultTimeoutMS = 10000

	// Store backends accepted by STORE_BACKEND.
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// AppConfig contains all configuration parameters required for the client to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// API Settings
	APIBaseURL string  `env:"API_BASE_URL" envDefault:"http://localhost:8000/api"`
	TimeoutMS  int     `env:"API_TIMEOUT_MS" envDefault:"10000"`
	RateLimit  float64 `env:"API_RATE_LIMIT" envDefault:"0"`
	RateBurst  int     `env:"API_RATE_BURST" envDefault:"5"`

	// Session Store Settings
	StoreBackend   string `env:"STORE_BACKEND" envDefault:"file"`
	StorePath      string `env:"STORE_PATH"`
	RedisURL       string `env:"REDIS_URL"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"schoolhub:"`

	// Pagination Settings
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`
}

// LoadConfig reads the optional .env file in the working directory and parses
// the application configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return parse(env.Options{})
}

func parse(opts env.Options) (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *AppConfig) normalize() error {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}

	if cfg.TimeoutMS < 0 {
		return fmt.Errorf("API_TIMEOUT_MS must not be negative, got %d", cfg.TimeoutMS)
	}
	if cfg.TimeoutMS == 0 {
		cfg.TimeoutMS = DefaultTimeoutMS
	}

	if cfg.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}

	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case StoreFile:
		if cfg.StorePath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("STORE_PATH is unset and the home directory is unknown: %w", err)
			}
			cfg.StorePath = filepath.Join(home, ".schoolhub", "session.json")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is required when STORE_BACKEND is %q", StoreRedis)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (want %s, %s or %s)", cfg.StoreBackend, StoreFile, StoreRedis, StoreMemory)
	}

	return nil
}

// Timeout returns the request timeout as a duration.
func (cfg *AppConfig) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

// IsDevelopment reports whether the client runs in development mode.
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
