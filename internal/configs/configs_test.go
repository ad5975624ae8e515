package configs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"STORE_PATH": "/tmp/schoolhub/session.json",
	}})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, StoreFile, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Zero(t, cfg.RateLimit)
}

func TestParse_ZeroTimeoutFallsBackToDefault(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"API_TIMEOUT_MS": "0",
		"STORE_BACKEND":  "memory",
	}})
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeoutMS, cfg.TimeoutMS)
}

func TestParse_TrimsBaseURL(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"API_BASE_URL":   "https://school.example.com/api/ ",
		"API_TIMEOUT_MS": "2500",
		"STORE_BACKEND":  "Memory",
	}})
	require.NoError(t, err)

	assert.Equal(t, "https://school.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
}

func TestParse_DefaultStorePathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".schoolhub", "session.json"), cfg.StorePath)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"redis without url": {"STORE_BACKEND": "redis"},
		"unknown backend":   {"STORE_BACKEND": "etcd"},
		"negative timeout":  {"API_TIMEOUT_MS": "-1", "STORE_BACKEND": "memory"},
		"bad timeout":       {"API_TIMEOUT_MS": "soon", "STORE_BACKEND": "memory"},
		"empty base url":    {"API_BASE_URL": " ", "STORE_BACKEND": "memory"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: vars})
			assert.Error(t, err)
		})
	}
}
