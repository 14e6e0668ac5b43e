package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(config.EnvAPIBaseURL, "https://api.snapmob.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.AppEnvDev, cfg.App.Env)
	assert.True(t, cfg.App.IsDev())
	assert.False(t, cfg.App.IsProd())
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "https://api.snapmob.example", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "snapmob-state.db", cfg.State.DBPath)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv(config.EnvAPIBaseURL, "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsNonHTTPBaseURL(t *testing.T) {
	t.Setenv(config.EnvAPIBaseURL, "ftp://api.snapmob.example")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(config.EnvAPIBaseURL, "http://localhost:5000")
	t.Setenv(config.EnvAppEnv, "production")
	t.Setenv("SNAPMOB_API_TIMEOUT", "3s")
	t.Setenv(config.EnvStateDB, "/tmp/state.db")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProd())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/tmp/state.db", cfg.State.DBPath)
}
