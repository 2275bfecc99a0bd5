package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.UseLocalStore())
	assert.Equal(t, "https://api.mapbox.com", cfg.Mapbox.BaseURL)
	assert.Equal(t, "driving-traffic", cfg.Mapbox.Profile)
	assert.Equal(t, 10*time.Second, cfg.Mapbox.Timeout)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAPBOX_ACCESS_TOKEN", "pk.test")
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_URL", "http://routes.internal:8000")
	t.Setenv("ROUTER_TIMEOUT", "3s")
	t.Setenv("LOG_STDOUT", "true")
	t.Setenv("DB_NAME", "gis")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.org, ,http://localhost:3000")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.UseLocalStore())
	assert.Equal(t, 3*time.Second, cfg.Mapbox.Timeout)
	assert.True(t, cfg.Log.Stdout)
	assert.Contains(t, cfg.DB.DSN(), "dbname=gis")
	assert.Equal(t, []string{"https://admin.example.org", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token": {"MAPBOX_ACCESS_TOKEN": ""},
		"bad port":      {"MAPBOX_ACCESS_TOKEN": "pk", "PORT": "http"},
		"bad backend":   {"MAPBOX_ACCESS_TOKEN": "pk", "BACKEND_URL": "not a url"},
		"bad timeout":   {"MAPBOX_ACCESS_TOKEN": "pk", "ROUTER_TIMEOUT": "soon"},
		"bad level":     {"MAPBOX_ACCESS_TOKEN": "pk", "LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
