package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/earn")
	t.Setenv("GATEWAY_SERVICE_TOKEN", "secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5200, cfg.Port)
	assert.Equal(t, ":5200", cfg.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.EmailPollInterval)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.R2Enabled())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_SERVICE_TOKEN", "secret")

	_, err := Load()
	require.Error(t, err)
}
