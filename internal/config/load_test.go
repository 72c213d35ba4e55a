package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TALOS_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TALOS_AUTH_ACCESS_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("TALOS_TITAN_BASE_URL", "https://shop.example.com")
	t.Setenv("TALOS_TITAN_PAYMENT_BASE_URL", "https://pay.example.com")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TALOS_SERVER_PORT", "9191")
	t.Setenv("TALOS_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TALOS_BYPASS_DOORS", "5")
	t.Setenv("TALOS_NOTIFY_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "https://shop.example.com", cfg.Titan.BaseURL)
	assert.Equal(t, 5, cfg.Bypass.Doors)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notify.WebhookURL)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, 30, cfg.Titan.TimeoutSeconds)
	assert.Equal(t, float64(5000), cfg.Checkout.FreeShippingThreshold)
	assert.Equal(t, 2, cfg.Bypass.Doors)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		mutate func(t *testing.T)
	}{
		{
			name: "jwt secret too short",
			mutate: func(t *testing.T) {
				t.Setenv("TALOS_AUTH_JWT_SECRET", "short")
			},
		},
		{
			name: "invalid log level",
			mutate: func(t *testing.T) {
				t.Setenv("TALOS_SERVER_LOG_LEVEL", "loud")
			},
		},
		{
			name: "base url not a url",
			mutate: func(t *testing.T) {
				t.Setenv("TALOS_TITAN_BASE_URL", "not a url")
			},
		},
		{
			name: "zero doors",
			mutate: func(t *testing.T) {
				t.Setenv("TALOS_BYPASS_DOORS", "0")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			tc.mutate(t)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}
