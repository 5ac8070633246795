package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "firestore", cfg.DocumentStore)
	assert.Equal(t, 2*time.Second, cfg.CheckoutDelay)
	assert.Equal(t, 24*time.Hour, cfg.ReminderLead)
	assert.Equal(t, "America/Sao_Paulo", cfg.ClinicTimezone)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.GeminiImageModel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DOCUMENT_STORE", "memory")
	t.Setenv("CHECKOUT_DELAY", "150ms")
	t.Setenv("MAX_REQUESTS_PER_MIN", "42")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "memory", cfg.DocumentStore)
	assert.Equal(t, 150*time.Millisecond, cfg.CheckoutDelay)
	assert.Equal(t, 42, cfg.MaxRequestsPerMin)
}

func TestClinicLocationFallback(t *testing.T) {
	prev := AppConfig
	t.Cleanup(func() { AppConfig = prev })

	AppConfig.ClinicTimezone = "Not/AZone"
	assert.Equal(t, time.UTC, ClinicLocation())

	AppConfig.ClinicTimezone = "America/Sao_Paulo"
	assert.Equal(t, "America/Sao_Paulo", ClinicLocation().String())
}
