package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/paccofacile/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PACCOFACILE_USE_MOCK", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Port)
	assert.Equal(t, "live", cfg.PaccoFacileEnvironment)
	assert.Equal(t, "https://paccofacile.tecnosogima.cloud", cfg.PaccoFacileBaseURL)
	assert.Equal(t, time.Duration(0), cfg.PaccoFacileTimeout)
	assert.Equal(t, time.Duration(0), cfg.PaccoFacileMockLatency)
	assert.Equal(t, config.StoreMemory, cfg.StoreDriver)
}

func TestLoad_Credentials(t *testing.T) {
	t.Setenv("PACCOFACILE_API_KEY", "key")
	t.Setenv("PACCOFACILE_API_TOKEN", "token")
	t.Setenv("PACCOFACILE_ACCOUNT_NUMBER", "123")
	t.Setenv("PACCOFACILE_ENVIRONMENT", "sandbox")
	t.Setenv("PACCOFACILE_TIMEOUT", "15s")
	t.Setenv("PACCOFACILE_MOCK_LATENCY", "250ms")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "sandbox", cfg.PaccoFacileEnvironment)
	assert.Equal(t, 15*time.Second, cfg.PaccoFacileTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.PaccoFacileMockLatency)
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		PaccoFacileAPIKey:        "key",
		PaccoFacileAPIToken:      "token",
		PaccoFacileAccountNumber: "123",
		PaccoFacileEnvironment:   "live",
		StoreDriver:              config.StoreMemory,
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"bad environment", func(c *config.Config) { c.PaccoFacileEnvironment = "prod" }, "PACCOFACILE_ENVIRONMENT"},
		{"missing credentials", func(c *config.Config) { c.PaccoFacileAPIToken = "" }, "PACCOFACILE_API_TOKEN"},
		{"mock needs no credentials", func(c *config.Config) { c.PaccoFacileAPIKey = ""; c.PaccoFacileUseMock = true }, ""},
		{"postgres without url", func(c *config.Config) { c.StoreDriver = config.StorePostgres }, "DATABASE_URL"},
		{"unknown store", func(c *config.Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"negative timeout", func(c *config.Config) { c.PaccoFacileTimeout = -time.Second }, "PACCOFACILE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAttributes(t *testing.T) {
	cfg := config.Config{ServiceName: "svc", Version: "1.2.3", PaccoFacileEnvironment: "sandbox", StoreDriver: "redis"}

	attrs := cfg.Attributes()

	require.Len(t, attrs, 5)
	assert.Equal(t, "svc", attrs[0].Value.AsString())
	assert.Equal(t, "redis", attrs[4].Value.AsString())
}
