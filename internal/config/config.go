package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PaccoFacile
	PaccoFacileAPIKey        string        `envconfig:"PACCOFACILE_API_KEY"`
	PaccoFacileAPIToken      string        `envconfig:"PACCOFACILE_API_TOKEN"`
	PaccoFacileAccountNumber string        `envconfig:"PACCOFACILE_ACCOUNT_NUMBER"`
	PaccoFacileEnvironment   string        `envconfig:"PACCOFACILE_ENVIRONMENT" default:"live"`
	PaccoFacileBaseURL       string        `envconfig:"PACCOFACILE_BASE_URL" default:"https://paccofacile.tecnosogima.cloud"`
	PaccoFacileBackendURL    string        `envconfig:"PACCOFACILE_BACKEND_URL"`
	PaccoFacileUseMock       bool          `envconfig:"PACCOFACILE_USE_MOCK" default:"false"`
	PaccoFacileMockLatency   time.Duration `envconfig:"PACCOFACILE_MOCK_LATENCY" default:"0"`
	PaccoFacileTimeout       time.Duration `envconfig:"PACCOFACILE_TIMEOUT" default:"0"`

	// Store
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"paccofacile-fulfillment"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations envconfig cannot express.
func (c *Config) Validate() error {
	switch c.PaccoFacileEnvironment {
	case "live", "sandbox":
	default:
		return fmt.Errorf("invalid PACCOFACILE_ENVIRONMENT %q: must be live or sandbox", c.PaccoFacileEnvironment)
	}

	if !c.PaccoFacileUseMock {
		if c.PaccoFacileAPIKey == "" || c.PaccoFacileAPIToken == "" || c.PaccoFacileAccountNumber == "" {
			return fmt.Errorf("PACCOFACILE_API_KEY, PACCOFACILE_API_TOKEN and PACCOFACILE_ACCOUNT_NUMBER are required unless PACCOFACILE_USE_MOCK is set")
		}
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}

	if c.PaccoFacileTimeout < 0 {
		return fmt.Errorf("PACCOFACILE_TIMEOUT must not be negative")
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("paccofacile.environment", c.PaccoFacileEnvironment),
		attribute.Bool("paccofacile.mock", c.PaccoFacileUseMock),
		attribute.String("store.driver", c.StoreDriver),
	}
}
