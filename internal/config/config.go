// Package config defines the service configuration, loaded from the
// environment with optional .env support in development.
package config

import (
	"fmt"
	"time"

	"github.com/kunlesxo/cyriox-storefront/pkg/config"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"cyriox-storefront"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	UpstreamBaseURL        string        `env:"UPSTREAM_BASE_URL" envDefault:"http://localhost:8000"`
	UpstreamTimeout        time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	UpstreamBreakerEnabled bool          `env:"UPSTREAM_BREAKER_ENABLED" envDefault:"true"`

	// memory is fine for a single instance; redis survives restarts and
	// scales horizontally.
	CredentialBackend string `env:"CREDENTIAL_BACKEND" envDefault:"memory"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SessionCookieName   string `env:"SESSION_COOKIE_NAME" envDefault:"cyriox_sid"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CredentialBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CREDENTIAL_BACKEND %q: must be memory or redis", c.CredentialBackend)
	}
	if c.Environment == "production" {
		if c.CredentialBackend == "memory" {
			return fmt.Errorf("CREDENTIAL_BACKEND must be redis in production")
		}
		if !c.SessionCookieSecure {
			return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
		}
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
