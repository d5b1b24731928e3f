// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// RedisURL selects the shared consensus cache. Empty keeps an
	// in-process cache per replica.
	RedisURL string `env:"REDIS_URL"`

	// ConsensusCacheTTL bounds how long a memoised label may live even if
	// an invalidation is lost.
	ConsensusCacheTTL time.Duration `env:"CONSENSUS_CACHE_TTL" envDefault:"5m"`

	// FeedSourceTimeout bounds each feed source read; a timeout counts as a
	// source failure.
	FeedSourceTimeout time.Duration `env:"FEED_SOURCE_TIMEOUT" envDefault:"2s"`

	// FeedLookback restricts feeds to recent occurrences. Zero means unbounded.
	FeedLookback time.Duration `env:"FEED_LOOKBACK" envDefault:"0s"`

	// FeedDefaultRadiusMeters is used by the nearby and explore sources when
	// the request names a location but no radius.
	FeedDefaultRadiusMeters float64 `env:"FEED_DEFAULT_RADIUS_M" envDefault:"25000"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"65536"`

	// OTelEndpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error naming any required variable that is not set or any value
// that fails to parse or validate.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.ConsensusCacheTTL <= 0:
		return fmt.Errorf("CONSENSUS_CACHE_TTL must be positive")
	case c.FeedSourceTimeout < 0:
		return fmt.Errorf("FEED_SOURCE_TIMEOUT must not be negative")
	case c.FeedLookback < 0:
		return fmt.Errorf("FEED_LOOKBACK must not be negative")
	case c.FeedDefaultRadiusMeters <= 0:
		return fmt.Errorf("FEED_DEFAULT_RADIUS_M must be positive")
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// trimAll trims every entry, ignoring empty ones.
func trimAll(in []string) []string {
	var out []string
	for _, part := range in {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
