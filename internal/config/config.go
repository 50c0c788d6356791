// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database (optional, in-memory intervention log if not set)
	DatabaseURL string

	// Model training. The cohort is synthetic, so the seed fully
	// determines the trained model.
	CohortSize int
	CohortSeed int64

	// Rate limiting
	RateLimitRPM int

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; empty disables tracing
}

const (
	DefaultPort         = "8080"
	DefaultEnv          = "development"
	DefaultLogLevel     = "info"
	DefaultCohortSize   = 2000
	DefaultCohortSeed   = 42
	DefaultRateLimitRPM = 120
)

// Load reads configuration from environment variables.
// It loads a .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", DefaultPort),
		Env:          getEnv("ENV", DefaultEnv),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		CohortSize:   int(getEnvInt64("COHORT_SIZE", DefaultCohortSize)),
		CohortSeed:   getEnvInt64("COHORT_SEED", DefaultCohortSeed),
		RateLimitRPM: int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration can produce a trainable model
func (c *Config) Validate() error {
	if c.CohortSize < 2 {
		return fmt.Errorf("COHORT_SIZE must be at least 2, got %d", c.CohortSize)
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive, got %d", c.RateLimitRPM)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
