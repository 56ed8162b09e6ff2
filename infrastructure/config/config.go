// Package config loads engine configuration from the environment and the
// optional rules file, and watches the rules file for changes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AnalysisConfig tunes the continuity run and the scheduled batches.
type AnalysisConfig struct {
	// BatchSize is how many users one scheduled batch processes concurrently.
	BatchSize int
	// BatchDelayMs separates consecutive batches.
	BatchDelayMs int
	// RulesFile optionally overrides the compiled-in keyword rules.
	RulesFile string
	// WatchRules reloads the rules file on change.
	WatchRules bool
}

// CacheConfig bounds the in-memory analytics cache.
type CacheConfig struct {
	MaxEntries int
	MaxBytes   int64
	// TTLHours is the relationship payload freshness window.
	TTLHours int
}

// Config holds all engine configuration.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string
	InsightAPIURL string
	InsightAPIKey string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics   bool
	EnableTracing   bool
	EnableCORS      bool
	TracingEndpoint string

	Analysis AnalysisConfig
	Cache    CacheConfig
}

// LoadConfig reads configuration from environment variables, falling back to
// development defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "lorekeeper"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "lorekeeper-events"),
		InsightAPIURL: getEnv("INSIGHT_API_URL", ""),
		InsightAPIKey: getEnv("INSIGHT_API_KEY", ""),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		EnableMetrics:   getEnvBool("ENABLE_METRICS", true),
		EnableTracing:   getEnvBool("ENABLE_TRACING", false),
		EnableCORS:      getEnvBool("ENABLE_CORS", true),
		TracingEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),

		Analysis: AnalysisConfig{
			BatchSize:    getEnvInt("ANALYSIS_BATCH_SIZE", 4),
			BatchDelayMs: getEnvInt("ANALYSIS_BATCH_DELAY_MS", 1500),
			RulesFile:    getEnv("ANALYSIS_RULES_FILE", ""),
			WatchRules:   getEnvBool("ANALYSIS_WATCH_RULES", false),
		},
		Cache: CacheConfig{
			MaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1000),
			MaxBytes:   int64(getEnvInt("CACHE_MAX_BYTES", 64<<20)),
			TTLHours:   getEnvInt("CACHE_TTL_HOURS", 6),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks the loaded configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.Analysis.BatchSize < 1 {
		return fmt.Errorf("ANALYSIS_BATCH_SIZE must be at least 1")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1")
	}
	if c.Environment == "production" {
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required in production")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required in production")
		}
	}
	return nil
}

// BatchDelay returns the inter-batch delay as a duration.
func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Analysis.BatchDelayMs) * time.Millisecond
}

// CacheTTL returns the analytics cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
