// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/abr13/demo-crud-review/pkg/logging"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort            = "8080"
	DefaultSearchCacheTTL  = 5 * time.Minute
	DefaultPlaceCacheTTL   = time.Hour
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultRateLimitMax    = 100
)

// Config holds the full gateway configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// RedisURL is the address of the Redis cache (REQUIRED), host:port.
	RedisURL string

	// GooglePlacesAPIKey authenticates against the places provider (REQUIRED).
	GooglePlacesAPIKey string

	// SearchCacheTTL is the lifetime of cached search responses.
	SearchCacheTTL time.Duration

	// PlaceCacheTTL is the lifetime of cached place details and deeplinks.
	PlaceCacheTTL time.Duration

	// RateLimitWindow is the fixed rate limit window per client.
	RateLimitWindow time.Duration

	// RateLimitMax is the number of requests allowed per client per window.
	RateLimitMax int

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel logging.LogLevel

	// Environment is the deployment environment name. "development"
	// enables pretty console logging.
	Environment string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", DefaultPort),
		RedisURL:           os.Getenv("REDIS_URL"),
		GooglePlacesAPIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		LogLevel:           logging.LogLevel(getEnv("LOG_LEVEL", string(logging.LevelInfo))),
		Environment:        getEnv("ENVIRONMENT", "development"),
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.GooglePlacesAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_PLACES_API_KEY is required")
	}

	var err error
	if cfg.SearchCacheTTL, err = getDuration("SEARCH_CACHE_TTL", DefaultSearchCacheTTL); err != nil {
		return nil, err
	}
	if cfg.PlaceCacheTTL, err = getDuration("PLACE_CACHE_TTL", DefaultPlaceCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", DefaultRateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getInt("RATE_LIMIT_MAX", DefaultRateLimitMax); err != nil {
		return nil, err
	}

	if cfg.SearchCacheTTL <= 0 {
		return nil, fmt.Errorf("SEARCH_CACHE_TTL must be positive")
	}
	if cfg.PlaceCacheTTL <= 0 {
		return nil, fmt.Errorf("PLACE_CACHE_TTL must be positive")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the gateway runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads a duration variable. Bare integers are seconds;
// Go duration strings ("15m", "1h") are also accepted.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
