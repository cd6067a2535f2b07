package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// API client configuration
	API APIConfig

	// Session persistence configuration
	Session SessionConfig

	// Logging configuration
	Logging LoggingConfig

	// Development backend configuration
	MockAPI MockAPIConfig
}

// APIConfig holds settings for the outbound gateway client
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables throttling
	RateBurst  int
	CSRFCookie string
	CSRFHeader string
}

// SessionConfig holds settings for the persisted session
type SessionConfig struct {
	StoreURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// MockAPIConfig holds settings for the in-memory development backend
type MockAPIConfig struct {
	Addr          string
	JWTSecret     string
	AllowedOrigin string
	Seed          bool
}

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 10 * time.Second
)

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := cfg.loadAPI(); err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}

	if err := cfg.loadSession(); err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}

	cfg.loadLogging()

	if err := cfg.loadMockAPI(); err != nil {
		return nil, fmt.Errorf("load mockapi config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadAPI() error {
	c.API.BaseURL = strings.TrimRight(getEnvOrDefault("ALBUMREVIEWS_API_URL", DefaultBaseURL), "/")
	c.API.CSRFCookie = getEnvOrDefault("CSRF_COOKIE_NAME", "csrftoken")
	c.API.CSRFHeader = getEnvOrDefault("CSRF_HEADER_NAME", "X-CSRFToken")

	timeout, err := time.ParseDuration(getEnvOrDefault("API_TIMEOUT", DefaultTimeout.String()))
	if err != nil {
		return fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	c.API.Timeout = timeout

	rateLimit, err := strconv.ParseFloat(getEnvOrDefault("API_RATE_LIMIT", "0"), 64)
	if err != nil {
		return fmt.Errorf("invalid API_RATE_LIMIT: %w", err)
	}
	c.API.RateLimit = rateLimit

	burst, err := strconv.Atoi(getEnvOrDefault("API_RATE_BURST", "1"))
	if err != nil {
		return fmt.Errorf("invalid API_RATE_BURST: %w", err)
	}
	c.API.RateBurst = burst

	return nil
}

func (c *Config) loadSession() error {
	if storeURL := os.Getenv("SESSION_STORE"); storeURL != "" {
		c.Session.StoreURL = storeURL
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("resolve user config dir: %w", err)
	}
	c.Session.StoreURL = "file://" + filepath.ToSlash(filepath.Join(dir, "albumreviews", "session.json"))
	return nil
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "text")
}

func (c *Config) loadMockAPI() error {
	c.MockAPI.Addr = getEnvOrDefault("MOCKAPI_ADDR", ":8000")
	c.MockAPI.JWTSecret = getEnvOrDefault("MOCKAPI_JWT_SECRET", "local-development-secret")
	c.MockAPI.AllowedOrigin = getEnvOrDefault("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	seed, err := strconv.ParseBool(getEnvOrDefault("MOCKAPI_SEED", "true"))
	if err != nil {
		return fmt.Errorf("invalid MOCKAPI_SEED: %w", err)
	}
	c.MockAPI.Seed = seed
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "ALBUMREVIEWS_API_URL must be an absolute http(s) URL")
	}

	if c.API.Timeout <= 0 {
		errors = append(errors, "API_TIMEOUT must be positive")
	}

	if c.API.RateLimit < 0 {
		errors = append(errors, "API_RATE_LIMIT must not be negative")
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		errors = append(errors, "API_RATE_BURST must be at least 1 when rate limiting is enabled")
	}

	if c.API.CSRFCookie == "" || c.API.CSRFHeader == "" {
		errors = append(errors, "CSRF_COOKIE_NAME and CSRF_HEADER_NAME must not be empty")
	}

	if c.Session.StoreURL == "" {
		errors = append(errors, "SESSION_STORE is required")
	}

	if len(c.MockAPI.JWTSecret) < 16 {
		errors = append(errors, "MOCKAPI_JWT_SECRET must be at least 16 characters")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
