package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALBUMREVIEWS_API_URL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("SESSION_STORE", "memory://")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.API.CSRFCookie != "csrftoken" || cfg.API.CSRFHeader != "X-CSRFToken" {
		t.Errorf("CSRF = %q/%q, want csrftoken/X-CSRFToken", cfg.API.CSRFCookie, cfg.API.CSRFHeader)
	}
	if cfg.Session.StoreURL != "memory://" {
		t.Errorf("StoreURL = %q, want memory://", cfg.Session.StoreURL)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALBUMREVIEWS_API_URL", "https://reviews.example.com/api/")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("API_RATE_LIMIT", "5")
	t.Setenv("API_RATE_BURST", "2")
	t.Setenv("SESSION_STORE", "sqlite:///tmp/session.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://reviews.example.com/api" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.API.Timeout)
	}
	if cfg.API.RateLimit != 5 || cfg.API.RateBurst != 2 {
		t.Errorf("rate = %v/%d, want 5/2", cfg.API.RateLimit, cfg.API.RateBurst)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("SESSION_STORE", "memory://")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid API_TIMEOUT")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:   "not a url",
			Timeout:   0,
			RateLimit: -1,
		},
		Logging: LoggingConfig{Level: "verbose", Format: "xml"},
		MockAPI: MockAPIConfig{JWTSecret: "short"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}

	for _, want := range []string{
		"ALBUMREVIEWS_API_URL",
		"API_TIMEOUT",
		"API_RATE_LIMIT",
		"CSRF_COOKIE_NAME",
		"SESSION_STORE",
		"MOCKAPI_JWT_SECRET",
		"LOG_LEVEL",
		"LOG_FORMAT",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %s: %v", want, err)
		}
	}
}
