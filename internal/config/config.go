package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	APIBaseURL        string
	InactivityTimeout time.Duration
	StubHTTPAddr      string
	StubCatalogPath   string
	TokenTTL          time.Duration
	ShutdownTimeout   time.Duration
	LogEnv            string
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		APIBaseURL:        envOrDefault("API_BASE_URL", "http://localhost:8080"),
		InactivityTimeout: envDuration("INACTIVITY_TIMEOUT_SECONDS", 15*time.Minute),
		StubHTTPAddr:      envOrDefault("STUB_HTTP_ADDR", ":8080"),
		StubCatalogPath:   envOrDefault("STUB_CATALOG_PATH", ""),
		TokenTTL:          envDuration("TOKEN_TTL_SECONDS", 48*time.Hour),
		ShutdownTimeout:   envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		LogEnv:            envOrDefault("LOG_ENV", "development"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}
