// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	devTokenSecret   = "dev-admin-secret-change-in-production"
	devSessionSecret = "dev-session-secret-change-in-production"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Database
	DatabaseURL string

	// Redis (stats caching)
	RedisURL      string
	StatsCacheTTL time.Duration

	// Security
	AdminTokenSecret string
	SessionSecret    string
	AllowedOrigins   []string
	RateLimitRPM     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379"),
		StatsCacheTTL: time.Duration(getEnvInt("STATS_CACHE_TTL_SECONDS", 30)) * time.Second,

		AdminTokenSecret: getEnv("ADMIN_TOKEN_SECRET", devTokenSecret),
		SessionSecret:    getEnv("SESSION_SECRET", devSessionSecret),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", 60),
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		if cfg.AdminTokenSecret == devTokenSecret {
			return nil, fmt.Errorf("ADMIN_TOKEN_SECRET must be set in production")
		}
		if cfg.SessionSecret == devSessionSecret {
			return nil, fmt.Errorf("SESSION_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// Production reports whether the server runs with production hardening.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
