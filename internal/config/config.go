// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is everything the server binaries need from the environment.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DatabaseDSN selects PostgreSQL as the system of record. Empty means
	// an in-memory store seeded with the demo dataset.
	DatabaseDSN string
	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string
	// RateLimitRPS caps requests per second per client address.
	RateLimitRPS float64
	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64
	// CORSOrigin is the allowed origin for browser clients.
	CORSOrigin string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:         envOr("CARECONNECT_ADDR", ":8080"),
		DatabaseDSN:  os.Getenv("CARECONNECT_PG_DSN"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		RateLimitRPS: envFloatOr("CARECONNECT_RATE_LIMIT_RPS", 50),
		MaxBodyBytes: envInt64Or("CARECONNECT_MAX_BODY_BYTES", 1<<20),
		CORSOrigin:   envOr("CARECONNECT_CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envInt64Or(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
