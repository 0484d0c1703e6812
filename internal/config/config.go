// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = 8080
	defaultDBPath        = "./data/divvy.db"
	defaultTokenDuration = 24 * time.Hour

	// devJWTSecret is only acceptable for local development; Load refuses
	// to start without JWT_SECRET unless DIVVY_ENV=dev.
	devJWTSecret = "divvy-dev-secret-do-not-use-in-prod"
)

// Config holds everything the server needs to start.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenDuration time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where values are unset.
func Load() (Config, error) {
	cfg := Config{
		Port:          defaultPort,
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		TokenDuration: defaultTokenDuration,
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := strings.TrimSpace(os.Getenv("TOKEN_DURATION")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_DURATION %q", v)
		}
		cfg.TokenDuration = d
	}

	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if cfg.JWTSecret == "" {
		if strings.ToLower(os.Getenv("DIVVY_ENV")) != "dev" {
			return Config{}, fmt.Errorf("JWT_SECRET is required (set DIVVY_ENV=dev to use the insecure dev secret)")
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
