// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, cookies) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the CRM API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"25"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis), used for the purge lock
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// SessionPurgeInterval is how often expired session rows are deleted.
	SessionPurgeInterval time.Duration `env:"SESSION_PURGE_INTERVAL" envDefault:"24h"`

	// Cross-Origin Resource Sharing: origins ending in this suffix are trusted outside development.
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX"`

	// CookieSecure overrides the Secure flag on session cookies ("true"/"false").
	// Empty means "production only".
	CookieSecure string `env:"COOKIE_SECURE"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.CookieSecure != "" {
		if _, err := strconv.ParseBool(cfg.CookieSecure); err != nil {
			return nil, fmt.Errorf("config: COOKIE_SECURE must be a boolean, got %q", cfg.CookieSecure)
		}
	}

	if cfg.DatabaseMaxConns < 1 {
		return nil, fmt.Errorf("config: DATABASE_MAX_CONNS must be at least 1, got %d", cfg.DatabaseMaxConns)
	}

	if cfg.SessionPurgeInterval <= 0 {
		return nil, fmt.Errorf("config: SESSION_PURGE_INTERVAL must be positive, got %s", cfg.SessionPurgeInterval)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SecureCookies reports whether session cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	if secure, err := strconv.ParseBool(c.CookieSecure); err == nil {
		return secure
	}
	return c.IsProduction()
}

// OriginSuffix returns the trusted CORS origin suffix.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
