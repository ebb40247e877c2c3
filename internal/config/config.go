// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package config loads Cinegraph configuration with Koanf v2 from three
// layered sources, later layers overriding earlier ones:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables with the CINEGRAPH_ prefix
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Data     DataConfig     `koanf:"data"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - CINEGRAPH_SERVER_HOST: Listen address (default: 0.0.0.0)
//   - CINEGRAPH_SERVER_PORT: Listen port (default: 3857)
//   - CINEGRAPH_SERVER_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DataConfig holds catalog persistence and seeding settings.
//
// Environment Variables:
//   - CINEGRAPH_DATA_DIR: BadgerDB snapshot directory; empty disables
//     persistence and the catalog lives in memory only
//   - CINEGRAPH_DATA_SEED_DIR: Directory with users.dat/items.dat/ratings.dat
//     to ingest when no snapshot exists
//   - CINEGRAPH_DATA_AUTOSAVE_INTERVAL: Periodic snapshot interval; 0
//     snapshots on shutdown only
type DataConfig struct {
	Dir              string        `koanf:"dir"`
	SeedDir          string        `koanf:"seed_dir"`
	DefaultPassword  string        `koanf:"default_password"`
	AutosaveInterval time.Duration `koanf:"autosave_interval"`
}

// APIConfig holds response shaping limits.
type APIConfig struct {
	// DefaultTopN is the ranking size when the client omits ?n=.
	DefaultTopN int `koanf:"default_top_n"`
	// MaxTopN caps the ?n= query parameter.
	MaxTopN int `koanf:"max_top_n"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// AuthMode selects how mutating and recommendation endpoints are protected:
//   - "jwt":  clients log in with catalog credentials and present a bearer
//     token (requires JWTSecret)
//   - "none": all endpoints are open (development only)
type SecurityConfig struct {
	AuthMode        string        `koanf:"auth_mode"`
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenTTL        time.Duration `koanf:"token_ttl"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for malformed or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.API.DefaultTopN < 1 {
		return fmt.Errorf("api.default_top_n must be at least 1, got %d", c.API.DefaultTopN)
	}
	if c.API.MaxTopN < c.API.DefaultTopN {
		return fmt.Errorf("api.max_top_n (%d) must not be below api.default_top_n (%d)",
			c.API.MaxTopN, c.API.DefaultTopN)
	}

	switch c.Security.AuthMode {
	case "none":
	case "jwt":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required when security.auth_mode is %q", "jwt")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d",
				len(c.Security.JWTSecret))
		}
		if c.Security.TokenTTL <= 0 {
			return fmt.Errorf("security.token_ttl must be positive, got %s", c.Security.TokenTTL)
		}
	default:
		return fmt.Errorf("security.auth_mode must be %q or %q, got %q", "jwt", "none", c.Security.AuthMode)
	}

	if c.Security.RateLimitReqs < 0 {
		return fmt.Errorf("security.rate_limit_reqs must not be negative, got %d", c.Security.RateLimitReqs)
	}

	if c.Data.AutosaveInterval < 0 {
		return fmt.Errorf("data.autosave_interval must not be negative, got %s", c.Data.AutosaveInterval)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", "json", "console", c.Logging.Format)
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
