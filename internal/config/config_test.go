// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv strips every CINEGRAPH_ variable and CONFIG_PATH so tests see
// only what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name := strings.SplitN(kv, "=", 2)[0]
		if strings.HasPrefix(name, envPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3857 {
		t.Errorf("Server.Port = %d, want 3857", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:3857" {
		t.Errorf("Server.Addr() = %s", cfg.Server.Addr())
	}
	if cfg.API.DefaultTopN != 10 || cfg.API.MaxTopN != 100 {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Security.AuthMode != "none" {
		t.Errorf("Security.AuthMode = %q, want none", cfg.Security.AuthMode)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CINEGRAPH_SERVER_PORT", "9000")
	t.Setenv("CINEGRAPH_LOGGING_LEVEL", "debug")
	t.Setenv("CINEGRAPH_API_DEFAULT_TOP_N", "5")
	t.Setenv("CINEGRAPH_SECURITY_AUTH_MODE", "jwt")
	t.Setenv("CINEGRAPH_SECURITY_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("CINEGRAPH_SECURITY_TOKEN_TTL", "2h")
	t.Setenv("CINEGRAPH_SECURITY_CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.API.DefaultTopN != 5 {
		t.Errorf("API.DefaultTopN = %d, want 5", cfg.API.DefaultTopN)
	}
	if cfg.Security.TokenTTL != 2*time.Hour {
		t.Errorf("Security.TokenTTL = %s, want 2h", cfg.Security.TokenTTL)
	}
	want := []string{"http://a.example", "http://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.Security.CORSOrigins[i], want[i])
		}
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8500
data:
  seed_dir: /data/seed
api:
  default_top_n: 25
  max_top_n: 50
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8500 {
		t.Errorf("Server.Port = %d, want 8500", cfg.Server.Port)
	}
	if cfg.Data.SeedDir != "/data/seed" {
		t.Errorf("Data.SeedDir = %q", cfg.Data.SeedDir)
	}
	if cfg.API.DefaultTopN != 25 || cfg.API.MaxTopN != 50 {
		t.Errorf("API = %+v", cfg.API)
	}

	// File values are not final: env still overrides them.
	t.Setenv("CINEGRAPH_SERVER_PORT", "8600")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() with env override error = %v", err)
	}
	if cfg.Server.Port != 8600 {
		t.Errorf("Server.Port = %d, want env override 8600", cfg.Server.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"timeout zero", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"top n zero", func(c *Config) { c.API.DefaultTopN = 0 }, true},
		{"max below default", func(c *Config) { c.API.MaxTopN = 5 }, true},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, true},
		{"jwt without secret", func(c *Config) { c.Security.AuthMode = "jwt" }, true},
		{"jwt short secret", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = "short"
		}, true},
		{"jwt valid", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = strings.Repeat("s", 32)
		}, false},
		{"jwt zero ttl", func(c *Config) {
			c.Security.AuthMode = "jwt"
			c.Security.JWTSecret = strings.Repeat("s", 32)
			c.Security.TokenTTL = 0
		}, true},
		{"negative rate limit", func(c *Config) { c.Security.RateLimitReqs = -1 }, true},
		{"negative autosave", func(c *Config) { c.Data.AutosaveInterval = -time.Second }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
