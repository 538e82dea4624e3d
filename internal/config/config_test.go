// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

const validConfig = `
server:
  http_addr: ":8080"
  base_url: "https://gateway.example"
database:
  path: "/tmp/folio.db"
identity:
  login_url: "https://cms.example/login"
  jwt_secret: "test-secret"
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Server.BaseURL != "https://gateway.example" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OAuth.CodeTTL != 10*time.Minute {
		t.Errorf("CodeTTL = %v, want 10m", cfg.OAuth.CodeTTL)
	}
	if cfg.OAuth.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.OAuth.TokenTTL)
	}
	if cfg.OAuth.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.OAuth.SessionTTL)
	}
	if cfg.Identity.CookieName != "folio_identity" {
		t.Errorf("CookieName = %q, want folio_identity", cfg.Identity.CookieName)
	}
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig+`
oauth:
  code_ttl: "5m"
  token_ttl: "30m"
  session_ttl: "12h"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.OAuth.CodeTTL != 5*time.Minute {
		t.Errorf("CodeTTL = %v, want 5m", cfg.OAuth.CodeTTL)
	}
	if cfg.OAuth.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.OAuth.TokenTTL)
	}
	if cfg.OAuth.SessionTTL != 12*time.Hour {
		t.Errorf("SessionTTL = %v, want 12h", cfg.OAuth.SessionTTL)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+`
oauth:
  code_ttl: "not-a-duration"
`))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("FOLIO_TEST_SECRET", "expanded-secret")

	cfg, err := Load(writeConfig(t, `
server:
  http_addr: ":8080"
  base_url: "https://gateway.example"
database:
  path: "/tmp/folio.db"
identity:
  login_url: "https://cms.example/login"
  jwt_secret: "${FOLIO_TEST_SECRET}"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Identity.JWTSecret != "expanded-secret" {
		t.Errorf("JWTSecret = %q, want expanded-secret", cfg.Identity.JWTSecret)
	}
}

func TestValidate_Required(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing http_addr", func(c *Config) { c.Server.HTTPAddr = "" }},
		{"missing base_url", func(c *Config) { c.Server.BaseURL = "" }},
		{"trailing slash base_url", func(c *Config) { c.Server.BaseURL = "https://gateway.example/" }},
		{"missing database path", func(c *Config) { c.Database.Path = "" }},
		{"missing jwt secret", func(c *Config) { c.Identity.JWTSecret = "" }},
		{"missing login url", func(c *Config) { c.Identity.LoginURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:   ServerConfig{HTTPAddr: ":8080", BaseURL: "https://gateway.example"},
				Database: DatabaseConfig{Path: "/tmp/folio.db"},
				Identity: IdentityConfig{LoginURL: "https://cms.example/login", JWTSecret: "s"},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
