// ABOUTME: Configuration loading and parsing for folio-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete folio-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Identity IdentityConfig `yaml:"identity"`
	Tools    ToolsConfig    `yaml:"tools"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the externally visible URL of the gateway. It becomes the
	// OAuth issuer and the resource identifier in discovery documents.
	BaseURL string `yaml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OAuthConfig holds authorization server timing configuration
type OAuthConfig struct {
	CodeTTL    time.Duration `yaml:"-"`
	TokenTTL   time.Duration `yaml:"-"`
	SessionTTL time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	CodeTTLRaw    string `yaml:"code_ttl"`
	TokenTTLRaw   string `yaml:"token_ttl"`
	SessionTTLRaw string `yaml:"session_ttl"`
}

// IdentityConfig holds the host login integration configuration.
// The gateway does not manage user accounts itself: unauthenticated
// consent requests are redirected to LoginURL, and the host login hands the
// browser back with an HS256-signed identity assertion in a cookie.
type IdentityConfig struct {
	LoginURL   string `yaml:"login_url"`
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
}

// ToolsConfig holds tool pack configuration
type ToolsConfig struct {
	// ManifestPath points at the TOML manifest describing exposed tools.
	// Empty means only built-in descriptors are served.
	ManifestPath string `yaml:"manifest_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the config file leaves a value unset
const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultTokenTTL   = time.Hour
	DefaultSessionTTL = 24 * time.Hour
	DefaultCookieName = "folio_identity"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for optional fields.
func (c *Config) applyDefaults() {
	if c.OAuth.CodeTTL == 0 {
		c.OAuth.CodeTTL = DefaultCodeTTL
	}
	if c.OAuth.TokenTTL == 0 {
		c.OAuth.TokenTTL = DefaultTokenTTL
	}
	if c.OAuth.SessionTTL == 0 {
		c.OAuth.SessionTTL = DefaultSessionTTL
	}
	if c.Identity.CookieName == "" {
		c.Identity.CookieName = DefaultCookieName
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if strings.HasSuffix(c.Server.BaseURL, "/") {
		return fmt.Errorf("server.base_url must not end with a slash")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Identity.JWTSecret == "" {
		return fmt.Errorf("identity.jwt_secret is required")
	}
	if c.Identity.LoginURL == "" {
		return fmt.Errorf("identity.login_url is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.OAuth.CodeTTLRaw != "" {
		cfg.OAuth.CodeTTL, err = time.ParseDuration(cfg.OAuth.CodeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing code_ttl %q: %w", cfg.OAuth.CodeTTLRaw, err)
		}
	}

	if cfg.OAuth.TokenTTLRaw != "" {
		cfg.OAuth.TokenTTL, err = time.ParseDuration(cfg.OAuth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.OAuth.TokenTTLRaw, err)
		}
	}

	if cfg.OAuth.SessionTTLRaw != "" {
		cfg.OAuth.SessionTTL, err = time.ParseDuration(cfg.OAuth.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.OAuth.SessionTTLRaw, err)
		}
	}

	return nil
}
