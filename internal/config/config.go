package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// API path constants. The token and audit-log endpoints live under the
// same versioned base path on every Unqork instance.
const (
	apiBasePath   = "/api/1.0"
	tokenPath     = apiBasePath + "/oauth2/access_token"
	auditLogsPath = apiBasePath + "/logs/audit-logs"
)

// Config defines configuration for the unqork-logs CLI.
type Config struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// DataDir is where the cache database lives.
	DataDir string `yaml:"data_dir"`

	// MaxConcurrentDownloads bounds parallel file downloads within a window.
	MaxConcurrentDownloads int `yaml:"max_concurrent_downloads"`

	// TokenRefreshBuffer re-authenticates when this much time remains
	// before token expiry.
	TokenRefreshBuffer time.Duration `yaml:"token_refresh_buffer"`

	// HTTPTimeout applies to individual upstream requests.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// VerifySSL can be disabled for gateways with self-signed certificates.
	VerifySSL bool `yaml:"verify_ssl"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		DataDir:                defaultDataDir(),
		MaxConcurrentDownloads: 15,
		TokenRefreshBuffer:     5 * time.Minute,
		HTTPTimeout:            60 * time.Second,
		VerifySSL:              true,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".unqork-logs"
	}
	return filepath.Join(home, ".unqork-logs")
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL                string `yaml:"base_url"`
	ClientID               string `yaml:"client_id"`
	ClientSecret           string `yaml:"client_secret"`
	DataDir                string `yaml:"data_dir"`
	MaxConcurrentDownloads int    `yaml:"max_concurrent_downloads"`
	TokenRefreshBuffer     string `yaml:"token_refresh_buffer"`
	HTTPTimeout            string `yaml:"http_timeout"`
	VerifySSL              *bool  `yaml:"verify_ssl"`
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.ClientID != "" {
		cfg.ClientID = yc.ClientID
	}
	if yc.ClientSecret != "" {
		cfg.ClientSecret = yc.ClientSecret
	}
	if yc.DataDir != "" {
		cfg.DataDir = yc.DataDir
	}
	if yc.MaxConcurrentDownloads != 0 {
		cfg.MaxConcurrentDownloads = yc.MaxConcurrentDownloads
	}
	if yc.TokenRefreshBuffer != "" {
		d, err := time.ParseDuration(yc.TokenRefreshBuffer)
		if err != nil {
			return Config{}, fmt.Errorf("parse token_refresh_buffer: %w", err)
		}
		cfg.TokenRefreshBuffer = d
	}
	if yc.HTTPTimeout != "" {
		d, err := time.ParseDuration(yc.HTTPTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if yc.VerifySSL != nil {
		cfg.VerifySSL = *yc.VerifySSL
	}

	return cfg, nil
}

// LoadFromEnv overrides configuration from environment variables.
// Environment variables use the UNQORK_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("UNQORK_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("UNQORK_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("UNQORK_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("UNQORK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("UNQORK_MAX_CONCURRENT_DOWNLOADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse UNQORK_MAX_CONCURRENT_DOWNLOADS: %w", err)
		}
		c.MaxConcurrentDownloads = n
	}
	if v := os.Getenv("UNQORK_TOKEN_REFRESH_BUFFER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse UNQORK_TOKEN_REFRESH_BUFFER: %w", err)
		}
		c.TokenRefreshBuffer = d
	}
	if v := os.Getenv("UNQORK_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse UNQORK_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("UNQORK_VERIFY_SSL"); v != "" {
		c.VerifySSL = v != "false" && v != "0" && v != "no"
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config file
// (if present), then environment overrides, then validation.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("UNQORK_CONFIG")
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return Config{}, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "UNQORK_BASE_URL")
	}
	if c.ClientID == "" {
		missing = append(missing, "UNQORK_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "UNQORK_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	if !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("config: base URL must start with https://")
	}
	if c.MaxConcurrentDownloads <= 0 {
		return errors.New("config: max_concurrent_downloads must be positive")
	}
	return nil
}

// TokenURL returns the OAuth2 token endpoint.
func (c *Config) TokenURL() string {
	return strings.TrimRight(c.BaseURL, "/") + tokenPath
}

// AuditLogsURL returns the audit-log locations endpoint.
func (c *Config) AuditLogsURL() string {
	return strings.TrimRight(c.BaseURL, "/") + auditLogsPath
}

// CacheDBPath returns the path of the local cache database.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}
