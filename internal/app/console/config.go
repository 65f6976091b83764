package console

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultCacheDriver     = "sqlite"
	DefaultAgentInterval   = 30
	DefaultConfigDirName   = ".pulsectl"
	DefaultCacheFileName   = "cache.db"
	defaultSQLiteDSNParams = "?_journal_mode=WAL&_busy_timeout=5000"
)

// ErrServerURLRequired is returned when no dashboard URL is configured.
var ErrServerURLRequired = errors.New("server URL is required (set server.url, PULSECTL_SERVER_URL, or run 'pulsectl auth login')")

// Config holds configuration for the console.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
	Agent    AgentConfig    `mapstructure:"agent"`
}

// ServerConfig points the console at a dashboard.
type ServerConfig struct {
	// URL is the dashboard base URL (e.g., "https://pulse.example.com").
	URL string `mapstructure:"url"`
	// Token is the API token sent as X-API-Token.
	Token string `mapstructure:"token"`
	// Timeout bounds each API request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of ERROR, WARNING, INFO, DEBUG.
	Level string `mapstructure:"level"`
}

// CacheConfig configures the local discovery cache database.
type CacheConfig struct {
	// Driver is sqlite or postgres.
	Driver string `mapstructure:"driver"`
	// DSN is the data source name; empty uses ~/.pulsectl/cache.db.
	DSN string `mapstructure:"dsn"`
}

// KeycloakConfig enables importing SSO providers from a Keycloak realm.
type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Enabled reports whether enough is configured to talk to Keycloak.
func (k KeycloakConfig) Enabled() bool {
	return k.URL != "" && k.Realm != "" && k.ClientID != ""
}

// AgentConfig holds host agent install defaults.
type AgentConfig struct {
	// Interval is the report interval in seconds written into install commands.
	Interval int `mapstructure:"interval"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = DefaultTimeout
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DefaultCacheDriver
	}
	if c.Agent.Interval <= 0 {
		c.Agent.Interval = DefaultAgentInterval
	}
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return ErrServerURLRequired
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("server URL must be an http(s) URL")
	}
	return nil
}

// ConfigDir returns ~/.pulsectl.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDirName), nil
}

// CacheDSN returns the configured DSN or the default SQLite file.
func (c *Config) CacheDSN() (string, error) {
	if c.Cache.DSN != "" {
		return c.Cache.DSN, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return "file:" + filepath.Join(dir, DefaultCacheFileName) + defaultSQLiteDSNParams, nil
}
