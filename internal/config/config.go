// Package config loads server settings from SPLITLEDGER_* environment
// variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. SPLITLEDGER_PORT.
const EnvPrefix = "SPLITLEDGER"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config holds server settings.
type Config struct {
	Port       int    `envconfig:"PORT" default:"8080"`
	StaticPath string `envconfig:"STATIC_PATH" default:"./static"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	Storage    string `envconfig:"STORAGE" default:"sqlite"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/splitledger.db"`
	RedisURL   string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Debounce is the persist window used by sessions driven from this
	// process.
	Debounce time.Duration `envconfig:"DEBOUNCE" default:"1500ms"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads the environment. Call Validate before using the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return &cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite backend")
		}
	case StorageRedis:
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			problems = append(problems, fmt.Sprintf("invalid REDIS_URL %q: must be a redis:// or rediss:// URL", c.RedisURL))
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid STORAGE %q: must be one of sqlite, redis", c.Storage))
	}

	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.Debounce <= 0 {
		problems = append(problems, "DEBOUNCE must be positive")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// ClientConfig holds settings for the command-line client.
type ClientConfig struct {
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Email     string `envconfig:"EMAIL"`
	Password  string `envconfig:"PASSWORD"`

	LogLevel string        `envconfig:"LOG_LEVEL" default:"warn"`
	Debounce time.Duration `envconfig:"DEBOUNCE" default:"1500ms"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// LoadClient reads the client settings from the environment.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	return &cfg, nil
}

// Validate checks that the client can reach and sign in to a server.
func (c *ClientConfig) Validate() error {
	var problems []string

	if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid SERVER_URL %q: must be an http:// or https:// URL", c.ServerURL))
	}
	if c.Email == "" || c.Password == "" {
		problems = append(problems, "EMAIL and PASSWORD are required")
	}
	if c.Debounce <= 0 {
		problems = append(problems, "DEBOUNCE must be positive")
	}
	if c.Timeout <= 0 {
		problems = append(problems, "TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
