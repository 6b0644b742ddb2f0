// Package config provides configuration loading for debated.
package config

import (
	"fmt"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Provider ProviderConfig `koanf:"provider"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ProviderConfig configures the completion provider.
type ProviderConfig struct {
	// Name selects the provider implementation: "openrouter" or
	// "scripted" (deterministic, for local dry runs).
	Name    string        `koanf:"name"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit caps completion requests per second. Zero selects the
	// provider default.
	RateLimit float64 `koanf:"rate_limit"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// SQLitePath is the database file. Empty selects the in-memory store.
	SQLitePath string `koanf:"sqlite_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "openrouter"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = "deepseek/deepseek-chat"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 120 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Provider.Name {
	case "openrouter":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider api_key is required for the openrouter provider")
		}
	case "scripted":
	default:
		return fmt.Errorf("unknown provider %q (expected openrouter or scripted)", c.Provider.Name)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (expected json or console)", c.Logging.Format)
	}

	return nil
}
