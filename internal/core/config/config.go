// Package config provides configuration management for the switchyard
// CLI and any embedding service.
package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds runtime settings. Flag values take precedence over
// environment variables, which take precedence over the config file and
// the defaults below.
type Config struct {
	// DatabaseURL locates the policy store (sqlite:// or postgres://).
	DatabaseURL string
	// MerchantSnapshot is a path to a merchant connector snapshot
	// document used to seed the knowledge graph. Empty means the latest
	// stored snapshot, or no graph when the store is empty too.
	MerchantSnapshot string
	// RatesFile is a path to an exchange-rate table document.
	RatesFile string
	LogLevel  string
	LogFormat string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DatabaseURL: "sqlite://switchyard.db",
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// SlogLevel maps the configured level name onto a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (expected debug, info, warn, error)", c.LogLevel)
	}
}

// Validate rejects values no subcommand could run with.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (expected json or text)", c.LogFormat)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database URL must not be empty")
	}
	return nil
}
