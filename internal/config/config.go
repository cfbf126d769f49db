// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package config loads server configuration from YAML files and command-line
// flags. Flag defaults seed the configuration, file values override them, and
// explicitly-set flags win over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds all server settings.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	AI       AIConfig       `koanf:"ai"`
	Storage  StorageConfig  `koanf:"storage"`
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// AIConfig holds generative-text backend settings. An empty BaseURL disables
// message transforms.
type AIConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
}

// StorageConfig holds attachment storage settings.
type StorageConfig struct {
	AttachmentsDir string `koanf:"attachments_dir"`
}

// Flags registers all configuration flags on fs. The flag defaults double as
// configuration defaults.
func Flags(fs *pflag.FlagSet) {
	fs.String("server.addr", "127.0.0.1:8080", "HTTP listen address")
	fs.String("server.metrics_addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	fs.Duration("server.shutdown_timeout", 10*time.Second, "graceful shutdown timeout")
	fs.String("database.url", "", "PostgreSQL connection URL (or DATABASE_URL)")
	fs.Int32("database.max_conns", 10, "maximum database connections")
	fs.String("log.format", "json", "log format (json or text)")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("ai.base_url", "", "generative-text backend URL (empty = transforms disabled)")
	fs.String("ai.api_key", "", "generative-text backend API key")
	fs.String("ai.model", "syncora-text-1", "generative-text model name")
	fs.String("storage.attachments_dir", "", "attachments directory (default: XDG data dir)")
}

// Load builds a Config from the optional YAML file at path and the parsed
// flag set. The DATABASE_URL and SYNCORA_AI_API_KEY environment variables
// override file values so secrets can stay out of config files.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		_ = k.Set("database.url", url) //nolint:errcheck
	}
	if key := os.Getenv("SYNCORA_AI_API_KEY"); key != "" {
		_ = k.Set("ai.api_key", key) //nolint:errcheck
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail at an awkward time.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Database.MaxConns <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("database.max_conns must be positive, got %d", c.Database.MaxConns)
	}
	return nil
}

// String renders the config for startup logging with secrets redacted.
func (c *Config) String() string {
	apiKey := c.AI.APIKey
	if apiKey != "" {
		apiKey = "[redacted]"
	}
	dbURL := c.Database.URL
	if dbURL != "" {
		dbURL = "[redacted]"
	}
	return fmt.Sprintf("addr=%s metrics=%s db=%s log=%s/%s ai=%s key=%s",
		c.Server.Addr, c.Server.MetricsAddr, dbURL, c.Log.Format, c.Log.Level, c.AI.BaseURL, apiKey)
}
