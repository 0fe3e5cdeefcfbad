// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	GatewayURL       string
	GatewayTimeout   time.Duration
	CachePath        string
	LogLevel         string
	TelegramBotToken string
	SyncInterval     time.Duration
}

// DefaultSyncInterval is how often the admin synchronizer checks the change marker.
const DefaultSyncInterval = 60 * time.Second

// DefaultGatewayTimeout bounds a single gateway request.
const DefaultGatewayTimeout = 30 * time.Second

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GatewayURL:       os.Getenv("GATEWAY_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.CachePath = os.Getenv("CACHE_PATH")
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(".", "orderdesk.db")
	}

	cfg.GatewayTimeout = DefaultGatewayTimeout
	if v := os.Getenv("GATEWAY_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.GatewayTimeout = time.Duration(secs) * time.Second
		}
	}

	cfg.SyncInterval = DefaultSyncInterval
	if v := os.Getenv("SYNC_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SyncInterval = time.Duration(secs) * time.Second
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.GatewayURL == "" {
		errs = append(errs, "GATEWAY_URL is required")
	} else if !strings.HasPrefix(c.GatewayURL, "http://") && !strings.HasPrefix(c.GatewayURL, "https://") {
		errs = append(errs, "GATEWAY_URL must be an http(s) URL")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
