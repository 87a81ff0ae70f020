// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/evcraddock/rentwise/internal/db"
)

// Config holds the environment driven configuration for the API server.
type Config struct {
	Port            int           `env:"RW_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	DBPath          string        `env:"RW_DB"` // defaults to ~/.rentwise/rentwise.db
	DevMode         bool          `env:"RW_DEV_MODE" envDefault:"false"`
	LogLevel        string        `env:"RW_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	ShutdownTimeout time.Duration `env:"RW_SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	PollInterval    time.Duration `env:"RW_POLL_INTERVAL" envDefault:"15s" validate:"gte=1s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	if cfg.DBPath == "" {
		path, err := db.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadEnvFiles overlays variables from .env files that exist, in order.
// Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}
