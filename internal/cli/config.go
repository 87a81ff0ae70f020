package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// configPath returns ~/.config/rw/config.yaml.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rw", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// A missing file yields a zero-value config.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig atomically replaces the CLI config file, mode 0600.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg.ServerURL = normalizeURL(cfg.ServerURL)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("securing temp config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// setting is a resolved value and where it came from.
type setting struct {
	Value  string
	Source string // "env", "config" or "default"
}

// resolve picks the environment variable, then the config file, then def.
func resolve(envVar string, fromFile func(CLIConfig) string, def string) setting {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return setting{Value: v, Source: "env"}
	}
	if cfg, err := loadConfig(); err == nil {
		if v := fromFile(cfg); v != "" {
			return setting{Value: v, Source: "config"}
		}
	}
	return setting{Value: def, Source: "default"}
}

func serverURLSetting() setting {
	s := resolve("RW_SERVER_URL", func(c CLIConfig) string { return c.ServerURL }, defaultServerURL)
	s.Value = normalizeURL(s.Value)
	return s
}

func apiKeySetting() setting {
	return resolve("RW_API_KEY", func(c CLIConfig) string { return c.APIKey }, "")
}

// getServerURL returns the server URL from env var, config, or default.
func getServerURL() string {
	return serverURLSetting().Value
}

// getAPIKey returns the API key from env var or config.
func getAPIKey() string {
	return apiKeySetting().Value
}

func normalizeURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
