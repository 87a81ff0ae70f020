package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"RW_PORT", "RW_DB", "RW_DEV_MODE", "RW_LOG_LEVEL", "RW_SHUTDOWN_TIMEOUT", "RW_POLL_INTERVAL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("addr = %q", cfg.Addr())
	}
	if filepath.Base(cfg.DBPath) != "rentwise.db" {
		t.Errorf("db path = %q, want default", cfg.DBPath)
	}
	if cfg.LogLevel != "info" || cfg.DevMode {
		t.Errorf("log level = %q, dev = %v", cfg.LogLevel, cfg.DevMode)
	}
	if cfg.ShutdownTimeout != 10*time.Second || cfg.PollInterval != 15*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.ShutdownTimeout, cfg.PollInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RW_PORT", "9090")
	t.Setenv("RW_DB", " /tmp/rw.db ")
	t.Setenv("RW_DEV_MODE", "true")
	t.Setenv("RW_LOG_LEVEL", "debug")
	t.Setenv("RW_POLL_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "/tmp/rw.db" || !cfg.DevMode || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("poll interval = %v", cfg.PollInterval)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"port not a number", "RW_PORT", "eighty"},
		{"port out of range", "RW_PORT", "70000"},
		{"unknown log level", "RW_LOG_LEVEL", "chatty"},
		{"poll interval too short", "RW_POLL_INTERVAL", "10ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RW_DB", "/tmp/rw.db")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("RW_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RW_PORT", "1234")
	t.Setenv("RW_DB", "/tmp/rw.db")

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load env files: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("port = %d, want .env value 7070", cfg.Port)
	}
}
