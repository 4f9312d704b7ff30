package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdir moves the test into an empty directory so no stray .env or
// dashboard.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8050 {
		t.Errorf("expected default port 8050, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if !strings.HasPrefix(cfg.Dataset.Source, "https://") {
		t.Errorf("expected default https source, got %q", cfg.Dataset.Source)
	}
	if cfg.Dataset.Table != "historical_automobile_sales" {
		t.Errorf("unexpected default table %q", cfg.Dataset.Table)
	}
	if cfg.Dataset.Strict {
		t.Error("strict mode should be off by default")
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Format != "json" {
		t.Errorf("unexpected logger defaults %+v", cfg.Logger)
	}
	if cfg.Maintenance.SweepInterval != time.Minute {
		t.Errorf("expected sweep interval 1m, got %v", cfg.Maintenance.SweepInterval)
	}
	if cfg.Address() != "localhost:8050" {
		t.Errorf("unexpected address %q", cfg.Address())
	}
}

func TestLoad_Environment(t *testing.T) {
	chdir(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_WRITE_TIMEOUT", "45s")
	t.Setenv("DATASET_SOURCE", "./sales.csv")
	t.Setenv("DATASET_STRICT", "true")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("expected write timeout 45s, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Dataset.Source != "./sales.csv" {
		t.Errorf("unexpected source %q", cfg.Dataset.Source)
	}
	if !cfg.Dataset.Strict {
		t.Error("expected strict mode")
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("expected text format, got %q", cfg.Logger.Format)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("unexpected origins %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("expected level from .env, got %q", cfg.Logger.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdir(t)
	content := "server_port: 8123\ndataset_table: sales_archive\n"
	if err := os.WriteFile(filepath.Join(dir, "dashboard.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Dataset.Table != "sales_archive" {
		t.Errorf("expected table from file, got %q", cfg.Dataset.Table)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port too high", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero rps", "SECURITY_RATE_LIMIT_RPS", "0"},
		{"zero load timeout", "DATASET_LOAD_TIMEOUT", "0s"},
		{"blank source", "DATASET_SOURCE", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
