package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.HTTPAddr == "" {
		t.Fatalf("expected a default http addr")
	}
	if cfg.Security.TokenTTL != 30*24*time.Hour {
		t.Fatalf("expected 30 day token ttl, got %v", cfg.Security.TokenTTL)
	}
	if cfg.Summary.Language != "id" {
		t.Fatalf("expected Indonesian summary language, got %q", cfg.Summary.Language)
	}
	if cfg.Summary.Timeout != 15*time.Second {
		t.Fatalf("expected 15s summary timeout, got %v", cfg.Summary.Timeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "rahasia-dari-env")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("SUMMARY_ENDPOINT", "http://summary.internal/generate")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "eznews")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Security.JWTSecret != "rahasia-dari-env" {
		t.Fatalf("expected env jwt secret, got %q", cfg.Security.JWTSecret)
	}
	if cfg.Security.TokenTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", cfg.Security.TokenTTL)
	}
	if cfg.Summary.Endpoint != "http://summary.internal/generate" {
		t.Fatalf("expected env summary endpoint, got %q", cfg.Summary.Endpoint)
	}
	if !strings.Contains(cfg.MySQL.DSN, "db.internal:3306") {
		t.Fatalf("expected DSN host from env, got %q", cfg.MySQL.DSN)
	}
	if !strings.Contains(cfg.MySQL.DSN, "/eznews") {
		t.Fatalf("expected DSN database from env, got %q", cfg.MySQL.DSN)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := getDefaultConfig()
	cfg.App.HTTPAddr = ":9090"
	cfg.Security.TokenTTL = 48 * time.Hour
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.App.HTTPAddr != ":9090" {
		t.Fatalf("expected saved addr, got %q", loaded.App.HTTPAddr)
	}
	if loaded.Security.TokenTTL != 48*time.Hour {
		t.Fatalf("expected saved ttl, got %v", loaded.Security.TokenTTL)
	}
}
