package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Addr() != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr())
	}
	if cfg.Pagination.DefaultTTLHours != 24 || cfg.Pagination.MaxTTLHours != 72 {
		t.Fatalf("ttl defaults = %d/%d", cfg.Pagination.DefaultTTLHours, cfg.Pagination.MaxTTLHours)
	}
	if cfg.Pagination.DefaultPageSize != 20 || cfg.Pagination.MaxPageSize != 100 {
		t.Fatalf("page size defaults = %d/%d", cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)
	}
	if time.Duration(cfg.Retention.Period) != 720*time.Hour {
		t.Fatalf("retention period = %v", time.Duration(cfg.Retention.Period))
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
  db_path: /data/venues
  max_body_bytes: 2MB
security:
  cursor_secret: yaml-secret
pagination:
  default_page_size: 10
retention:
  enabled: true
  period: 240h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.DBPath != "/data/venues" {
		t.Fatalf("server config not applied: %+v", cfg.Server)
	}
	if int64(cfg.Server.MaxBodyBytes) != 2_000_000 {
		t.Fatalf("max_body_bytes = %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Security.CursorSecret != "yaml-secret" {
		t.Fatalf("cursor secret not applied")
	}
	if cfg.Pagination.DefaultPageSize != 10 {
		t.Fatalf("default_page_size = %d", cfg.Pagination.DefaultPageSize)
	}
	// untouched keys keep their defaults
	if cfg.Pagination.MaxPageSize != 100 || cfg.Server.Address != "" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !cfg.Retention.Enabled || time.Duration(cfg.Retention.Period) != 240*time.Hour {
		t.Fatalf("retention not applied: %+v", cfg.Retention)
	}
}

func TestLoadMissingQuietly(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("missing file should yield defaults")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("VENUEDIR_ADDR", "0.0.0.0:7000")
	t.Setenv("VENUEDIR_DB_PATH", "/env/db")
	t.Setenv("VENUEDIR_CURSOR_SECRET", "env-secret")
	t.Setenv("VENUEDIR_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VENUEDIR_RATE_RPS", "12.5")
	t.Setenv("VENUEDIR_CURSOR_TTL_HOURS", "6")

	cfg := Default()
	ApplyEnv(cfg)
	if cfg.Server.Address != "0.0.0.0" || cfg.Server.Port != 7000 {
		t.Fatalf("addr env not applied: %+v", cfg.Server)
	}
	if cfg.Server.DBPath != "/env/db" || cfg.Security.CursorSecret != "env-secret" {
		t.Fatalf("env overrides not applied")
	}
	if len(cfg.Security.CORS.AllowedOrigins) != 2 || cfg.Security.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins = %v", cfg.Security.CORS.AllowedOrigins)
	}
	if cfg.Security.RateLimit.RPS != 12.5 {
		t.Fatalf("rate rps = %v", cfg.Security.RateLimit.RPS)
	}
	if cfg.Pagination.DefaultTTLHours != 6 {
		t.Fatalf("ttl env not applied: %d", cfg.Pagination.DefaultTTLHours)
	}
}
