package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", " redis://localhost:6379/0 ")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_TTL_SEC", "")
	t.Setenv("HTTP_MAX_BODY_BYTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("redis url = %q", cfg.RedisURL)
	}
	if cfg.HTTPAddr != ":8080" || cfg.SessionTTL != 24*time.Hour || cfg.MaxBodyBytes != 1<<16 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ArchiveEnabled() {
		t.Fatalf("archive must be disabled without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/board?sslmode=disable")
	t.Setenv("SESSION_TTL_SEC", "90")
	t.Setenv("HTTP_MAX_BODY_BYTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.SessionTTL != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxBodyBytes != 1<<16 {
		t.Fatalf("invalid numeric should keep default, got %d", cfg.MaxBodyBytes)
	}
	if !cfg.ArchiveEnabled() {
		t.Fatalf("archive should be enabled")
	}
}

func TestLoadRequiresRedis(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
}
