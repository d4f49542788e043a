package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.MaxResults != 30 {
		t.Errorf("MaxResults = %d, want 30", cfg.Search.MaxResults)
	}
	if cfg.Search.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %d, want 5", cfg.Search.MaxConcurrent)
	}
	if cfg.Search.PerCallSleep != 200*time.Millisecond {
		t.Errorf("PerCallSleep = %v, want 200ms", cfg.Search.PerCallSleep)
	}
	if cfg.Search.BlacklistCooldown != 300*time.Second {
		t.Errorf("BlacklistCooldown = %v, want 300s", cfg.Search.BlacklistCooldown)
	}
	if cfg.Resolve.MinEngagement != 10 {
		t.Errorf("MinEngagement = %v, want 10", cfg.Resolve.MinEngagement)
	}
	if cfg.Resolve.MaxConcurrent != 3 {
		t.Errorf("resolve MaxConcurrent = %d, want 3", cfg.Resolve.MaxConcurrent)
	}
	if cfg.Resolve.PageFetchEnabled {
		t.Error("PageFetchEnabled should default to false")
	}
	if cfg.Storage.Backend != "json" {
		t.Errorf("Backend = %q, want json", cfg.Storage.Backend)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_RESULTS", "10")
	t.Setenv("MIN_ENGAGEMENT", "25.5")
	t.Setenv("PAGE_FETCH_ENABLED", "true")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.Search.MaxResults)
	}
	if cfg.Resolve.MinEngagement != 25.5 {
		t.Errorf("MinEngagement = %v, want 25.5", cfg.Resolve.MinEngagement)
	}
	if !cfg.Resolve.PageFetchEnabled {
		t.Error("PageFetchEnabled should be true")
	}
	if cfg.Storage.SQLitePath != "/tmp/test.db" {
		t.Errorf("SQLitePath = %q", cfg.Storage.SQLitePath)
	}
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); !errors.Is(err, ErrMissingDB) {
		t.Errorf("expected ErrMissingDB, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/viralfinder")
	if _, err := Load(); err != nil {
		t.Errorf("unexpected error with DSN set: %v", err)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	if _, err := Load(); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestLoad_GooglePairing(t *testing.T) {
	t.Setenv("GOOGLE_SEARCH_KEY", "key-only")
	if _, err := Load(); !errors.Is(err, ErrIncompleteGoogle) {
		t.Errorf("expected ErrIncompleteGoogle, got %v", err)
	}

	t.Setenv("GOOGLE_CSE_ID", "cse-id")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error with both set: %v", err)
	}
	if cfg.GoogleCSE.Key != "key-only" || cfg.GoogleCSE.CSEID != "cse-id" {
		t.Errorf("google config = %+v", cfg.GoogleCSE)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		logger, err := NewLogger(LogConfig{Level: level})
		if err != nil {
			t.Fatalf("failed to build logger for level %q: %v", level, err)
		}
		logger.Sync()
	}
}
