package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "QUEUE_BACKEND", "CACHE_BACKEND", "SWEEP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.StoreBackend != "postgres" {
		t.Fatalf("StoreBackend = %q, want postgres", cfg.StoreBackend)
	}
	if cfg.QueueBackend != "redis" {
		t.Fatalf("QueueBackend = %q, want redis", cfg.QueueBackend)
	}
	if cfg.CacheBackend != "redis" {
		t.Fatalf("CacheBackend = %q, want redis", cfg.CacheBackend)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("SweepInterval = %s, want 1m", cfg.SweepInterval)
	}
}

// The snapshot cache is switched off by its own setting, not the queue's.
func TestLoadCacheBackendOverride(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "none")
	t.Setenv("QUEUE_BACKEND", "redis")

	cfg := Load()
	if cfg.CacheBackend != "none" {
		t.Fatalf("CacheBackend = %q, want none", cfg.CacheBackend)
	}
	if cfg.QueueBackend != "redis" {
		t.Fatalf("QueueBackend = %q, want redis", cfg.QueueBackend)
	}
}

func TestDurationEnvFallback(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")
	cfg := Load()
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("SweepInterval = %s, want fallback 1m", cfg.SweepInterval)
	}
}
