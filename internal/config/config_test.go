package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "0s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity not clamped: %d", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Fatalf("refill tokens not clamped: %d", cfg.RefillTokens)
	}
	if cfg.RefillInterval != time.Second {
		t.Fatalf("interval not clamped: %v", cfg.RefillInterval)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("ttl below bucket lifetime floor: %v", cfg.TTL)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
		t.Fatalf("methods not upper-cased: %v", cfg.Methods)
	}
	if cfg.Methods["POST"] {
		t.Fatal("POST should not be cacheable")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "value")
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "not-a-number")
	t.Setenv("X_DUR", "90s")

	if got := envStr("X_STR", "def"); got != "value" {
		t.Fatalf("envStr: %q", got)
	}
	if got := envStr("X_MISSING", "def"); got != "def" {
		t.Fatalf("envStr default: %q", got)
	}
	if envBool("X_BOOL", true) {
		t.Fatal("envBool should parse off as false")
	}
	if got := envInt("X_INT", 7); got != 7 {
		t.Fatalf("envInt should fall back on parse error: %d", got)
	}
	if got := envDur("X_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("envDur: %v", got)
	}
}
