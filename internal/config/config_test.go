package config

import (
	"testing"
	"time"
)

func TestMongoDBFromURI(t *testing.T) {
	cases := map[string]string{
		"mongodb://localhost:27017/barbershop":         "barbershop",
		"mongodb://localhost:27017/":                   "",
		"mongodb+srv://u:p@cluster.example/shop/extra": "shop",
		"mongodb://localhost:27017":                    "",
	}
	for uri, want := range cases {
		if got := mongoDBFromURI(uri); got != want {
			t.Fatalf("mongoDBFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TZ", "Europe/Bucharest")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/shop")
	t.Setenv("LOCK_TTL_MINUTES", "")
	t.Setenv("DECLINED_RETENTION_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.MongoDB != "shop" {
		t.Fatalf("expected db name from uri, got %q", cfg.MongoDB)
	}
	if cfg.LockTTL != 15*time.Minute {
		t.Fatalf("expected 15m lock ttl, got %s", cfg.LockTTL)
	}
	if cfg.DeclinedRetention != 7*24*time.Hour {
		t.Fatalf("expected 7d retention, got %s", cfg.DeclinedRetention)
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Fatalf("expected 60s cache ttl, got %s", cfg.CacheTTL())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("EMAIL_DAILY_LIMIT", "3")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.EmailDailyLimit != 3 || !cfg.CookieSecure || cfg.SweepInterval != time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
