package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"MODE", "HTTP_ADDR", "DB_DRIVER", "DB_DSN",
		"SMTP_HOST", "SMTP_PORT", "SMTP_FROM",
		"NOTIFY_INTERVAL", "NOTIFY_MAX_ATTEMPTS",
		"CORS_ORIGINS_OFFLINE",
	} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Mode != ModeOffline {
		t.Fatalf("mode = %s, want offline", cfg.Mode)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Fatalf("defaults wrong: %+v", cfg)
	}
	if cfg.SMTP.Configured() {
		t.Fatal("smtp should be unconfigured by default")
	}
	if cfg.NotifyInterval != 15*time.Second || cfg.NotifyMaxAttempts != 5 {
		t.Fatalf("outbox defaults wrong: %v / %d", cfg.NotifyInterval, cfg.NotifyMaxAttempts)
	}
	if len(cfg.CORSOriginsOffline) != 2 {
		t.Fatalf("offline origins = %v", cfg.CORSOriginsOffline)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("SMTP_HOST", "mail.corp.io")
	t.Setenv("SMTP_FROM", "results@corp.io")
	t.Setenv("NOTIFY_INTERVAL", "1m")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "3")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.io, https://b.io ,")

	cfg := FromEnv()
	if cfg.Mode != ModeOnline || cfg.HTTPAddr != ":9999" || cfg.DBDriver != "postgres" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if !cfg.SMTP.Configured() {
		t.Fatal("smtp should be configured")
	}
	if cfg.NotifyInterval != time.Minute || cfg.NotifyMaxAttempts != 3 {
		t.Fatalf("outbox overrides lost: %v / %d", cfg.NotifyInterval, cfg.NotifyMaxAttempts)
	}
	if len(cfg.CORSOriginsOnline) != 2 || cfg.CORSOriginsOnline[1] != "https://b.io" {
		t.Fatalf("origins = %v", cfg.CORSOriginsOnline)
	}
}

func TestEnvDurationRejectsGarbage(t *testing.T) {
	t.Setenv("NOTIFY_INTERVAL", "soon")
	if cfg := FromEnv(); cfg.NotifyInterval != 15*time.Second {
		t.Fatalf("interval = %v, want fallback", cfg.NotifyInterval)
	}
	t.Setenv("NOTIFY_INTERVAL", "-5s")
	if cfg := FromEnv(); cfg.NotifyInterval != 15*time.Second {
		t.Fatalf("negative interval accepted: %v", cfg.NotifyInterval)
	}
}
