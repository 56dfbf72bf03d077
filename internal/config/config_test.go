package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "5555"
  cors_origins: ["http://localhost:3000"]
  rate_limit: 5
auth:
  jwt_secret: from-file
attempts:
  require_enrollment: true
  timeout_sweep: "@every 1m"
  timeout_grace: 30s
`)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "5555" || len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("unexpected server section: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("expected memory default, got %q", cfg.Storage.Driver)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected env secret to win, got %q", cfg.Auth.JWTSecret)
	}
	if !cfg.Attempts.RequireEnrollment || cfg.Attempts.TimeoutSweep != "@every 1m" {
		t.Fatalf("unexpected attempts section: %+v", cfg.Attempts)
	}
	if got := TTLDuration(cfg.Attempts.TimeoutGrace, 0); got != 30*time.Second {
		t.Fatalf("expected 30s grace, got %v", got)
	}
}

func TestLoadRejectsUnservableSettings(t *testing.T) {
	cases := map[string]string{
		"postgres without url": "auth: {jwt_secret: x}\nstorage: {driver: postgres}\n",
		"redis without addr":   "auth: {jwt_secret: x}\nattempts: {driver: redis}\n",
		"unknown driver":       "auth: {jwt_secret: x}\nstorage: {driver: mongo}\n",
		"missing secret":       "server: {port: \"8080\"}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			t.Setenv("DATABASE_URL", "")
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
