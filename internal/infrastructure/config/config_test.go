package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iho/duebook/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "")

	// Empty values fall back to envDefault.
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StoreDriver != config.DriverPostgres {
		t.Fatalf("expected postgres store by default, got %s", cfg.StoreDriver)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache TTL 5m, got %s", cfg.CacheTTL)
	}

	if cfg.AMQPURL != "" {
		t.Fatalf("expected AMQP to be disabled by default, got %q", cfg.AMQPURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/var/lib/duebook.db")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StoreDriver != config.DriverSQLite || cfg.SQLitePath != "/var/lib/duebook.db" {
		t.Fatalf("expected sqlite store at custom path, got %s %s", cfg.StoreDriver, cfg.SQLitePath)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout 45s, got %s", cfg.DatabaseTimeout)
	}

	if cfg.CacheEnabled {
		t.Fatalf("expected cache to be disabled")
	}

	if cfg.OutboxBatchSize != 10 {
		t.Fatalf("expected outbox batch size 10, got %d", cfg.OutboxBatchSize)
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("expected STORE_DRIVER error, got %v", err)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected parse error for invalid duration")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HTTP_PORT=7070\nLOG_FORMAT=console\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("HTTP_PORT")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected HTTP port from file, got %s", cfg.HTTPPort)
	}

	if cfg.LogFormat != "json" {
		t.Fatalf("expected environment to win over file, got %s", cfg.LogFormat)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{
		StoreDriver:     config.DriverPostgres,
		OutboxBatchSize: 0,
		RateLimitRPS:    5,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"DATABASE_URL", "OUTBOX_BATCH_SIZE", "RATE_LIMIT_BURST"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}
