package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DB_MAX_CONNS", "DB_CONN_MAX_IDLE_SECONDS", "DB_CONN_MAX_LIFETIME_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default: %q", cfg.HTTPAddr)
	}
	if cfg.DBMaxConns != 0 {
		t.Fatalf("DBMaxConns default must leave pool sizing to pgxpool, got %d", cfg.DBMaxConns)
	}
	if cfg.DBConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("DBConnMaxIdleTime default: %v", cfg.DBConnMaxIdleTime)
	}
	if cfg.DBConnMaxLifetime != 30*time.Minute {
		t.Fatalf("DBConnMaxLifetime default: %v", cfg.DBConnMaxLifetime)
	}
}

func TestFromEnvPoolOverrides(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_CONN_MAX_IDLE_SECONDS", "60")
	t.Setenv("DB_CONN_MAX_LIFETIME_SECONDS", "900")

	cfg := FromEnv()

	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns: %d", cfg.DBMaxConns)
	}
	if cfg.DBConnMaxIdleTime != time.Minute {
		t.Fatalf("DBConnMaxIdleTime: %v", cfg.DBConnMaxIdleTime)
	}
	if cfg.DBConnMaxLifetime != 15*time.Minute {
		t.Fatalf("DBConnMaxLifetime: %v", cfg.DBConnMaxLifetime)
	}
}
