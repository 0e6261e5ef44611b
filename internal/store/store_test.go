package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Clark-Hu/barscore/db"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig("postgres://u:p@localhost:5432/bars?sslmode=disable", Options{
		MaxConns:               12,
		MinConns:               3,
		MaxConnIdleTime:        time.Minute,
		StatementCacheCapacity: 64,
	})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if cfg.MaxConns != 12 || cfg.MinConns != 3 || cfg.MaxConnIdleTime != time.Minute {
		t.Fatalf("pool limits not applied: %+v", cfg)
	}
	if cfg.ConnConfig.StatementCacheCapacity != 64 {
		t.Fatalf("statement cache = %d", cfg.ConnConfig.StatementCacheCapacity)
	}
	if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != DefaultApplicationName {
		t.Fatalf("application_name = %q", got)
	}
}

func TestPoolConfig_KeepsURLApplicationName(t *testing.T) {
	cfg, err := poolConfig("postgres://u:p@localhost:5432/bars?application_name=ops", Options{ApplicationName: "ignored"})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if got := cfg.ConnConfig.RuntimeParams["application_name"]; got != "ops" {
		t.Fatalf("application_name = %q, want ops", got)
	}
}

func TestPoolConfig_BadURL(t *testing.T) {
	if _, err := poolConfig("postgres://localhost:notaport/bars", Options{}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNilStore(t *testing.T) {
	var s *Store
	if err := s.HealthCheck(context.Background()); err == nil {
		t.Fatalf("nil store must report unhealthy")
	}
	if s.Stats() != nil {
		t.Fatalf("nil store stats should be nil")
	}
	if err := s.Migrate(context.Background(), db.Migrations, "migrations"); err == nil {
		t.Fatalf("nil store must refuse to migrate")
	}
	s.Close()
}

func TestMigrate_NoFiles(t *testing.T) {
	err := Migrate(context.Background(), nil, db.Migrations, "nowhere", nil)
	if err == nil {
		t.Fatalf("expected error for empty migration dir")
	}
	if errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("unexpected sentinel: %v", err)
	}
}
