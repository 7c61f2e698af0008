package app

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"topikbank/internal/db"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/topik")
	t.Setenv("DB_CONN_MAX_LIFETIME_MINUTES", "5")
	t.Setenv("PUBLIC_URL", "https://bank.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("IMPORT_STRICT_ANSWERS", "yes")
	t.Setenv("MAX_UPLOAD_MB", "8")

	cfg := LoadConfig()
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.PublicURL != "https://bank.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.PublicURL)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins); diff != "" {
		t.Fatalf("cors origins mismatch (-want +got):\n%s", diff)
	}
	if !cfg.ImportStrictAnswers || cfg.MaxUploadBytes() != 8<<20 {
		t.Fatalf("unexpected import settings: %+v", cfg)
	}

	dbCfg, err := cfg.DB()
	if err != nil {
		t.Fatalf("db config: %v", err)
	}
	if dbCfg.Driver != db.DriverPostgres || dbCfg.ConnMaxLifetime != 5*time.Minute {
		t.Fatalf("unexpected db config: %+v", dbCfg)
	}
}

func TestLoadConfigSQLiteDefaultDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")

	cfg := LoadConfig()
	dbCfg, err := cfg.DB()
	if err != nil {
		t.Fatalf("db config: %v", err)
	}
	if dbCfg.Driver != db.DriverSQLite || dbCfg.DSN == "" {
		t.Fatalf("unexpected db config: %+v", dbCfg)
	}
}

func TestConfigRejectsUnknownDriver(t *testing.T) {
	cfg := Config{DBDriver: "mysql"}
	if _, err := cfg.DB(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestBoolOrDefault(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{value: "", fallback: true, want: true},
		{value: "on", want: true},
		{value: "N", fallback: true, want: false},
		{value: "maybe", fallback: true, want: true},
	}
	for _, tc := range tests {
		t.Setenv("TOPIKBANK_TEST_BOOL", tc.value)
		if got := boolOrDefault("TOPIKBANK_TEST_BOOL", tc.fallback); got != tc.want {
			t.Fatalf("boolOrDefault(%q, %v) = %v", tc.value, tc.fallback, got)
		}
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := NewLogger(Config{LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	logger, err := NewLogger(Config{LogLevel: "debug", AppEnv: "test"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	_ = logger.Sync()
}
