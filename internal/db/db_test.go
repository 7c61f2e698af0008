package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverPostgres},
		{in: "postgresql", want: DriverPostgres},
		{in: "PGX", want: DriverPostgres},
		{in: "sqlite", want: DriverSQLite},
		{in: " sqlite3 ", want: DriverSQLite},
		{in: "mysql", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseDriver(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDriver(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDriver(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDriver(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenSQLiteEnsuresSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "bank.db")

	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&n); err != nil {
		t.Fatalf("query exams: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty exams table, got %d rows", n)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverSQLite}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
