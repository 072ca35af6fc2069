package server

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	appenv "github.com/garrettladley/inbox/internal/env"
	"github.com/garrettladley/inbox/internal/storage"
)

var configKeys = []string{"PORT", "ENV", "STORE", "SQLITE_PATH", "DATABASE_URL", "REDIS_URL", "RATE_LIMIT", "RATE_BURST", "DEV_USERS"}

// clearConfigEnv unsets every config variable for the rest of the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Unsetenv(%s) error = %v", key, err)
		}
	}
}

func TestReadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	got, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	want := Config{
		Port:      "8080",
		Env:       appenv.Development,
		Store:     storage.KindMemory,
		RateLimit: RateLimit{Limit: 10, Burst: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadConfig(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/inbox.db")
	t.Setenv("DEV_USERS", "alice,bob")
	t.Setenv("RATE_LIMIT", "2.5")

	got, err := ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if got.Store != storage.KindSQLite || got.SQLitePath != "/tmp/inbox.db" {
		t.Errorf("Store/SQLitePath = %s/%s, want sqlite//tmp/inbox.db", got.Store, got.SQLitePath)
	}
	if diff := cmp.Diff([]string{"alice", "bob"}, got.DevUsers); diff != "" {
		t.Errorf("DevUsers mismatch (-want +got):\n%s", diff)
	}
	if got.RateLimit.Limit != 2.5 {
		t.Errorf("RateLimit.Limit = %v, want 2.5", got.RateLimit.Limit)
	}
}

func TestReadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "postgres without url", env: map[string]string{"STORE": "postgres"}, wantErr: ErrMissingDatabaseURL},
		{name: "unknown store", env: map[string]string{"STORE": "mongo"}},
		{name: "unknown env", env: map[string]string{"ENV": "staging"}},
		{name: "zero burst", env: map[string]string{"RATE_BURST": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := ReadConfig()
			if err == nil {
				t.Fatal("ReadConfig() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
