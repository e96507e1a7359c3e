package config

import (
	"testing"
	"time"
)

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for key, value := range values {
		t.Setenv(key, value)
	}
}

func TestLoadDefaultsToMemoryStoreWithoutDatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":      "",
		"STORAGE_DRIVER":    "memory",
		"JWT_ACCESS_SECRET": "",
		"SMTP_HOST":         "",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetStorageDriver() != StorageDriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.GetStorageDriver())
	}
	if cfg.GetIntelligenceTimeout() != 15*time.Second {
		t.Fatalf("expected 15s intelligence timeout, got %s", cfg.GetIntelligenceTimeout())
	}
	if cfg.IsAuthEnabled() {
		t.Fatalf("expected auth to be disabled without a secret")
	}
}

func TestLoadRejectsPostgresWithoutDatabaseURL(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":   "",
		"STORAGE_DRIVER": "postgres",
	})

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when postgres is selected without DATABASE_URL")
	}
}

func TestLoadRejectsUnknownIntelligenceProvider(t *testing.T) {
	setEnv(t, map[string]string{
		"STORAGE_DRIVER":        "memory",
		"INTELLIGENCE_PROVIDER": "oracle",
	})

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown intelligence provider")
	}
}

func TestLoadRequiresSenderAddressWhenSMTPConfigured(t *testing.T) {
	setEnv(t, map[string]string{
		"STORAGE_DRIVER":     "memory",
		"SMTP_HOST":          "smtp.example.com",
		"EMAIL_FROM_ADDRESS": "",
	})

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when SMTP_HOST is set without EMAIL_FROM_ADDRESS")
	}
}

func TestSplitCSVDropsBlanks(t *testing.T) {
	got := splitCSV(" http://a.test, ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected split result: %#v", got)
	}
}

func TestBackgroundEnrichmentNeedsRedisAndSharedStore(t *testing.T) {
	cases := []struct {
		redisURL string
		driver   string
		want     bool
	}{
		{redisURL: "", driver: StorageDriverPostgres, want: false},
		{redisURL: "redis://localhost:6379", driver: StorageDriverMemory, want: false},
		{redisURL: "redis://localhost:6379", driver: StorageDriverPostgres, want: true},
		{redisURL: "redis://localhost:6379", driver: StorageDriverSQLite, want: true},
	}

	for _, tc := range cases {
		cfg := &Config{RedisURL: tc.redisURL, StorageDriver: tc.driver}
		if got := cfg.IsBackgroundEnrichmentEnabled(); got != tc.want {
			t.Fatalf("redis=%q driver=%q: expected %v, got %v", tc.redisURL, tc.driver, tc.want, got)
		}
	}
}
