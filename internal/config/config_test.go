package config

import (
	"strings"
	"testing"
	"time"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPLITLEDGER_JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.Storage != StorageSQLite {
		t.Errorf("expected sqlite storage, got %q", cfg.Storage)
	}
	if cfg.Debounce != 1500*time.Millisecond {
		t.Errorf("expected 1.5s debounce, got %v", cfg.Debounce)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SPLITLEDGER_PORT", "9090")
	t.Setenv("SPLITLEDGER_STORAGE", " Redis ")
	t.Setenv("SPLITLEDGER_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SPLITLEDGER_TOKEN_TTL", "2h")
	t.Setenv("SPLITLEDGER_LOG_FORMAT", "JSON")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.Port != 9090 || cfg.Storage != StorageRedis || cfg.TokenTTL != 2*time.Hour || cfg.LogFormat != "json" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("SPLITLEDGER_PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected malformed port to return an error")
	}
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := &Config{
		Port:      0,
		Storage:   "mongo",
		JWTSecret: "short",
		TokenTTL:  time.Hour,
		Debounce:  0,
		LogFormat: "xml",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port", "invalid STORAGE", "JWT_SECRET", "DEBOUNCE", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_RedisURL(t *testing.T) {
	cfg := &Config{
		Port:      8080,
		Storage:   StorageRedis,
		RedisURL:  "http://cache:6379",
		JWTSecret: "0123456789abcdef",
		TokenTTL:  time.Hour,
		Debounce:  time.Second,
		LogFormat: "text",
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_URL") {
		t.Errorf("expected REDIS_URL problem, got %v", err)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("SPLITLEDGER_SERVER_URL", " https://ledger.example.com/ ")
	t.Setenv("SPLITLEDGER_EMAIL", "alice@example.com")
	t.Setenv("SPLITLEDGER_PASSWORD", "correct-horse")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() returned unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.ServerURL != "https://ledger.example.com" {
		t.Errorf("expected trimmed server URL, got %q", cfg.ServerURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected default timeout 15s, got %v", cfg.Timeout)
	}
}

func TestClientConfig_Validate(t *testing.T) {
	cfg := &ClientConfig{ServerURL: "ftp://nope", Debounce: time.Second, Timeout: time.Second}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"SERVER_URL", "EMAIL and PASSWORD"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}
