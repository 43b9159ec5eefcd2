package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// resetEnv clears every config-related variable for the test's duration.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "GCP_PROJECT",
		"STORE_ID", "BACKEND_URL", "LOGIN_URL", "DATA_DIR", "BROWSER_TLS",
		"TIMEOUT_SECS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	resetEnv(t)
	t.Setenv("BACKEND_URL", "https://order.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BROWSER_TLS", "true")
	t.Setenv("TIMEOUT_SECS", "10")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" || cfg.LogLevel != "debug" {
		t.Errorf("server settings = %q/%q", cfg.Port, cfg.LogLevel)
	}
	if cfg.Store.BackendURL != "https://order.example.com" {
		t.Errorf("backend_url = %q", cfg.Store.BackendURL)
	}
	if !cfg.Store.BrowserTLS {
		t.Error("browser_tls not read")
	}
	if cfg.Store.Timeout() != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Store.Timeout())
	}
	if cfg.Store.LoginURL != "https://order.example.com/login" {
		t.Errorf("login_url default = %q", cfg.Store.LoginURL)
	}
	if cfg.Store.DataDir == "" {
		t.Error("data_dir default missing")
	}
}

func TestLoad_MissingBackendURL(t *testing.T) {
	resetEnv(t)

	_, err := Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "backend_url") {
		t.Errorf("err = %v, want backend_url requirement", err)
	}
}

func TestLoad_InvalidBackendURL(t *testing.T) {
	resetEnv(t)
	t.Setenv("BACKEND_URL", "not a url")

	if _, err := Load(context.Background()); err == nil {
		t.Error("want error for malformed backend_url")
	}
}

func TestLoad_FromFile(t *testing.T) {
	resetEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "7070",
		"log_level": "warn",
		"store": {
			"backend_url": "https://order.example.com",
			"login_url": "https://order.example.com/accounts/login",
			"timeout_secs": 5
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" || cfg.LogLevel != "warn" {
		t.Errorf("server settings = %q/%q", cfg.Port, cfg.LogLevel)
	}
	if cfg.Store.LoginURL != "https://order.example.com/accounts/login" {
		t.Errorf("login_url = %q, want explicit value kept", cfg.Store.LoginURL)
	}
	if cfg.Store.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Store.Timeout())
	}
}

func TestLoad_ProductionRequiresProject(t *testing.T) {
	resetEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GCP_PROJECT") {
		t.Errorf("err = %v, want GCP_PROJECT requirement", err)
	}
}

func TestStoreConfig_TimeoutDefault(t *testing.T) {
	var s StoreConfig
	if s.Timeout() != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", s.Timeout())
	}
}
