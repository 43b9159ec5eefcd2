// Package config handles loading and validation of client configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all settings for the intent server and CLI.
// Environment decides whether store settings come from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string

	// StoreID names which storefront's settings to load.
	StoreID string

	// Store-specific configuration (loaded from secrets in production).
	Store StoreConfig
}

// StoreConfig contains storefront-specific settings. In production this is
// one JSON secret; in development, individual env vars or a CONFIG_FILE.
type StoreConfig struct {
	// BackendURL is the ordering backend's origin.
	BackendURL string `json:"backend_url"`

	// LoginURL is where an unauthenticated checkout sends the user.
	// Defaults to "/login" on the backend origin.
	LoginURL string `json:"login_url,omitempty"`

	// DataDir holds tokens and session state. Defaults to ~/.storefront.
	DataDir string `json:"data_dir,omitempty"`

	// BrowserTLS turns on the Chrome-fingerprint transport for backends
	// behind bot-detecting CDNs.
	BrowserTLS bool `json:"browser_tls,omitempty"`

	// TimeoutSecs is the per-request timeout. Defaults to 30.
	TimeoutSecs int `json:"timeout_secs,omitempty"`
}

// Timeout returns the request timeout as a duration.
func (s StoreConfig) Timeout() time.Duration {
	if s.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSecs) * time.Second
}

// Load reads configuration. Priority: CONFIG_FILE (if set) → env vars, with
// store settings from Secret Manager in production.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     envOrDefault("STORE_ID", "default"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads everything from one JSON file. Used in development to
// avoid a pile of env vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		Store       StoreConfig `json:"store"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     withDefault(fileConfig.StoreID, "default"),
		Store:       fileConfig.Store,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches the store config JSON from GCP Secret
// Manager. Secret name: projects/{project}/secrets/{store_id}/versions/latest.
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		BackendURL: os.Getenv("BACKEND_URL"),
		LoginURL:   os.Getenv("LOGIN_URL"),
		DataDir:    os.Getenv("DATA_DIR"),
		BrowserTLS: os.Getenv("BROWSER_TLS") == "true",
	}
	if raw := os.Getenv("TIMEOUT_SECS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing TIMEOUT_SECS: %w", err)
		}
		c.Store.TimeoutSecs = secs
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Store.LoginURL == "" && c.Store.BackendURL != "" {
		c.Store.LoginURL = c.Store.BackendURL + "/login"
	}
	if c.Store.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Store.DataDir = home + "/.storefront"
		} else {
			c.Store.DataDir = ".storefront"
		}
	}
}

// validate checks required fields.
func (c *Config) validate() error {
	if c.Store.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	u, err := url.Parse(c.Store.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend_url %q", c.Store.BackendURL)
	}
	return nil
}

func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
