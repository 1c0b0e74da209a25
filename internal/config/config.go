package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/branddash/storesync/internal/autosync"
	"github.com/branddash/storesync/internal/db"
)

// Config represents the application configuration
type Config struct {
	Database db.Config       `toml:"database"`
	Shopify  ShopifyConfig   `toml:"shopify"`
	Sync     SyncConfig      `toml:"sync"`
	AutoSync autosync.Config `toml:"auto_sync"`
	HTTP     HTTPConfig      `toml:"http"`
	Logging  LoggingConfig   `toml:"logging"`
}

// ShopifyConfig holds Admin API client settings
type ShopifyConfig struct {
	APIVersion     string        `toml:"api_version"`
	PageSize       int           `toml:"page_size"`
	MaxRetries     int           `toml:"max_retries"`
	RetryBaseDelay time.Duration `toml:"retry_base_delay"`
}

// SyncConfig holds extraction and webhook settings
type SyncConfig struct {
	// WebhookBaseURL is this service's public root; webhook intake
	// paths are appended to it when subscriptions are registered.
	WebhookBaseURL string `toml:"webhook_base_url"`
}

// HTTPConfig holds HTTP API server settings
type HTTPConfig struct {
	Address string `toml:"address"`
	Port    int    `toml:"port"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: db.Config{
			Driver:          "sqlite3",
			DSN:             "storesync.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Shopify: ShopifyConfig{
			APIVersion:     "2024-01",
			PageSize:       250,
			MaxRetries:     3,
			RetryBaseDelay: 2 * time.Second,
		},
		Sync: SyncConfig{
			WebhookBaseURL: "http://localhost:8080",
		},
		AutoSync: autosync.DefaultConfig(),
		HTTP: HTTPConfig{
			Address: "0.0.0.0",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile loads configuration from a TOML file
func LoadFromFile(path string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// Parse TOML file
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadConfig loads configuration with the following precedence:
// 1. Default values
// 2. Config file (if specified)
// 3. Command-line flags (handled by caller)
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If no config file specified, return defaults
	if configPath == "" {
		return config, nil
	}

	// Load from file if it exists
	fileConfig, err := LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}

	return fileConfig, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Database validation
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver must be specified")
	}
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "pgx" {
		return fmt.Errorf("unsupported database driver: %s (must be sqlite3 or pgx)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN must be specified")
	}

	// Shopify client validation
	if c.Shopify.PageSize <= 0 || c.Shopify.PageSize > 250 {
		return fmt.Errorf("shopify page_size must be between 1 and 250")
	}
	if c.Shopify.MaxRetries < 0 {
		return fmt.Errorf("shopify max_retries must not be negative")
	}
	if c.Shopify.RetryBaseDelay <= 0 {
		return fmt.Errorf("shopify retry_base_delay must be positive")
	}

	// Sync validation
	if c.Sync.WebhookBaseURL == "" {
		return fmt.Errorf("sync webhook_base_url must be specified")
	}

	// Auto sync validation
	if c.AutoSync.Interval <= 0 {
		return fmt.Errorf("auto_sync interval must be positive")
	}

	// HTTP validation
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}
