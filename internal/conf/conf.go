package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/DevRickLin/micropost-notify/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Database configuration
	DB DBConfig

	// HTTP API configuration
	HTTP HTTPConfig

	// Feishu configuration (optional, enables digests)
	Feishu FeishuConfig

	// Digest configuration
	Digest DigestConfig

	// Debug mode
	Debug bool `env:"DEBUG"`
}

// DBConfig contains database configuration
type DBConfig struct {
	Driver string `env:"MICROPOST_DB_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"MICROPOST_DB_DSN"`  // postgres connection string
	Path   string `env:"MICROPOST_DB_PATH"` // sqlite file, defaults under the home directory
}

// HTTPConfig contains HTTP API configuration
type HTTPConfig struct {
	Addr string `env:"MICROPOST_HTTP_ADDR" envDefault:"127.0.0.1:9876"`
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string `env:"FEISHU_APP_ID"`
	AppSecret string `env:"FEISHU_APP_SECRET"`
}

// DigestConfig contains digest delivery configuration
type DigestConfig struct {
	Interval time.Duration `env:"MICROPOST_DIGEST_INTERVAL" envDefault:"5m"`
	MaxItems int           `env:"MICROPOST_DIGEST_MAX_ITEMS" envDefault:"20"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DB.Driver == "sqlite" && cfg.DB.Path == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.DB.Path = filepath.Join(homeDir, ".micropost", "micropost.db")
	}
	return &cfg, nil
}

// DataSource returns the driver-specific data source name
func (c *DBConfig) DataSource() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return c.DSN
}

// FeishuEnabled reports whether Feishu credentials are configured
func (c *FeishuConfig) FeishuEnabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// ToDigestConfig converts to usecase digest configuration
func (c *DigestConfig) ToDigestConfig() usecase.DigestConfig {
	cfg := usecase.DefaultDigestConfig()
	if c.MaxItems > 0 {
		cfg.MaxItems = c.MaxItems
	}
	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite":
	case "postgres":
		if c.DB.DSN == "" {
			return &ConfigError{Field: "MICROPOST_DB_DSN", Message: "required for postgres"}
		}
	default:
		return &ConfigError{Field: "MICROPOST_DB_DRIVER", Message: "must be sqlite or postgres"}
	}
	if (c.Feishu.AppID == "") != (c.Feishu.AppSecret == "") {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "both or neither"}
	}
	if c.Digest.Interval <= 0 {
		return &ConfigError{Field: "MICROPOST_DIGEST_INTERVAL", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
