package config

import (
	"fmt"

	"coupongen/internal/coupon"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	S3        S3Config
	Storage   StorageConfig
	Generator GeneratorConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database-related configuration. Persistence of runs
// is optional; when Enabled is false nothing else in this section is used.
type DatabaseConfig struct {
	Enabled         bool   `env:"DB_ENABLED" envDefault:"false"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            int    `env:"DB_PORT" envDefault:"5432"`
	User            string `env:"DB_USER" envDefault:"postgres"`
	Password        string `env:"DB_PASSWORD"`
	Database        string `env:"DB_NAME" envDefault:"coupongen"`
	MaxConnections  int    `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections  int    `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnLifetime int    `env:"DB_MAX_CONN_LIFETIME" envDefault:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string `env:"API_KEY"`
}

// S3Config holds AWS S3 configuration for exports and exclusion files.
type S3Config struct {
	Enabled         bool   `env:"S3_ENABLED" envDefault:"false"`
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix          string `env:"S3_PREFIX" envDefault:"coupons/"` // Path prefix within bucket
	Endpoint        string `env:"S3_ENDPOINT"`                     // MinIO or LocalStack
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// StorageConfig holds local storage configuration.
type StorageConfig struct {
	LocalPath string `env:"STORAGE_LOCAL_PATH" envDefault:"./data"`
}

// GeneratorConfig holds coupon generation configuration.
type GeneratorConfig struct {
	Workers   int    `env:"GENERATOR_WORKERS" envDefault:"0"` // 0 means GOMAXPROCS
	MaxCount  int    `env:"GENERATOR_MAX_COUNT" envDefault:"1000000"`
	MaxLength int    `env:"GENERATOR_MAX_LENGTH" envDefault:"64"`
	Seed      uint64 `env:"GENERATOR_SEED"`
	Seeded    bool   `env:"GENERATOR_SEEDED" envDefault:"false"`

	// ExclusionKeys name code files (local or S3) whose codes are never
	// issued again.
	ExclusionKeys []string `env:"GENERATOR_EXCLUSION_KEYS" envSeparator:","`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadCLI loads configuration for command-line tools. The server, database
// and auth sections are parsed but not validated.
func LoadCLI() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validateGeneration(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Enabled {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	return c.validateGeneration()
}

// validateGeneration checks the sections shared by the server and the CLI.
func (c *Config) validateGeneration() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Storage.LocalPath == "" {
		return fmt.Errorf("local storage path is required")
	}

	if c.Generator.Workers < 0 {
		return fmt.Errorf("generator workers cannot be negative")
	}

	if c.Generator.MaxCount < 1 {
		return fmt.Errorf("generator max count must be at least 1")
	}

	if c.Generator.MaxLength < 1 || c.Generator.MaxLength > coupon.MaxLength {
		return fmt.Errorf("generator max length must be between 1 and %d", coupon.MaxLength)
	}

	return nil
}

// Validate validates the database section.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
