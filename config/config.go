package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// StorageConfig holds uploaded-workbook storage configuration
type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
	// UploadKey names where the latest supplier workbook is stored. Its
	// extension is replaced by the upload's real one so a CSV stays a
	// .csv on disk; uploads always supersede the previous file so a
	// stale workbook can never be reconciled by accident.
	UploadKey string `mapstructure:"upload_key"`
}

// CatalogConfig holds catalog store configuration
type CatalogConfig struct {
	// Store selects the backend: "document" (single JSON file) or "postgres"
	Store string `mapstructure:"store"`
	// DocumentPath is the catalog JSON file used by the document store
	DocumentPath string `mapstructure:"document_path"`
}

// ReconcileConfig holds reconciliation engine configuration
type ReconcileConfig struct {
	// Template names the workbook layout to use by default
	Template string `mapstructure:"template"`
	// DefaultDiscount is used when neither an override nor the sheet
	// header cell yields a valid discount fraction
	DefaultDiscount float64 `mapstructure:"default_discount"`
	// MaxDiscount bounds accepted discount fractions; anything above is
	// treated as absent
	MaxDiscount float64 `mapstructure:"max_discount"`
	// ExchangeRate converts USD list prices to Bs when the sheet carries
	// no local-currency column
	ExchangeRate float64 `mapstructure:"exchange_rate"`
	// MarginTiers is the cost-bracket margin schedule, ordered by
	// ascending cost ceiling. The final tier must have no ceiling.
	MarginTiers []MarginTier `mapstructure:"margin_tiers"`
	// MaxRowErrors caps how many rejected rows are echoed back in the
	// run result (all are still counted)
	MaxRowErrors int `mapstructure:"max_row_errors"`
	// RunRetentionDays controls how long completed run records are kept
	RunRetentionDays int `mapstructure:"run_retention_days"`
}

// MarginTier maps a cost ceiling (in Bs) to a margin fraction. A nil
// ceiling means "everything above the previous tier".
type MarginTier struct {
	UpTo   *float64 `mapstructure:"up_to" json:"upTo,omitempty"`
	Margin float64  `mapstructure:"margin" json:"margin"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file
	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("CATALOG_SERVICE")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.Reconcile.MarginTiers) == 0 {
		cfg.Reconcile.MarginTiers = DefaultMarginTiers()
	}

	globalConfig = &cfg
	return &cfg, nil
}

// DefaultMarginTiers returns the standard margin schedule: higher margin on
// cheap items, tapering off as unit cost grows.
func DefaultMarginTiers() []MarginTier {
	ceil := func(f float64) *float64 { return &f }
	return []MarginTier{
		{UpTo: ceil(30), Margin: 0.45},
		{UpTo: ceil(80), Margin: 0.35},
		{UpTo: ceil(200), Margin: 0.28},
		{UpTo: nil, Margin: 0.20},
	}
}

// loadEnvFile loads a .env file by parsing KEY=VALUE lines and setting them
// as environment variables
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Storage and catalog
	v.BindEnv("storage.base_path", "STORAGE_PATH")
	v.BindEnv("catalog.store", "CATALOG_STORE")
	v.BindEnv("catalog.document_path", "CATALOG_DOCUMENT_PATH")

	// Reconcile
	v.BindEnv("reconcile.template", "RECONCILE_TEMPLATE")
	v.BindEnv("reconcile.exchange_rate", "RECONCILE_EXCHANGE_RATE")
	v.BindEnv("reconcile.default_discount", "RECONCILE_DEFAULT_DISCOUNT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Storage defaults
	v.SetDefault("storage.base_path", "./data")
	v.SetDefault("storage.upload_key", "uploads/proveedor.xlsm")

	// Catalog defaults
	v.SetDefault("catalog.store", "document")
	v.SetDefault("catalog.document_path", "./data/productos_precios.json")

	// Reconcile defaults
	v.SetDefault("reconcile.template", "truper-v1")
	v.SetDefault("reconcile.default_discount", 0.20)
	v.SetDefault("reconcile.max_discount", 0.95)
	v.SetDefault("reconcile.exchange_rate", 6.96)
	v.SetDefault("reconcile.max_row_errors", 50)
	v.SetDefault("reconcile.run_retention_days", 90)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
