package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".orderops"
	DefaultConfigFile = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog"`
	Relay     RelayConfig     `yaml:"relay"`
	Extract   ExtractConfig   `yaml:"extract"`
	Output    OutputConfig    `yaml:"output"`
	Database  DatabaseConfig  `yaml:"database,omitempty"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
}

// CatalogConfig holds catalog store settings
type CatalogConfig struct {
	File string `yaml:"file"` // Path to the JSON catalog file
}

// RelayConfig holds image-fetch relay settings
type RelayConfig struct {
	Endpoint string `yaml:"endpoint"` // Relay URL used as load fallback; empty disables the relay tier
	Listen   string `yaml:"listen"`   // Address for `orderops relay serve`
}

// ExtractConfig holds AI extraction gateway settings
type ExtractConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for the API key
	Model     string `yaml:"model"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir string `yaml:"dir"` // Directory for composed order images
}

// DatabaseConfig holds database backend settings
type DatabaseConfig struct {
	UseDB    bool           `yaml:"use_db"` // Enable the PostgreSQL catalog backend
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	SSLMode     string `yaml:"ssl_mode"`
}

// AnalyticsConfig holds ClickHouse analytics settings
type AnalyticsConfig struct {
	Enabled    bool             `yaml:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// ClickHouseConfig holds ClickHouse settings
type ClickHouseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
	Secure      bool   `yaml:"secure"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			File: "catalog.json",
		},
		Relay: RelayConfig{
			Listen: ":8787",
		},
		Extract: ExtractConfig{
			Endpoint:  "https://ai.gateway.lovable.dev/v1/chat/completions",
			APIKeyEnv: "ORDEROPS_AI_API_KEY",
			Model:     "google/gemini-2.5-flash",
		},
		Output: OutputConfig{
			Dir: "./output",
		},
		Database: DatabaseConfig{
			UseDB: false, // JSON catalog by default
			Postgres: PostgresConfig{
				Host:        "localhost",
				Port:        5432,
				Database:    "orderops",
				UsernameEnv: "POSTGRES_USER",
				PasswordEnv: "POSTGRES_PASSWORD",
				SSLMode:     "prefer",
			},
		},
		Analytics: AnalyticsConfig{
			Enabled: false,
			ClickHouse: ClickHouseConfig{
				Host:        "localhost",
				Port:        9000,
				Database:    "orderops",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
			},
		},
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the configuration from the config file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// Save writes the configuration to the config file
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(config, configPath)
}

// SaveTo writes the configuration to a specific path
func SaveTo(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Init creates a new config file with defaults
func Init() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}
	return Save(DefaultConfig())
}

// Exists checks if the config file exists
func Exists() bool {
	configPath, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in missing values with defaults
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Catalog.File == "" {
		config.Catalog.File = defaults.Catalog.File
	}
	if config.Relay.Listen == "" {
		config.Relay.Listen = defaults.Relay.Listen
	}
	if config.Extract.Endpoint == "" {
		config.Extract.Endpoint = defaults.Extract.Endpoint
	}
	if config.Extract.APIKeyEnv == "" {
		config.Extract.APIKeyEnv = defaults.Extract.APIKeyEnv
	}
	if config.Extract.Model == "" {
		config.Extract.Model = defaults.Extract.Model
	}
	if config.Output.Dir == "" {
		config.Output.Dir = defaults.Output.Dir
	}
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres = defaults.Database.Postgres
	}
	if config.Analytics.ClickHouse.Port == 0 {
		config.Analytics.ClickHouse = defaults.Analytics.ClickHouse
	}
}

// Set updates a specific config value
func Set(key, value string) error {
	config, err := Load()
	if err != nil {
		return err
	}

	switch key {
	case "catalog.file":
		config.Catalog.File = value
	case "relay.endpoint":
		config.Relay.Endpoint = value
	case "relay.listen":
		config.Relay.Listen = value
	case "extract.endpoint":
		config.Extract.Endpoint = value
	case "extract.api_key_env":
		config.Extract.APIKeyEnv = value
	case "extract.model":
		config.Extract.Model = value
	case "output.dir":
		config.Output.Dir = value
	case "database.use_db":
		config.Database.UseDB = value == "true"
	case "database.postgres.host":
		config.Database.Postgres.Host = value
	case "database.postgres.database":
		config.Database.Postgres.Database = value
	case "analytics.enabled":
		config.Analytics.Enabled = value == "true"
	case "analytics.clickhouse.host":
		config.Analytics.ClickHouse.Host = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return Save(config)
}

// Get retrieves a specific config value
func Get(key string) (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}

	switch key {
	case "catalog.file":
		return config.Catalog.File, nil
	case "relay.endpoint":
		return config.Relay.Endpoint, nil
	case "relay.listen":
		return config.Relay.Listen, nil
	case "extract.endpoint":
		return config.Extract.Endpoint, nil
	case "extract.api_key_env":
		return config.Extract.APIKeyEnv, nil
	case "extract.model":
		return config.Extract.Model, nil
	case "output.dir":
		return config.Output.Dir, nil
	case "database.use_db":
		if config.Database.UseDB {
			return "true", nil
		}
		return "false", nil
	case "database.postgres.host":
		return config.Database.Postgres.Host, nil
	case "database.postgres.database":
		return config.Database.Postgres.Database, nil
	case "analytics.enabled":
		if config.Analytics.Enabled {
			return "true", nil
		}
		return "false", nil
	case "analytics.clickhouse.host":
		return config.Analytics.ClickHouse.Host, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}
