// Package config loads and validates the YAML file that drives a
// tradepulse process: which exchange to connect to, which symbols to
// track, where to persist durable logs, and where to serve the
// observability API.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config is the root of the YAML configuration file.
type Config struct {
	Name     string         `yaml:"name"`
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Storage  StorageConfig  `yaml:"storage"`
	DataDir  string         `yaml:"data_dir"`
}

// ServerConfig configures the observability HTTP/WebSocket surface.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExchangeConfig configures the upstream trade feed.
type ExchangeConfig struct {
	WebsocketURL string   `yaml:"websocket_url"`
	Symbols      []string `yaml:"symbols"`
}

// StorageConfig selects and configures the durable log sink backend.
type StorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

// -----------------------------------------------------------------------------

// Load reads and validates a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic sanity checks on a loaded configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.Port <= 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Server.Port)
	}

	if c.Exchange.WebsocketURL == "" {
		return fmt.Errorf("exchange websocket_url cannot be empty")
	}
	if len(c.Exchange.Symbols) == 0 {
		return fmt.Errorf("at least one exchange symbol must be configured")
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("db_connection_string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported db_type '%s' (want sqlite or postgres)", c.Storage.DBType)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the configuration back to a YAML file at path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", path, err)
	}
	return nil
}
