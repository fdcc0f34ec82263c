// Package config loads chat server configuration from YAML, TOML, or
// JSON files, with environment variable overrides and validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server struct {
		Name    string `yaml:"name" toml:"name" json:"name" env:"CHATD_SERVER_NAME" validate:"required,hostname"`
		Network string `yaml:"network" toml:"network" json:"network" env:"CHATD_NETWORK" validate:"required"`
		Host    string `yaml:"host" toml:"host" json:"host" env:"CHATD_HOST"`
		Port    int    `yaml:"port" toml:"port" json:"port" env:"CHATD_PORT" validate:"gte=0,lte=65535"`
		MOTD    string `yaml:"motd" toml:"motd" json:"motd" env:"CHATD_MOTD"`
	} `yaml:"server" toml:"server" json:"server"`

	Limits struct {
		MaxClients          int           `yaml:"max_clients" toml:"max_clients" json:"max_clients" env:"CHATD_MAX_CLIENTS" validate:"gte=0"`
		RegistrationTimeout time.Duration `yaml:"registration_timeout" toml:"registration_timeout" json:"registration_timeout" env:"CHATD_REGISTRATION_TIMEOUT"`
	} `yaml:"limits" toml:"limits" json:"limits"`

	Admin struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"CHATD_ADMIN_ENABLED"`
		Host    string `yaml:"host" toml:"host" json:"host" env:"CHATD_ADMIN_HOST"`
		Port    int    `yaml:"port" toml:"port" json:"port" env:"CHATD_ADMIN_PORT" validate:"gte=0,lte=65535"`
	} `yaml:"admin" toml:"admin" json:"admin"`

	Debug bool `yaml:"debug" toml:"debug" json:"debug" env:"CHATD_DEBUG"`
}

// Default returns a configuration with usable defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Name = "chat.local"
	cfg.Server.Network = "ChatNet"
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 6667
	cfg.Server.MOTD = "Welcome to the chat server"
	cfg.Limits.RegistrationTimeout = 60 * time.Second
	cfg.Admin.Host = "127.0.0.1"
	cfg.Admin.Port = 8080
	return cfg
}

// Load reads configuration from a file, chosen by extension, then
// applies environment variable overrides and validates the result.
// An empty path yields the defaults (still subject to env overrides).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, cfg)
		case ".toml":
			err = toml.Unmarshal(data, cfg)
		case ".json":
			err = json.Unmarshal(data, cfg)
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and value sanity.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Limits.RegistrationTimeout <= 0 {
		c.Limits.RegistrationTimeout = 60 * time.Second
	}
	return nil
}

// ListenAddress returns the chat listener bind address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// AdminAddress returns the admin HTTP bind address.
func (c *Config) AdminAddress() string {
	return fmt.Sprintf("%s:%d", c.Admin.Host, c.Admin.Port)
}
