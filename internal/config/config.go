package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Client    ClientConfig    `yaml:"client"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ClientConfig drives the client-side pieces: the MCP binary and the
// sync loop.
type ClientConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	DataDir      string        `yaml:"data_dir"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// TailscaleConfig optionally puts the server on a tailnet instead of a
// plain TCP listener.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
	AuthKey  string `yaml:"auth_key"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix GHOSTGYM_ and underscore-separated paths:
//
//	GHOSTGYM_SERVER_HOST, GHOSTGYM_SERVER_PORT,
//	GHOSTGYM_DB_HOST, GHOSTGYM_DB_PORT, GHOSTGYM_DB_NAME,
//	GHOSTGYM_DB_USER, GHOSTGYM_DB_PASSWORD, GHOSTGYM_DB_SSLMODE,
//	GHOSTGYM_CLIENT_BASE_URL, GHOSTGYM_CLIENT_TOKEN,
//	GHOSTGYM_CLIENT_DATA_DIR, GHOSTGYM_CLIENT_SYNC_INTERVAL,
//	GHOSTGYM_TS_HOSTNAME, GHOSTGYM_TS_AUTHKEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GHOSTGYM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GHOSTGYM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GHOSTGYM_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GHOSTGYM_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GHOSTGYM_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GHOSTGYM_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GHOSTGYM_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GHOSTGYM_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GHOSTGYM_CLIENT_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("GHOSTGYM_CLIENT_TOKEN"); v != "" {
		cfg.Client.Token = v
	}
	if v := os.Getenv("GHOSTGYM_CLIENT_DATA_DIR"); v != "" {
		cfg.Client.DataDir = v
	}
	if v := os.Getenv("GHOSTGYM_CLIENT_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Client.SyncInterval = d
		}
	}
	if v := os.Getenv("GHOSTGYM_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("GHOSTGYM_TS_AUTHKEY"); v != "" {
		cfg.Tailscale.AuthKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
