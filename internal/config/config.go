package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	AI        AIConfig        `yaml:"ai"`
	Session   SessionConfig   `yaml:"session"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the key-value backend. Path is used by sqlite,
// Database by postgres.
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig holds the optional API key. When empty, API key checks are
// skipped and identity alone scopes access.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type AIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig sets what starting a workout does while another is in
// progress: "replace" or "reject".
type SessionConfig struct {
	Policy string `yaml:"policy"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LogConfig controls the logger. When File is set, logs also go to a
// rotated file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
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

// SlogLevel maps Level to a slog.Level. Unknown values are rejected by
// validate, so the fallback is never reached for a loaded config.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Default returns the configuration used for unset fields.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage: StorageConfig{Driver: "sqlite", Path: "data/kinetic.db"},
		Session: SessionConfig{Policy: "replace"},
		Tailscale: TailscaleConfig{
			Hostname: "kinetic",
			StateDir: "data/tsnet",
		},
		Log: LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 28},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix KINETIC_ and underscore-separated paths:
//
//	KINETIC_SERVER_HOST, KINETIC_SERVER_PORT,
//	KINETIC_STORAGE_DRIVER, KINETIC_STORAGE_PATH,
//	KINETIC_DB_HOST, KINETIC_DB_PORT, KINETIC_DB_NAME,
//	KINETIC_DB_USER, KINETIC_DB_PASSWORD, KINETIC_DB_SSLMODE,
//	KINETIC_AUTH_API_KEY,
//	KINETIC_AI_BASE_URL, KINETIC_AI_API_KEY, KINETIC_AI_MODEL,
//	KINETIC_SESSION_POLICY,
//	KINETIC_TAILSCALE_ENABLED, KINETIC_TAILSCALE_HOSTNAME,
//	KINETIC_LOG_LEVEL, KINETIC_LOG_FILE
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("KINETIC_SERVER_HOST", &cfg.Server.Host)
	setInt("KINETIC_SERVER_PORT", &cfg.Server.Port)
	setString("KINETIC_STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("KINETIC_STORAGE_PATH", &cfg.Storage.Path)
	setString("KINETIC_DB_HOST", &cfg.Storage.Database.Host)
	setInt("KINETIC_DB_PORT", &cfg.Storage.Database.Port)
	setString("KINETIC_DB_NAME", &cfg.Storage.Database.Name)
	setString("KINETIC_DB_USER", &cfg.Storage.Database.User)
	setString("KINETIC_DB_PASSWORD", &cfg.Storage.Database.Password)
	setString("KINETIC_DB_SSLMODE", &cfg.Storage.Database.SSLMode)
	setString("KINETIC_AUTH_API_KEY", &cfg.Auth.APIKey)
	setString("KINETIC_AI_BASE_URL", &cfg.AI.BaseURL)
	setString("KINETIC_AI_API_KEY", &cfg.AI.APIKey)
	setString("KINETIC_AI_MODEL", &cfg.AI.Model)
	setString("KINETIC_SESSION_POLICY", &cfg.Session.Policy)
	setString("KINETIC_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	setString("KINETIC_LOG_LEVEL", &cfg.Log.Level)
	setString("KINETIC_LOG_FILE", &cfg.Log.File)

	if v := os.Getenv("KINETIC_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		db := c.Storage.Database
		if db.Host == "" {
			return fmt.Errorf("storage.database.host is required")
		}
		if db.Port == 0 {
			return fmt.Errorf("storage.database.port is required")
		}
		if db.Name == "" {
			return fmt.Errorf("storage.database.name is required")
		}
		if db.User == "" {
			return fmt.Errorf("storage.database.user is required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be sqlite, postgres or memory, got %q", c.Storage.Driver)
	}

	switch c.Session.Policy {
	case "replace", "reject":
	default:
		return fmt.Errorf("session.policy must be replace or reject, got %q", c.Session.Policy)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
