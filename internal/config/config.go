// Package config loads EventHub client settings.
//
// Settings come from an optional YAML file (--config flag or EVENTHUB_CONFIG)
// and are then overridden by EVENTHUB_* environment variables. With neither
// present the defaults target a backend on localhost:8080.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session storage backends.
const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

// Config is the client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the backend connection.
type APIConfig struct {
	// BaseURL is the API root, including the /api prefix.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every backend call.
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig configures where the session entries are persisted.
type SessionConfig struct {
	// Backend is "file" or "redis".
	Backend string `yaml:"backend"`

	// StateDir holds the session files when Backend is "file".
	StateDir string `yaml:"state_dir"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Backend:  SessionBackendFile,
			StateDir: defaultStateDir(),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "eventhub:",
			},
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads the file at path (if non-empty, or EVENTHUB_CONFIG otherwise),
// layers environment overrides on top and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("EVENTHUB_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("EVENTHUB_API_URL", c.API.BaseURL)
	if v := os.Getenv("EVENTHUB_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("EVENTHUB_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	c.Session.Backend = getEnv("EVENTHUB_SESSION_BACKEND", c.Session.Backend)
	c.Session.StateDir = getEnv("EVENTHUB_STATE_DIR", c.Session.StateDir)
	c.Session.Redis.Addr = getEnv("EVENTHUB_REDIS_ADDR", c.Session.Redis.Addr)
	c.Session.Redis.Password = getEnv("EVENTHUB_REDIS_PASSWORD", c.Session.Redis.Password)
	c.Session.Redis.Prefix = getEnv("EVENTHUB_REDIS_PREFIX", c.Session.Redis.Prefix)
	c.Log.Level = getEnv("EVENTHUB_LOG_LEVEL", c.Log.Level)
	return nil
}

// Validate checks the configuration for values no component can work with.
func (c Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	} else if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	switch c.Session.Backend {
	case SessionBackendFile:
		if c.Session.StateDir == "" {
			errs = append(errs, errors.New("session.state_dir is required for the file backend"))
		}
	case SessionBackendRedis:
		if c.Session.Redis.Addr == "" {
			errs = append(errs, errors.New("session.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend %q must be %q or %q",
			c.Session.Backend, SessionBackendFile, SessionBackendRedis))
	}
	return errors.Join(errs...)
}

// defaultStateDir follows the XDG layout: $XDG_CONFIG_HOME/eventhub, or
// ~/.config/eventhub.
func defaultStateDir() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "eventhub")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "eventhub")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
