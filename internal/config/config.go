// Package config loads searchd configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hideoutdb/searchd/internal/errors"
)

// Config represents the complete searchd configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	JWT      JWTConfig      `yaml:"jwt"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Search   SearchConfig   `yaml:"search"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RateLimit is the sustained request rate per second allowed per
	// process; Burst is the momentary excess. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// JWTConfig configures token issuance and validation.
type JWTConfig struct {
	Secret   string        `yaml:"secret"`
	Audience []string      `yaml:"audience"`
	TTL      time.Duration `yaml:"ttl"`
}

// UpstreamConfig configures the catalog API client.
type UpstreamConfig struct {
	Origin  string        `yaml:"origin"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig configures the index engine and the freshness controller.
type SearchConfig struct {
	// UpdateInterval is how often the controller polls the upstream
	// catalog for a newer version marker.
	UpdateInterval time.Duration `yaml:"update_interval"`

	// Language selects the analyzer language (english by default).
	Language string `yaml:"language"`

	// IndexDir is the on-disk index location. Empty means in-memory.
	IndexDir string `yaml:"index_dir"`

	// MaxLimit caps the per-request result limit.
	MaxLimit int `yaml:"max_limit"`

	// CacheSize is the number of search responses kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit:    50,
			Burst:        100,
		},
		JWT: JWTConfig{
			TTL: 15 * time.Minute,
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			UpdateInterval: 10 * time.Minute,
			Language:       "english",
			MaxLimit:       100,
			CacheSize:      256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads configuration from path (optional), applies SEARCHD_*
// environment overrides, and validates the result. An empty path skips the
// file and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return errors.Wrap(errors.ErrCodeConfigInvalid, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid YAML in %s: %v", path, err), err)
	}

	return nil
}

// applyEnvOverrides applies SEARCHD_* environment variable overrides.
// Environment always wins over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHD_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SEARCHD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SEARCHD_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("SEARCHD_JWT_AUDIENCE"); v != "" {
		c.JWT.Audience = splitAndTrim(v)
	}
	if v := os.Getenv("SEARCHD_UPSTREAM_ORIGIN"); v != "" {
		c.Upstream.Origin = v
	}
	if v := os.Getenv("SEARCHD_UPSTREAM_TOKEN"); v != "" {
		c.Upstream.Token = v
	}
	if v := os.Getenv("SEARCHD_UPDATE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Search.UpdateInterval = d
		}
	}
	if v := os.Getenv("SEARCHD_INDEX_DIR"); v != "" {
		c.Search.IndexDir = v
	}
	if v := os.Getenv("SEARCHD_LANGUAGE"); v != "" {
		c.Search.Language = v
	}
	if v := os.Getenv("SEARCHD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that required values are present and ranges are sane.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.ConfigError("jwt.secret is required (SEARCHD_JWT_SECRET)", nil)
	}
	if c.Upstream.Origin == "" {
		return errors.ConfigError("upstream.origin is required (SEARCHD_UPSTREAM_ORIGIN)", nil)
	}
	if c.Upstream.Token == "" {
		return errors.ConfigError("upstream.token is required (SEARCHD_UPSTREAM_TOKEN)", nil)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.ConfigError(fmt.Sprintf("server.port out of range: %d", c.Server.Port), nil)
	}
	if c.Search.UpdateInterval < time.Second {
		return errors.ConfigError(fmt.Sprintf("search.update_interval too small: %s", c.Search.UpdateInterval), nil)
	}
	if c.Search.MaxLimit < 1 {
		return errors.ConfigError(fmt.Sprintf("search.max_limit must be positive: %d", c.Search.MaxLimit), nil)
	}
	return nil
}

// ListenAddr returns the host:port pair the server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
