package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Lock backends for booking.lock_backend.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"logging"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	API struct {
		Port           int      `yaml:"port"`
		APIKeys        []string `yaml:"api_keys"`
		RateLimitRPS   float64  `yaml:"rate_limit_rps"`
		RateLimitBurst int      `yaml:"rate_limit_burst"`
	} `yaml:"api"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		LockBackend             string `yaml:"lock_backend"`
		AdmissionTimeoutSeconds int    `yaml:"admission_timeout_seconds"`
		LockTTLSeconds          int    `yaml:"lock_ttl_seconds"`
		LockRetryMillis         int    `yaml:"lock_retry_millis"`
	} `yaml:"booking"`

	Catalog struct {
		Path                  string `yaml:"path"`
		ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
	} `yaml:"catalog"`

	Audit struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"audit"`

	Admins []int64 `yaml:"admins"`
}

// BackupConfig controls periodic database backups.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML config at path. A .env file next to the working directory is loaded first
// so that ${ENV_VAR} placeholders can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Database.Path == "" {
		c.Database.Path = "data/wypozyczalnia.db"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/catalog.yaml"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "reports"
	}

	switch c.Booking.LockBackend {
	case "":
		c.Booking.LockBackend = LockBackendLocal
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("booking.lock_backend is redis but redis.address is empty")
		}
	default:
		return fmt.Errorf("unknown booking.lock_backend %q", c.Booking.LockBackend)
	}
	return nil
}

func (c *Config) AdmissionTimeout() time.Duration {
	if c.Booking.AdmissionTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Booking.AdmissionTimeoutSeconds) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	if c.Booking.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Booking.LockTTLSeconds) * time.Second
}

func (c *Config) LockRetryInterval() time.Duration {
	if c.Booking.LockRetryMillis <= 0 {
		return 25 * time.Millisecond
	}
	return time.Duration(c.Booking.LockRetryMillis) * time.Millisecond
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadIntervalSeconds) * time.Second
}

// RateLimit returns the per-key request rate and burst of the API.
func (c *Config) RateLimit() (float64, int) {
	rps, burst := c.API.RateLimitRPS, c.API.RateLimitBurst
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return rps, burst
}

// LoadCatalog loads the catalog file referenced by the config.
func (c *Config) LoadCatalog() (*CatalogConfig, error) {
	return LoadCatalogConfig(c.Catalog.Path)
}
