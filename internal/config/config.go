package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gymbook/internal/slots"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Booking scopes.
const (
	ScopeSelf  = "self"
	ScopeVenue = "venue"
)

// Booking sources.
const (
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
)

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type Config struct {
	Source struct {
		Kind       string `yaml:"kind"` // sqlite | http
		FetchLimit int    `yaml:"fetch_limit"`
	} `yaml:"source"`

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
		BaseURL         string  `yaml:"base_url"`
		APIKey          string  `yaml:"api_key"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
		RatePerSecond   float64 `yaml:"rate_per_second"`
		Burst           int     `yaml:"burst"`
	} `yaml:"api"`

	Account struct {
		Static     string `yaml:"static"`      // fixed member account, mainly for kiosks and tests
		SessionKey string `yaml:"session_key"` // redis key holding the persisted account
	} `yaml:"account"`

	Booking struct {
		Scope       string `yaml:"scope"` // self | venue
		Capacity    int    `yaml:"capacity"`
		Suggestions int    `yaml:"suggestions"`
		MinScore    int    `yaml:"min_score"`
		CatalogPath string `yaml:"catalog_path"`
	} `yaml:"booking"`

	Server struct {
		Port           int     `yaml:"port"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		Burst          int     `yaml:"burst"`
		RefreshSeconds int     `yaml:"refresh_seconds"`
	} `yaml:"server"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads the YAML config at path. A .env file next to the working directory is loaded first
// so ${ENV_VAR} placeholders in the YAML can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Source.Kind == SourceSQLite && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSQLite
	}
	if c.Source.FetchLimit <= 0 {
		c.Source.FetchLimit = 500
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/gymbook.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Booking.Capacity <= 0 {
		c.Booking.Capacity = slots.DefaultCapacity
	}
	if c.Booking.Suggestions <= 0 {
		c.Booking.Suggestions = 3
	}
	if c.Booking.MinScore <= 0 {
		c.Booking.MinScore = 8
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RatePerSecond <= 0 {
		c.Server.RatePerSecond = 10
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = 20
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Account.SessionKey == "" {
		c.Account.SessionKey = "gymbook:session:account"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Booking.Scope {
	case ScopeSelf, ScopeVenue:
	case "":
		errs = append(errs, errors.New("booking.scope is required (self or venue)"))
	default:
		errs = append(errs, fmt.Errorf("booking.scope: unknown value %q", c.Booking.Scope))
	}

	switch c.Source.Kind {
	case SourceSQLite:
	case SourceHTTP:
		if c.API.BaseURL == "" {
			errs = append(errs, errors.New("api.base_url is required for the http source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown value %q", c.Source.Kind))
	}

	if c.Source.FetchLimit < 200 {
		errs = append(errs, fmt.Errorf("source.fetch_limit must be at least 200, got %d", c.Source.FetchLimit))
	}

	return errors.Join(errs...)
}

// APITimeout returns the outbound HTTP timeout.
func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// APICacheTTL returns the redis cache TTL for list responses; zero disables caching.
func (c *Config) APICacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

// RefreshInterval returns how often the server refreshes its snapshot; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Server.RefreshSeconds) * time.Second
}
