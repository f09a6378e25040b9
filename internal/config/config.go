// Package config loads the brewery pager configuration from YAML and the
// environment with a predictable priority.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/brewery"
	"github.com/Sternrassler/brewery-pager/pkg/logging"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverRedis    = "redis"
)

// Config is the root configuration.
// Source priority:
//  1. explicit path passed to Load/MustLoad;
//  2. CONFIG_PATH;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
//
// A .env file (DOTENV_PATH, default ./.env) is loaded into the environment
// first when present; variables already set win.
type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	HTTP   HTTPConfig   `yaml:"http"`
	Log    LogConfig    `yaml:"log"`
	API    APIConfig    `yaml:"api"`
	Store  StoreConfig  `yaml:"store"`
	Redis  RedisConfig  `yaml:"redis"`
	Paging PagingConfig `yaml:"paging"`
	Warm   WarmConfig   `yaml:"warm"`
}

// HTTPConfig is the proxy listener.
type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// APIConfig configures the Open Brewery DB client.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" env:"API_BASE_URL" env-default:"https://api.openbrewerydb.org"`
	UserAgent      string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"brewery-pager/1.0 (+https://github.com/Sternrassler/brewery-pager)"`
	Timeout        time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
	MaxAttempts    int           `yaml:"max_attempts" env:"API_MAX_ATTEMPTS" env-default:"3"`
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"API_INITIAL_BACKOFF" env-default:"1s"`
	MaxBackoff     time.Duration `yaml:"max_backoff" env:"API_MAX_BACKOFF" env-default:"30s"`
}

// StoreConfig selects the persistent store.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"sqlite"`
	// Path is the sqlite file; ":memory:" keeps it in process.
	Path string `yaml:"path" env:"STORE_PATH" env-default:"brewery.db"`
	// DSN is required for postgres and mysql.
	DSN string `yaml:"dsn" env:"STORE_DSN"`
}

// RedisConfig is used by the redis store driver and to share rate limit state.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"brewery"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// PagingConfig bounds page sizes.
type PagingConfig struct {
	PageSize    int `yaml:"page_size" env:"PAGE_SIZE" env-default:"20"`
	MaxPageSize int `yaml:"max_page_size" env:"MAX_PAGE_SIZE" env-default:"200"`
}

// WarmConfig configures the cache warmer. An empty schedule disables periodic
// warming; empty types warm every known type.
type WarmConfig struct {
	Schedule    string        `yaml:"schedule" env:"WARM_SCHEDULE"`
	Types       []string      `yaml:"types" env:"WARM_TYPES" env-separator:","`
	Pages       int           `yaml:"pages" env:"WARM_PAGES" env-default:"3"`
	Concurrency int           `yaml:"concurrency" env:"WARM_CONCURRENCY" env-default:"4"`
	Timeout     time.Duration `yaml:"timeout" env:"WARM_TIMEOUT" env-default:"15s"`
}

// WarmTypes returns the configured types, or all known types.
func (w WarmConfig) WarmTypes() []string {
	if len(w.Types) == 0 {
		return brewery.Types()
	}
	return append([]string(nil), w.Types...)
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority: explicit path, CONFIG_PATH,
// ./local.yaml, environment.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config

	file := path
	if file == "" {
		file = os.Getenv("CONFIG_PATH")
	}
	if file == "" {
		if _, err := os.Stat("local.yaml"); err == nil {
			file = "local.yaml"
		}
	}

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", file)
		}
		if err := cleanenv.ReadConfig(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatConsole {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.API.UserAgent == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be >= 1")
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite")
		}
	case DriverPostgres, DriverMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for %s", c.Store.Driver)
		}
	case DriverRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("redis.addr is required for the redis store driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if c.Paging.MaxPageSize < 1 {
		return fmt.Errorf("paging.max_page_size must be > 0")
	}
	if c.Paging.PageSize < 1 || c.Paging.PageSize > c.Paging.MaxPageSize {
		return fmt.Errorf("paging.page_size must be between 1 and %d", c.Paging.MaxPageSize)
	}

	if c.Warm.Pages < 1 {
		return fmt.Errorf("warm.pages must be >= 1")
	}
	if c.Warm.Concurrency < 1 {
		return fmt.Errorf("warm.concurrency must be >= 1")
	}
	for _, t := range c.Warm.Types {
		if !brewery.IsKnownType(t) {
			return fmt.Errorf("warm.types: unknown brewery type %q", t)
		}
	}
	if c.Warm.Schedule != "" {
		if _, err := cron.ParseStandard(c.Warm.Schedule); err != nil {
			return fmt.Errorf("warm.schedule: %w", err)
		}
	}
	return nil
}
