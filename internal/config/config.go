package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/subtech/mina-dashboard/internal/ratelimit"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/default.yaml"

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	VisibilityAlways  = "always"
	VisibilityViewers = "viewers"
)

type Config struct {
	API struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Server struct {
		Listen         string        `yaml:"listen"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Polling struct {
		Interval   time.Duration `yaml:"interval"`
		PageLimit  int           `yaml:"page_limit"`
		Visibility string        `yaml:"visibility"`
	} `yaml:"polling"`

	Session struct {
		Store     string `yaml:"store"`
		TokenFile string `yaml:"token_file"`
		Redis     struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"session"`

	Events struct {
		Enabled         bool   `yaml:"enabled"`
		NatsURL         string `yaml:"nats_url"`
		Subject         string `yaml:"subject"`
		PublishRetryMax int    `yaml:"publish_retry_max"`
	} `yaml:"events"`

	Archive struct {
		Enabled        bool          `yaml:"enabled"`
		DSN            string        `yaml:"dsn"`
		SpoolDir       string        `yaml:"spool_dir"`
		SpoolMaxMB     int64         `yaml:"spool_max_mb"`
		ReplayInterval time.Duration `yaml:"replay_interval"`
	} `yaml:"archive"`

	RateLimit struct {
		Enabled bool                  `yaml:"enabled"`
		Login   ratelimit.LimitConfig `yaml:"login"`
	} `yaml:"rate_limit"`

	Display struct {
		TimeZone string `yaml:"time_zone"`
	} `yaml:"display"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.API.URL = "http://localhost:3001"
	c.API.Timeout = 15 * time.Second
	c.Server.Listen = ":8080"
	c.Server.RequestTimeout = 30 * time.Second
	c.Polling.Interval = 30 * time.Second
	c.Polling.PageLimit = 100
	c.Polling.Visibility = VisibilityViewers
	c.Session.Store = StoreMemory
	c.Session.Redis.Prefix = "mina-dashboard"
	c.Events.Subject = "mina.tags.snapshot"
	c.Events.PublishRetryMax = 3
	c.Archive.SpoolMaxMB = 256
	c.Archive.ReplayInterval = 30 * time.Second
	c.RateLimit.Login = ratelimit.LimitConfig{Rate: 5, Window: 15 * time.Minute}
	c.Display.TimeZone = "America/Santiago"
	return c
}

// Load reads, in order: defaults, the YAML file at path (DASHBOARD_CONFIG
// or DefaultPath when empty), .env files, then environment overrides.
// A missing YAML file or .env file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if path == "" {
		path = os.Getenv("DASHBOARD_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[WARN] Config: %s not found, using defaults", path)
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Polling.Interval = d
		} else {
			log.Printf("[WARN] Config: ignoring POLL_INTERVAL=%q: %v", v, err)
		}
	}
	if v := os.Getenv("VISIBILITY_MODE"); v != "" {
		c.Polling.Visibility = v
	}
	if v := os.Getenv("SESSION_STORE"); v != "" {
		c.Session.Store = v
	}
	if v := os.Getenv("TOKEN_FILE"); v != "" {
		c.Session.TokenFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Session.Redis.Password = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Events.NatsURL = v
		c.Events.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_DSN"); v != "" {
		c.Archive.DSN = v
		c.Archive.Enabled = true
	}
	if v := os.Getenv("DASHBOARD_TZ"); v != "" {
		c.Display.TimeZone = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.API.URL == "" {
		errs = append(errs, errors.New("api.url is required"))
	}
	if c.Polling.Interval <= 0 {
		errs = append(errs, errors.New("polling.interval must be positive"))
	}
	switch c.Polling.Visibility {
	case VisibilityAlways, VisibilityViewers:
	default:
		errs = append(errs, fmt.Errorf("polling.visibility %q: want %s or %s", c.Polling.Visibility, VisibilityAlways, VisibilityViewers))
	}
	switch c.Session.Store {
	case StoreMemory:
	case StoreFile:
		if c.Session.TokenFile == "" {
			errs = append(errs, errors.New("session.token_file is required for the file store"))
		}
	case StoreRedis:
		if c.Session.Redis.Addr == "" {
			errs = append(errs, errors.New("session.redis.addr is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store %q: want memory, file or redis", c.Session.Store))
	}
	if c.Archive.Enabled && c.Archive.DSN == "" {
		errs = append(errs, errors.New("archive.dsn is required when the archive is enabled"))
	}
	if c.RateLimit.Enabled && c.Session.Redis.Addr == "" {
		errs = append(errs, errors.New("rate_limit needs session.redis.addr"))
	}
	if _, err := time.LoadLocation(c.Display.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("display.time_zone: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the display time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
