package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"DASHBOARD_CONFIG", "API_URL", "LISTEN_ADDR", "ALLOWED_ORIGINS", "POLL_INTERVAL",
		"VISIBILITY_MODE", "SESSION_STORE", "TOKEN_FILE", "REDIS_ADDR", "REDIS_PASSWORD",
		"NATS_URL", "ARCHIVE_DSN", "DASHBOARD_TZ",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	env := writeFile(t, ".env", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), env)

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Polling.Interval)
	assert.Equal(t, "America/Santiago", cfg.Location().String())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	env := writeFile(t, ".env", "")
	path := writeFile(t, "dashboard.yaml", `
api:
  url: "https://api.subtech.cl"
polling:
  interval: 10s
  visibility: always
session:
  store: file
  token_file: /tmp/subtech_token
rate_limit:
  login:
    rate: 3
    window: 1m
`)

	cfg, err := Load(path, env)

	require.NoError(t, err)
	assert.Equal(t, "https://api.subtech.cl", cfg.API.URL)
	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, VisibilityAlways, cfg.Polling.Visibility)
	assert.Equal(t, StoreFile, cfg.Session.Store)
	assert.Equal(t, 3, cfg.RateLimit.Login.Rate)
	assert.Equal(t, time.Minute, cfg.RateLimit.Login.Window)
	// Untouched keys keep their defaults.
	assert.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	env := writeFile(t, ".env", "")
	t.Setenv("API_URL", "http://backend:3001")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("ARCHIVE_DSN", "postgres://mina@db/mina?sslmode=disable")
	t.Setenv("ALLOWED_ORIGINS", "http://a.cl,http://b.cl")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), env)

	require.NoError(t, err)
	assert.Equal(t, "http://backend:3001", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.Polling.Interval)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.True(t, cfg.Events.Enabled)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, []string{"http://a.cl", "http://b.cl"}, cfg.Server.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("LISTEN_ADDR")
	t.Cleanup(func() { os.Unsetenv("LISTEN_ADDR") })
	env := writeFile(t, ".env", "LISTEN_ADDR=:9090\n")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), env)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Listen)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	env := writeFile(t, ".env", "")
	path := writeFile(t, "bad.yaml", "polling: [unclosed")

	_, err := Load(path, env)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"file store needs path", func(c *Config) { c.Session.Store = StoreFile }, "session.token_file"},
		{"redis store needs addr", func(c *Config) { c.Session.Store = StoreRedis }, "session.redis.addr"},
		{"unknown store", func(c *Config) { c.Session.Store = "etcd" }, "session.store"},
		{"bad visibility", func(c *Config) { c.Polling.Visibility = "sometimes" }, "polling.visibility"},
		{"zero interval", func(c *Config) { c.Polling.Interval = 0 }, "polling.interval"},
		{"archive without dsn", func(c *Config) { c.Archive.Enabled = true }, "archive.dsn"},
		{"rate limit without redis", func(c *Config) { c.RateLimit.Enabled = true }, "rate_limit"},
		{"bad time zone", func(c *Config) { c.Display.TimeZone = "Mars/Olympus" }, "display.time_zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}
