package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, defaultHost(), cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Security.RateLimits.PerMinute)
	assert.Equal(t, 5000, cfg.Security.RateLimits.PerHour)
	assert.Equal(t, 5, cfg.Security.Reputation.SuspicionThreshold)
	assert.Equal(t, 100, cfg.Monitor.HistorySize)
	assert.Equal(t, 0.9, cfg.Monitor.Health.MemoryErrorRatio)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Health.ResponseTimeWarning)
	assert.Empty(t, cfg.Security.RateLimits.BypassCIDRs, "bypass must be opt-in")
	assert.Empty(t, cfg.Security.RateLimits.BypassPaths, "bypass must be opt-in")

	require.NoError(t, cfg.Finalise())
	assert.Equal(t, int64(1024*1024), cfg.Security.MaxBodySizeBytes)
	assert.Len(t, cfg.Security.TrustedProxyCIDRsParsed, 4)
}

func TestLoad_WithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Sink.Type)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfigFile, "")
	t.Setenv("WARDEN_SERVER_PORT", "8080")
	t.Setenv("WARDEN_SERVER_HOST", "0.0.0.0")
	t.Setenv("WARDEN_SECURITY_RATE_LIMITS_PER_MINUTE", "60")
	t.Setenv("WARDEN_MONITOR_INTERVAL", "15s")
	t.Setenv("WARDEN_LOGGING_LEVEL", "debug")
	t.Setenv("WARDEN_SECURITY_MAX_BODY_SIZE", "2MB")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 60, cfg.Security.RateLimits.PerMinute)
	assert.Equal(t, 15*time.Second, cfg.Monitor.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(2*1024*1024), cfg.Security.MaxBodySizeBytes)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warden.yaml")
	content := `
server:
  port: 9000
security:
  trust_proxy_headers: true
  trusted_proxy_cidrs: ["10.1.0.0/16"]
  reputation:
    suspicion_threshold: 3
monitor:
  history_size: 10
  memory_limit: 512MB
sink:
  type: file
  file:
    path: /tmp/warden-events.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Security.TrustProxyHeaders)
	assert.Len(t, cfg.Security.TrustedProxyCIDRsParsed, 1)
	assert.Equal(t, 3, cfg.Security.Reputation.SuspicionThreshold)
	assert.Equal(t, 10, cfg.Monitor.HistorySize)
	assert.Equal(t, int64(512*1024*1024), cfg.Monitor.MemoryLimitBytes)
	assert.Equal(t, "file", cfg.Sink.Type)

	// untouched keys keep their defaults
	assert.Equal(t, 300, cfg.Security.RateLimits.PerMinute)
	assert.Equal(t, 10, cfg.Security.Reputation.RateLimitThreshold)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestFinalise_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"bad proxy cidr", func(c *Config) { c.Security.TrustedProxyCIDRs = []string{"10.0.0.0/99"} }, "security.trusted_proxy_cidrs"},
		{"bad bypass cidr", func(c *Config) { c.Security.RateLimits.BypassCIDRs = []string{"nope"} }, "security.rate_limits.bypass_cidrs"},
		{"bad body size", func(c *Config) { c.Security.MaxBodySize = "lots" }, "security.max_body_size"},
		{"bad memory limit", func(c *Config) { c.Monitor.MemoryLimit = "huge" }, "monitor.memory_limit"},
		{"unknown sink", func(c *Config) { c.Sink.Type = "kafka" }, "Config.Sink.Type"},
		{"unknown persistence", func(c *Config) { c.Persistence.Driver = "mysql" }, "Config.Persistence.Driver"},
		{"zero ceiling", func(c *Config) { c.Security.RateLimits.PerMinute = 0 }, "Config.Security.RateLimits.PerMinute"},
		{"zero history", func(c *Config) { c.Monitor.HistorySize = 0 }, "Config.Monitor.HistorySize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Finalise()
			require.Error(t, err)

			var cve *domain.ConfigValidationError
			require.True(t, errors.As(err, &cve))
			assert.Equal(t, tt.field, cve.Field)
		})
	}
}
