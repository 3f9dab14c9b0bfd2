package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/util"
	"github.com/thushan/warden/pkg/container"
)

const (
	DefaultPort      = 19880
	DefaultHost      = "localhost"
	DefaultEnvPrefix = "WARDEN"
	EnvConfigFile    = "WARDEN_CONFIG_FILE"
)

// defaultHost listens on every interface inside a container, where
// localhost would be unreachable from the published port
func defaultHost() string {
	if container.IsContainerised() {
		return "0.0.0.0"
	}
	return DefaultHost
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            defaultHost(),
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			TrustProxyHeaders: false,
			TrustedProxyCIDRs: []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
			MaxBodySize:       "1MB",
			WatchRules:        true,
			RateLimits: RateLimitConfig{
				PerMinute:       300,
				PerHour:         5000,
				BurstSize:       50,
				CleanupInterval: 5 * time.Minute,
			},
			Reputation: ReputationConfig{
				SuspicionThreshold: 5,
				RateLimitThreshold: 10,
			},
			Headers: HeadersConfig{
				Enabled:               true,
				ContentSecurityPolicy: "default-src 'self'",
			},
		},
		Monitor: MonitorConfig{
			Interval:     30 * time.Second,
			HistorySize:  100,
			ProbeTimeout: 2 * time.Second,
			ErrorWindow:  5 * time.Minute,
			Health:       domain.DefaultHealthThresholds(),
		},
		EventLog: EventLogConfig{
			Capacity:      1000,
			Retention:     24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Persistence: PersistenceConfig{
			Driver: "none",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Sink: SinkConfig{
			Type:      "none",
			Timeout:   2 * time.Second,
			QueueSize: 1024,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Stream: "warden:events",
				MaxLen: 10000,
			},
			NATS: NATSConfig{
				URL:     "nats://localhost:4222",
				Subject: "warden.events",
			},
			File: FileSinkConfig{
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     14,
			},
		},
		Upstream: UpstreamConfig{
			ResponseTimeout: 30 * time.Second,
			MaxIdleConns:    64,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Theme:      "default",
			LogDir:     "./logs",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load reads config.yaml (or WARDEN_CONFIG_FILE) over the defaults, applies
// WARDEN_ prefixed environment overrides and validates the result. When
// onChange is set the file is watched and every reload attempt is reported,
// a failed one with a nil config.
func Load(onChange func(*Config, error)) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := registerDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := os.Getenv(EnvConfigFile)
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if onChange != nil && v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			onChange(decode(v))
		})
		v.WatchConfig()
	}

	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Finalise(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalise parses derived fields and validates the whole tree
func (c *Config) Finalise() error {
	var err error

	if c.Security.TrustedProxyCIDRsParsed, err = util.ParseTrustedCIDRs(c.Security.TrustedProxyCIDRs); err != nil {
		return domain.NewConfigValidationError("security.trusted_proxy_cidrs", c.Security.TrustedProxyCIDRs, err.Error())
	}
	if c.Security.RateLimits.BypassCIDRsParsed, err = util.ParseTrustedCIDRs(c.Security.RateLimits.BypassCIDRs); err != nil {
		return domain.NewConfigValidationError("security.rate_limits.bypass_cidrs", c.Security.RateLimits.BypassCIDRs, err.Error())
	}

	if c.Security.MaxBodySizeBytes, err = units.RAMInBytes(c.Security.MaxBodySize); err != nil {
		return domain.NewConfigValidationError("security.max_body_size", c.Security.MaxBodySize, err.Error())
	}

	c.Monitor.MemoryLimitBytes = 0
	if c.Monitor.MemoryLimit != "" {
		if c.Monitor.MemoryLimitBytes, err = units.RAMInBytes(c.Monitor.MemoryLimit); err != nil {
			return domain.NewConfigValidationError("monitor.memory_limit", c.Monitor.MemoryLimit, err.Error())
		}
	}

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewConfigValidationError(fe.Namespace(), fe.Value(), fe.Tag())
		}
		return err
	}

	return nil
}

// registerDefaults flattens DefaultConfig into viper defaults so every key is
// known to AutomaticEnv, even when no config file mentions it.
func registerDefaults(v *viper.Viper) error {
	raw, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("unable to encode defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("unable to decode defaults: %w", err)
	}

	flatten("", tree, func(key string, value any) {
		v.SetDefault(key, value)
	})
	return nil
}

func flatten(prefix string, tree map[string]any, set func(string, any)) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(key, nested, set)
			continue
		}
		set(key, val)
	}
}
