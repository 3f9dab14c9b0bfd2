package config

import (
	"fmt"
	"net"
	"time"

	"github.com/thushan/warden/internal/core/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Security    SecurityConfig    `yaml:"security" mapstructure:"security"`
	Admin       AdminConfig       `yaml:"admin" mapstructure:"admin"`
	Monitor     MonitorConfig     `yaml:"monitor" mapstructure:"monitor"`
	EventLog    EventLogConfig    `yaml:"event_log" mapstructure:"event_log"`
	Persistence PersistenceConfig `yaml:"persistence" mapstructure:"persistence"`
	Sink        SinkConfig        `yaml:"sink" mapstructure:"sink"`
	Upstream    UpstreamConfig    `yaml:"upstream" mapstructure:"upstream"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host" validate:"required"`
	Port            int           `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
	RequestLogging  bool          `yaml:"request_logging" mapstructure:"request_logging"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SecurityConfig struct {
	RulesFile               string           `yaml:"rules_file" mapstructure:"rules_file"`
	MaxBodySize             string           `yaml:"max_body_size" mapstructure:"max_body_size" validate:"required"`
	TrustedProxyCIDRs       []string         `yaml:"trusted_proxy_cidrs" mapstructure:"trusted_proxy_cidrs"`
	TrustedProxyCIDRsParsed []*net.IPNet     `yaml:"-" mapstructure:"-"`
	Headers                 HeadersConfig    `yaml:"headers" mapstructure:"headers"`
	RateLimits              RateLimitConfig  `yaml:"rate_limits" mapstructure:"rate_limits"`
	Reputation              ReputationConfig `yaml:"reputation" mapstructure:"reputation"`
	MaxBodySizeBytes        int64            `yaml:"-" mapstructure:"-"`
	TrustProxyHeaders       bool             `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
	WatchRules              bool             `yaml:"watch_rules" mapstructure:"watch_rules"`
}

// RateLimitConfig defines the per identity window ceilings and the optional
// process wide token bucket
type RateLimitConfig struct {
	BypassCIDRs             []string      `yaml:"bypass_cidrs" mapstructure:"bypass_cidrs"`
	BypassCIDRsParsed       []*net.IPNet  `yaml:"-" mapstructure:"-"`
	BypassPaths             []string      `yaml:"bypass_paths" mapstructure:"bypass_paths"`
	PerMinute               int           `yaml:"per_minute" mapstructure:"per_minute" validate:"gte=1"`
	PerHour                 int           `yaml:"per_hour" mapstructure:"per_hour" validate:"gte=1"`
	GlobalRequestsPerMinute int           `yaml:"global_requests_per_minute" mapstructure:"global_requests_per_minute" validate:"gte=0"`
	BurstSize               int           `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
	CleanupInterval         time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"gt=0"`
}

type ReputationConfig struct {
	SuspicionThreshold int `yaml:"suspicion_threshold" mapstructure:"suspicion_threshold" validate:"gte=1"`
	RateLimitThreshold int `yaml:"rate_limit_threshold" mapstructure:"rate_limit_threshold" validate:"gte=1"`
}

type HeadersConfig struct {
	ContentSecurityPolicy string `yaml:"content_security_policy" mapstructure:"content_security_policy"`
	Enabled               bool   `yaml:"enabled" mapstructure:"enabled"`
	HSTS                  bool   `yaml:"hsts" mapstructure:"hsts"`
}

type AdminConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

type MonitorConfig struct {
	MemoryLimit      string                  `yaml:"memory_limit" mapstructure:"memory_limit"`
	Health           domain.HealthThresholds `yaml:"health" mapstructure:"health"`
	Interval         time.Duration           `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
	ProbeTimeout     time.Duration           `yaml:"probe_timeout" mapstructure:"probe_timeout" validate:"gt=0"`
	ErrorWindow      time.Duration           `yaml:"error_window" mapstructure:"error_window" validate:"gt=0"`
	HistorySize      int                     `yaml:"history_size" mapstructure:"history_size" validate:"gte=1"`
	MemoryLimitBytes int64                   `yaml:"-" mapstructure:"-"`
}

type EventLogConfig struct {
	Capacity      int           `yaml:"capacity" mapstructure:"capacity" validate:"gte=1"`
	Retention     time.Duration `yaml:"retention" mapstructure:"retention" validate:"gt=0"`
	PruneInterval time.Duration `yaml:"prune_interval" mapstructure:"prune_interval" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	Stream   string `yaml:"stream" mapstructure:"stream"`
	DB       int    `yaml:"db" mapstructure:"db"`
	MaxLen   int64  `yaml:"max_len" mapstructure:"max_len"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

type PersistenceConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver" validate:"oneof=none redis postgres"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

type NATSConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Subject string `yaml:"subject" mapstructure:"subject"`
}

type FileSinkConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
}

// SinkConfig selects where significant events are forwarded. File doubles as
// the local fallback for the other sink types when a path is set.
type SinkConfig struct {
	Type      string         `yaml:"type" mapstructure:"type" validate:"oneof=none redis nats postgres file"`
	Redis     RedisConfig    `yaml:"redis" mapstructure:"redis"`
	NATS      NATSConfig     `yaml:"nats" mapstructure:"nats"`
	Postgres  PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	File      FileSinkConfig `yaml:"file" mapstructure:"file"`
	Timeout   time.Duration  `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	QueueSize int            `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=1"`
}

type UpstreamConfig struct {
	URL             string        `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	ResponseTimeout time.Duration `yaml:"response_timeout" mapstructure:"response_timeout" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns" validate:"gte=0"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Theme      string `yaml:"theme" mapstructure:"theme"`
	LogDir     string `yaml:"log_dir" mapstructure:"log_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`
	FileOutput bool   `yaml:"file_output" mapstructure:"file_output"`
}
