// Package config provides configuration types for airgate.
//
// Configuration is file-based (airgate.yaml) with environment overrides.
// Durations are written as Go duration strings ("30s", "24h").
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for airgate.
type Config struct {
	// Server configures the REST listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Upstream configures the SOAP reservation backend and agency credentials.
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`

	// Session bounds the in-memory cookie jar store.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Artifacts configures the per-search request/response trail.
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`

	// RateLimit configures per-IP rate limiting of the REST surface.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Tracing configures optional OpenTelemetry spans for backend calls.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// HTTPAddr is the address to listen on. Defaults to "0.0.0.0:8000".
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error". DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"omitempty,duration"`
}

// UpstreamConfig configures the SOAP endpoint and the agency login embedded
// in the envelopes that require it.
type UpstreamConfig struct {
	// URL is the single SOAP endpoint every operation is posted to.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	AgencyCode string `yaml:"agency_code" mapstructure:"agency_code" validate:"required"`
	Username   string `yaml:"username" mapstructure:"username" validate:"required"`
	Password   string `yaml:"password" mapstructure:"password" validate:"required"`

	// LanguageCode is sent as strLanguageCode. Defaults to "EN".
	LanguageCode string `yaml:"language_code" mapstructure:"language_code"`

	// Timeout bounds each backend call. Defaults to "30s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`

	// MaxResponseBytes caps the response body read. Defaults to 10 MiB.
	MaxResponseBytes int64 `yaml:"max_response_bytes" mapstructure:"max_response_bytes" validate:"omitempty,min=1024"`
}

// SessionConfig bounds the cookie jar store.
type SessionConfig struct {
	// Capacity is the maximum number of correlation ids kept. Least recently
	// used ids are evicted first. Defaults to 10000.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"omitempty,min=1"`

	// IdleTTL drops a jar not used for this long. Defaults to "24h".
	IdleTTL string `yaml:"idle_ttl" mapstructure:"idle_ttl" validate:"omitempty,duration"`

	// CleanupInterval is how often expired jars are swept. Defaults to "5m".
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`
}

// ArtifactsConfig configures the per-search artifact directories.
type ArtifactsConfig struct {
	// Enabled turns artifact writing on or off. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Dir is the root directory; each correlation id gets a subdirectory.
	// Defaults to "logs".
	Dir string `yaml:"dir" mapstructure:"dir"`

	// CounterCapacity bounds the in-memory sequence counters. Evicted
	// counters are recovered from disk. Defaults to 10000.
	CounterCapacity int `yaml:"counter_capacity" mapstructure:"counter_capacity" validate:"omitempty,min=1"`

	// Retention removes search directories untouched for this long.
	// Empty or "0" keeps them forever.
	Retention string `yaml:"retention" mapstructure:"retention" validate:"omitempty,duration"`

	// SessionLog writes a per-search app.log next to the artifacts. Defaults to true.
	SessionLog bool `yaml:"session_log" mapstructure:"session_log"`
}

// RateLimitConfig configures rate limiting.
type RateLimitConfig struct {
	// Enabled turns rate limiting on or off. Defaults to true.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// IPRate is the maximum requests per minute per client IP. Defaults to 100.
	IPRate int `yaml:"ip_rate" mapstructure:"ip_rate" validate:"omitempty,min=1"`

	// CleanupInterval is how often idle rate limit entries are swept. Defaults to "5m".
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`

	// MaxTTL is the maximum age of a rate limit entry before removal. Defaults to "1h".
	MaxTTL string `yaml:"max_ttl" mapstructure:"max_ttl" validate:"omitempty,duration"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled turns span export on. Defaults to false.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Output is "stdout", "stderr" or "file://<absolute-path>". Defaults to "stderr".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,trace_output"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Upstream.LanguageCode == "" {
		c.Upstream.LanguageCode = "EN"
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = "30s"
	}
	if c.Upstream.MaxResponseBytes == 0 {
		c.Upstream.MaxResponseBytes = 10 * 1024 * 1024
	}

	if c.Session.Capacity == 0 {
		c.Session.Capacity = 10000
	}
	if c.Session.IdleTTL == "" {
		c.Session.IdleTTL = "24h"
	}
	if c.Session.CleanupInterval == "" {
		c.Session.CleanupInterval = "5m"
	}

	// viper.IsSet distinguishes "not set" from "explicitly false".
	if !viper.IsSet("artifacts.enabled") {
		c.Artifacts.Enabled = true
	}
	if !viper.IsSet("artifacts.session_log") {
		c.Artifacts.SessionLog = true
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "logs"
	}
	if c.Artifacts.CounterCapacity == 0 {
		c.Artifacts.CounterCapacity = 10000
	}

	if !viper.IsSet("rate_limit.enabled") {
		c.RateLimit.Enabled = true
	}
	if c.RateLimit.IPRate == 0 {
		c.RateLimit.IPRate = 100
	}
	if c.RateLimit.CleanupInterval == "" {
		c.RateLimit.CleanupInterval = "5m"
	}
	if c.RateLimit.MaxTTL == "" {
		c.RateLimit.MaxTTL = "1h"
	}

	if c.Tracing.Output == "" {
		c.Tracing.Output = "stderr"
	}
}

// Duration parses a duration field, returning fallback when s is empty or
// invalid. Validate rejects invalid values, so the fallback only covers
// unset fields in hand-built configs.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
