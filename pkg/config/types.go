// Package config provides configuration loading and validation for robolog.
package config

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// Config is the root configuration structure. It can be loaded from YAML,
// TOML, JSON or HCL; every setting is optional.
type Config struct {
	// Encoding names the character encoding of the log files.
	Encoding string `yaml:"encoding,omitempty" toml:"encoding,omitempty" json:"encoding,omitempty" hcl:"encoding,optional"`

	// Dialect selects the footer layout: full or legacy.
	Dialect string `yaml:"dialect,omitempty" toml:"dialect,omitempty" json:"dialect,omitempty" hcl:"dialect,optional"`

	// TimestampLayout is the Go time layout for Started and Ended.
	// See https://pkg.go.dev/time#pkg-constants for format.
	TimestampLayout string `yaml:"timestamp_layout,omitempty" toml:"timestamp_layout,omitempty" json:"timestamp_layout,omitempty" hcl:"timestamp_layout,optional"`

	// Timezone is an IANA zone name timestamps are interpreted in.
	// Empty means the local zone.
	Timezone string `yaml:"timezone,omitempty" toml:"timezone,omitempty" json:"timezone,omitempty" hcl:"timezone,optional"`

	// Overwrite replaces existing output files.
	Overwrite bool `yaml:"overwrite,omitempty" toml:"overwrite,omitempty" json:"overwrite,omitempty" hcl:"overwrite,optional"`

	// Format is the output format: json or text.
	Format string `yaml:"format,omitempty" toml:"format,omitempty" json:"format,omitempty" hcl:"format,optional"`

	// LogLevel is the minimum diagnostics level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty" hcl:"log_level,optional"`

	// LogFile receives diagnostics as JSON lines instead of stderr.
	LogFile string `yaml:"log_file,omitempty" toml:"log_file,omitempty" json:"log_file,omitempty" hcl:"log_file,optional"`

	// Sources are the paths or glob patterns used by batch runs.
	Sources []string `yaml:"sources,omitempty" toml:"sources,omitempty" json:"sources,omitempty" hcl:"sources,optional"`

	// Jobs is the number of logs parsed concurrently in batch runs.
	Jobs int `yaml:"jobs,omitempty" toml:"jobs,omitempty" json:"jobs,omitempty" hcl:"jobs,optional"`

	// Webhooks receive each parsed result.
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks,omitempty" json:"webhooks,omitempty" hcl:"webhook,block"`

	// Resolved values (populated during validation).
	encoding encoding.Encoding
	dialect  parser.Dialect
	location *time.Location
	level    zerolog.Level
}

// EncodingValue returns the resolved input encoding.
func (c *Config) EncodingValue() encoding.Encoding {
	return c.encoding
}

// DialectValue returns the resolved footer dialect.
func (c *Config) DialectValue() parser.Dialect {
	return c.dialect
}

// Location returns the resolved time zone.
func (c *Config) Location() *time.Location {
	return c.location
}

// Level returns the resolved log level.
func (c *Config) Level() zerolog.Level {
	return c.level
}

// ParserOptions returns the parser settings described by the configuration.
func (c *Config) ParserOptions() []parser.Option {
	return []parser.Option{
		parser.WithEncoding(c.encoding),
		parser.WithDialect(c.dialect),
		parser.WithTimestampLayout(c.TimestampLayout),
		parser.WithLocation(c.location),
	}
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerAlways fires after every successful parse (default).
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerOnWarnings fires only when lines were skipped.
	WebhookTriggerOnWarnings WebhookTrigger = "on_warnings"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// ShouldFire reports whether a webhook with this trigger fires for a parse
// that did or did not produce warnings.
func (t WebhookTrigger) ShouldFire(hasWarnings bool) bool {
	switch t {
	case WebhookTriggerNever:
		return false
	case WebhookTriggerOnWarnings:
		return hasWarnings
	default:
		return true
	}
}

// WebhookConfig defines a webhook endpoint for sending parse results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty" hcl:"name,label"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url" json:"url" hcl:"url"`

	// Token is an optional bearer token. ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty" toml:"token,omitempty" json:"token,omitempty" hcl:"token,optional"`

	// Trigger determines when the webhook fires.
	// Defaults to "always" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty" json:"trigger,omitempty" hcl:"trigger,optional"`

	// Timeout is the HTTP request timeout as a Go duration string.
	// Defaults to 10s if not specified.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" hcl:"timeout,optional"`

	timeout time.Duration
}

// TimeoutDuration returns the parsed request timeout.
func (w *WebhookConfig) TimeoutDuration() time.Duration {
	if w.timeout <= 0 {
		return DefaultWebhookTimeout
	}
	return w.timeout
}

// DisplayName returns the name, or the URL for unnamed webhooks.
func (w *WebhookConfig) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.URL
}
