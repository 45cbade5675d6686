package config

import (
	"os"
	"time"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// Default values for configuration.
const (
	DefaultFormat         = "json"
	DefaultLogLevel       = "info"
	DefaultJobs           = 4
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvEncoding        = "ROBOLOG_ENCODING"
	EnvTimestampLayout = "ROBOLOG_TIMESTAMP_LAYOUT"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Encoding:        parser.DefaultEncoding,
		Dialect:         string(parser.DefaultDialect),
		TimestampLayout: parser.DefaultTimestampLayout,
		Format:          DefaultFormat,
		LogLevel:        DefaultLogLevel,
		Jobs:            DefaultJobs,
		Sources:         []string{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if enc := os.Getenv(EnvEncoding); enc != "" {
		c.Encoding = enc
	}
	if layout := os.Getenv(EnvTimestampLayout); layout != "" {
		c.TimestampLayout = layout
	}
}
