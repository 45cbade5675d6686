package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/robolog/pkg/output"
	"github.com/ccollicutt/robolog/pkg/parser"
)

// Load reads and validates a configuration file. The format is chosen by the
// file extension: .yaml/.yml, .toml, .json or .hcl.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(data, path, cfg); err != nil {
		return nil, errors.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Resolve loads the file at path, or starts from the defaults when path is
// empty. Environment overrides and validation apply either way.
func Resolve(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Extensions lists the supported config file extensions.
func Extensions() []string {
	return []string{".yaml", ".yml", ".toml", ".json", ".hcl"}
}

func decode(data []byte, path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return errors.Errorf("parsing YAML: %w", err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return errors.Errorf("parsing TOML: %w", err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return errors.Errorf("parsing JSON: %w", err)
		}
	case ".hcl":
		return decodeHCL(data, path, cfg)
	default:
		return errors.Errorf("unsupported file extension %q (use %s)", ext, strings.Join(Extensions(), ", "))
	}
	return nil
}

// decodeHCL decodes HCL with an evaluation context that exposes the process
// environment as env.NAME.
func decodeHCL(data []byte, filename string, cfg *Config) error {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	if diags := gohcl.DecodeBody(file.Body, ctx, cfg); diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

// Marshal encodes cfg in the format implied by path's extension.
func Marshal(cfg *Config, path string) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".toml":
		return toml.Marshal(cfg)
	case ".json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case ".hcl":
		file := hclwrite.NewEmptyFile()
		gohcl.EncodeIntoBody(cfg, file.Body())
		return file.Bytes(), nil
	default:
		return nil, errors.Errorf("unsupported file extension %q (use %s)", ext, strings.Join(Extensions(), ", "))
	}
}

// Validate checks a configuration for errors and resolves named settings.
func Validate(cfg *Config) error {
	enc, err := parser.LookupEncoding(cfg.Encoding)
	if err != nil {
		return errors.Errorf("encoding: %w", err)
	}
	cfg.encoding = enc

	dialect, err := parser.ParseDialect(cfg.Dialect)
	if err != nil {
		return errors.Errorf("dialect: %w", err)
	}
	cfg.dialect = dialect

	if strings.TrimSpace(cfg.TimestampLayout) == "" {
		cfg.TimestampLayout = parser.DefaultTimestampLayout
	}

	cfg.location = time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return errors.Errorf("timezone: %w", err)
		}
		cfg.location = loc
	}

	if _, err := output.NewFormatter(cfg.Format, output.FormatOptions{}); err != nil {
		return errors.Errorf("format: %w", err)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return errors.Errorf("log_level: %w", err)
	}
	cfg.level = level

	if cfg.Jobs < 0 {
		return errors.Errorf("jobs: must be >= 0, got %d", cfg.Jobs)
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = DefaultJobs
	}

	for i, pattern := range cfg.Sources {
		if strings.TrimSpace(pattern) == "" {
			return errors.Errorf("sources[%d]: empty pattern", i)
		}
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			return errors.Errorf("webhooks[%d] (%s): %w", i, cfg.Webhooks[i].DisplayName(), err)
		}
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return errors.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerAlways
	case WebhookTriggerAlways, WebhookTriggerOnWarnings, WebhookTriggerNever:
	default:
		return errors.Errorf("invalid trigger %q (must be always, on_warnings, or never)", wh.Trigger)
	}

	wh.timeout = DefaultWebhookTimeout
	if wh.Timeout != "" {
		d, err := time.ParseDuration(wh.Timeout)
		if err != nil {
			return errors.Errorf("invalid timeout: %w", err)
		}
		if d <= 0 {
			return errors.Errorf("timeout must be positive, got %s", wh.Timeout)
		}
		wh.timeout = d
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
