package commands

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"

	"github.com/ccollicutt/robolog/internal/logging"
	"github.com/ccollicutt/robolog/pkg/config"
	"github.com/ccollicutt/robolog/pkg/output"
	"github.com/ccollicutt/robolog/pkg/parser"
	"github.com/ccollicutt/robolog/pkg/webhook"
)

// CommonOptions holds the flags shared by the parse and batch commands.
type CommonOptions struct {
	ConfigPath string
	LogPath    string
	LogLevel   string
	Encoding   string
	Dialect    string
	Format     string
	Overwrite  bool
	Verbose    bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

func (o *CommonOptions) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.ConfigPath, "config", "c", "", "Config file (.yaml, .toml, .json or .hcl)")
	flags.StringVar(&o.LogPath, "log", "", "Write diagnostics as JSON lines to this file instead of stderr")
	flags.StringVar(&o.LogLevel, "log-level", "", "Diagnostics level (debug|info|warn|error)")
	flags.StringVar(&o.Encoding, "encoding", "", "Log encoding (default utf-16le)")
	flags.StringVar(&o.Dialect, "dialect", "", "Footer dialect (full|legacy)")
	flags.StringVar(&o.Format, "format", "", "Output format (json|text)")
	flags.BoolVar(&o.Overwrite, "overwrite", false, "Replace existing output files")
	flags.BoolVarP(&o.Verbose, "verbose", "v", false, "Include parse metadata and skipped lines in the output")

	flags.StringVar(&o.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	flags.StringVar(&o.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	flags.StringVar(&o.WebhookTrigger, "webhook-trigger", "always", "When to fire webhook (always|on_warnings|never)")
}

// resolveConfig loads the config file (or defaults) and applies the flags
// the user set explicitly on top of it.
func (o *CommonOptions) resolveConfig(ctx context.Context, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Resolve(ctx, o.ConfigPath)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	if flags.Changed("encoding") {
		cfg.Encoding = o.Encoding
	}
	if flags.Changed("dialect") {
		cfg.Dialect = o.Dialect
	}
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("log") {
		cfg.LogFile = o.LogPath
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = o.Overwrite
	}
	if o.WebhookURL != "" {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     o.WebhookURL,
			Token:   o.WebhookToken,
			Trigger: config.WebhookTrigger(o.WebhookTrigger),
		})
	}

	if err := config.Validate(cfg); err != nil {
		return nil, errors.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// startRun builds the run logger and stores it in the command context.
func startRun(cmd *cobra.Command, cfg *config.Config) (context.Context, *zerolog.Logger, func(), error) {
	logger, release, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx)

	return ctx, zerolog.Ctx(ctx), func() { _ = release() }, nil
}

// job is one log to convert.
type job struct {
	source string
	dest   string
}

// processor converts logs with one configuration.
type processor struct {
	cfg       *config.Config
	formatter output.Formatter
	writer    *output.FileWriter
	webhooks  *webhook.Client
}

func newProcessor(cmd *cobra.Command, cfg *config.Config, opts *CommonOptions, toTerminal bool) (*processor, error) {
	formatter, err := output.NewFormatter(cfg.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Color:   toTerminal,
	})
	if err != nil {
		return nil, err
	}

	return &processor{
		cfg:       cfg,
		formatter: formatter,
		writer: &output.FileWriter{
			Overwrite: cfg.Overwrite,
			Stdout:    cmd.OutOrStdout(),
		},
		webhooks: webhook.NewClient(),
	}, nil
}

// process parses one log, writes the rendered result and notifies webhooks.
func (p *processor) process(ctx context.Context, j job) (*output.Report, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	logger.Debug().Str("source", j.source).Str("output", j.dest).Msg("parsing robocopy log")

	outcome, err := parser.New(p.cfg.ParserOptions()...).ParseFile(ctx, j.source)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", j.source, err)
	}

	report := output.NewReport(j.source, outcome, start, time.Now())

	data, err := output.Render(ctx, p.formatter, report)
	if err != nil {
		return nil, err
	}
	if err := p.writer.WriteFile(j.dest, data); err != nil {
		return nil, errors.Errorf("writing output: %w", err)
	}

	if len(p.cfg.Webhooks) > 0 {
		p.webhooks.Notify(ctx, report, p.cfg.Webhooks)
	}

	logger.Info().
		Str("source", j.source).
		Str("output", j.dest).
		Int("sections", outcome.Sections).
		Int("warnings", len(outcome.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("wrote result")

	return report, nil
}
