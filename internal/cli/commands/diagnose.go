package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/robolog/internal/logging"
	"github.com/ccollicutt/robolog/pkg/config"
	"github.com/ccollicutt/robolog/pkg/detector"
	"github.com/ccollicutt/robolog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigPath string
	Verbose    bool
}

// Diagnostic check statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Explain how a Robocopy log parses",
		Long: `Diagnose why a Robocopy log does not parse as expected.

Checks:
- Config file syntax and settings (when --config is given)
- Log file existence and readability
- Configured encoding and dialect against what the file looks like
- Section layout (four dash dividers)
- Header and footer fields found
- Lines skipped during parsing

Example:
  robolog diagnose backup.log
  robolog diagnose --config robolog.yaml -v backup.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file to diagnose with")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, logFile string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Load configuration
	cfg, result := checkConfig(ctx, opts.ConfigPath)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	// 2. Check the log file
	result = checkLogFile(logFile)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	// 3. Compare settings with what the file looks like
	detection, err := detector.New().DetectFromFile(ctx, logFile)
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Encoding",
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot sample log file: %v", err),
		})
		return results
	}
	results = append(results, checkEncoding(cfg, detection))
	results = append(results, checkDialect(cfg, detection))

	// 4. Parse with the configured settings
	outcome, err := parser.New(cfg.ParserOptions()...).ParseFile(ctx, logFile)
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:   "Parse",
			Status:  StatusError,
			Message: fmt.Sprintf("Parsing failed: %v", err),
		})
		return results
	}
	results = append(results, checkSections(outcome))
	results = append(results, checkFields(outcome, opts))
	results = append(results, checkWarnings(outcome, cfg, opts))

	// 5. Webhooks
	results = append(results, checkWebhooks(cfg, opts)...)

	return results
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := config.Resolve(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		result.Suggests = []string{
			"Use 'robolog validate <config-file>' for details",
			"Use 'robolog detect <log-file> --write-config robolog.yaml' to generate a starter config",
		}
		return nil, result
	}

	result.Status = StatusOK
	if path == "" {
		result.Message = "No config file given, using defaults and environment"
	} else {
		result.Message = fmt.Sprintf("Loaded: %s", path)
	}
	result.Details = []string{
		fmt.Sprintf("encoding: %s", cfg.Encoding),
		fmt.Sprintf("dialect: %s", cfg.DialectValue()),
		fmt.Sprintf("timestamp_layout: %s", cfg.TimestampLayout),
		fmt.Sprintf("timezone: %s", cfg.Location()),
	}
	return cfg, result
}

func checkLogFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Log file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}

	f, err := os.Open(path) // #nosec G304 -- path is provided by user via CLI
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read log file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	_ = f.Close()

	if info.Size() == 0 {
		result.Status = StatusWarning
		result.Message = "Log file is empty"
		result.Suggests = []string{"Robocopy writes the log only when /LOG or /UNILOG is given"}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkEncoding(cfg *config.Config, detection *detector.DetectionResult) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Encoding",
	}

	if !detection.HasMatch() {
		result.Status = StatusWarning
		result.Message = "File does not look like a Robocopy log in any known encoding"
		result.Suggests = []string{"Use 'robolog detect <log-file> --all' to see candidate scores"}
		return result
	}

	best := detection.BestMatch()
	configured, err := parser.CanonicalEncodingName(cfg.Encoding)
	if err == nil && configured == best.Candidate.Name {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Configured encoding %s matches the file", cfg.Encoding)
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("Configured encoding %s, but the file looks like %s", cfg.Encoding, best.Candidate.Name)
	result.Details = []string{fmt.Sprintf("%s scored %.0f%%", best.Candidate.Name, best.Score*100)}
	result.Suggests = []string{
		fmt.Sprintf("Use --encoding %s or set encoding: %s in the config file", best.Candidate.Name, best.Candidate.Name),
	}
	return result
}

func checkDialect(cfg *config.Config, detection *detector.DetectionResult) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Dialect",
	}

	if detection.DialectNote == "" || detection.Dialect == cfg.DialectValue() {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Using the %s dialect", cfg.DialectValue())
		if detection.DialectNote != "" {
			result.Details = []string{detection.DialectNote}
		}
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("Configured dialect %s, but the file looks like %s", cfg.DialectValue(), detection.Dialect)
	result.Details = []string{detection.DialectNote}
	result.Suggests = []string{fmt.Sprintf("Use --dialect %s", detection.Dialect)}
	return result
}

func checkSections(outcome *parser.Outcome) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Sections",
	}

	if outcome.Sections == int(parser.SectionFooter) {
		result.Status = StatusOK
		result.Message = "Found banner, header, listing and footer"
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("Found %d dash divider(s), expected 4", outcome.Sections)
	if outcome.Sections < int(parser.SectionFooter) {
		result.Suggests = []string{
			"The log may be truncated, or Robocopy may still be running",
			"Footer fields are read only after the fourth divider",
		}
	} else {
		result.Suggests = []string{"Lines after the fourth section are ignored; check for appended runs"}
	}
	return result
}

func checkFields(outcome *parser.Outcome, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Fields",
	}

	r := outcome.Result
	fields := []struct {
		name  string
		found bool
	}{
		{"Started", r.Started != nil},
		{"Source", r.Source != nil},
		{"Dest", r.Destination != nil},
		{"Files", r.Files != nil},
		{"Options", r.Options != nil},
		{"Ended", r.Ended != nil},
		{"Speed", r.Speed != nil},
		{"Dirs stats", r.Stats.Dirs != nil},
		{"Files stats", r.Stats.Files != nil},
		{"Bytes stats", r.Stats.Bytes != nil},
	}

	var found, missing []string
	for _, f := range fields {
		if f.found {
			found = append(found, f.name)
		} else {
			missing = append(missing, f.name)
		}
	}

	if len(missing) == 0 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("All %d fields found", len(fields))
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("%d of %d fields found", len(found), len(fields))
	result.Details = []string{"missing: " + strings.Join(missing, ", ")}
	if opts.Verbose && len(found) > 0 {
		result.Details = append(result.Details, "found: "+strings.Join(found, ", "))
	}
	return result
}

func checkWarnings(outcome *parser.Outcome, cfg *config.Config, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Skipped Lines",
	}

	if len(outcome.Warnings) == 0 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("No lines skipped (%d lines read)", outcome.LinesRead)
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("%d line(s) skipped", len(outcome.Warnings))

	limit := 10
	if opts.Verbose {
		limit = len(outcome.Warnings)
	}
	timestampFailed := false
	for i, w := range outcome.Warnings {
		if w.Key == "Started" || w.Key == "Ended" {
			timestampFailed = true
		}
		if i < limit {
			result.Details = append(result.Details, fmt.Sprintf("line %d (%s): %s", w.LineNum, w.Section, w.Message))
		}
	}
	if len(outcome.Warnings) > limit {
		result.Details = append(result.Details, fmt.Sprintf("... and %d more (use -v)", len(outcome.Warnings)-limit))
	}

	if timestampFailed {
		result.Suggests = append(result.Suggests,
			fmt.Sprintf("Timestamps did not match layout %q; set timestamp_layout for non-English logs", cfg.TimestampLayout))
	}
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	if len(cfg.Webhooks) == 0 {
		if !opts.Verbose {
			return nil
		}
		return []DiagnosticResult{{
			Check:   "Webhooks",
			Status:  StatusOK,
			Message: "No webhooks configured (optional)",
		}}
	}

	results := make([]DiagnosticResult, 0, len(cfg.Webhooks))
	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", wh.DisplayName()),
			Status:  StatusOK,
			Message: fmt.Sprintf("POST %s (trigger %s, timeout %s)", wh.URL, wh.Trigger, wh.TimeoutDuration()),
		}
		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = StatusWarning
			result.Message = "Webhook is disabled (trigger: never)"
		}
		if strings.HasPrefix(wh.URL, "http://") {
			result.Details = append(result.Details, "URL is not https; the token and results are sent in clear text")
		}
		results = append(results, result)
	}
	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	pass := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)
	for _, c := range []*color.Color{pass, warn, fail} {
		if logging.IsTerminal(w) {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	fmt.Fprintln(w, "=== Robolog Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = pass.Sprint("PASS")
			okCount++
		case StatusWarning:
			icon = warn.Sprint("WARN")
			warnCount++
		case StatusError:
			icon = fail.Sprint("FAIL")
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before converting this log.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nThe log converts, but some fields may be missing.")
	default:
		fmt.Fprintln(w, "\nThe log parses cleanly.")
	}
}
