package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ccollicutt/robolog/internal/logging"
	"github.com/ccollicutt/robolog/pkg/config"
	"github.com/ccollicutt/robolog/pkg/detector"
	"github.com/ccollicutt/robolog/pkg/output"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Format      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the encoding and dialect of a Robocopy log",
		Long: `Analyze a log file to work out which settings parse it.

Samples the start and the end of the file, decodes the sample with every
candidate encoding and scores how much of it looks like a Robocopy log
(dividers, header and footer keys, the ROBOCOPY banner). Reports the best
encoding, the footer dialect and whether the Started timestamp parses with
the default layout.

Optionally generates a starter config file with --write-config. The format
follows the file extension (.yaml, .toml, .json or .hcl).

Candidates: utf-16le, utf-16be, utf-8, windows-1252`,
		Example: `  robolog detect backup.log
  robolog detect --all --format json backup.log
  robolog detect --write-config robolog.yaml backup.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Bytes to sample from each end of the file")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every candidate, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, logFile string, opts *DetectOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return errors.Errorf("log file not found: %s", logFile)
	}

	result, err := detector.New(detector.WithSampleSize(opts.SampleSize)).DetectFromFile(ctx, logFile)
	if err != nil {
		return errors.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, logFile, opts.WriteConfig); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote starter config to: %s\n\n", opts.WriteConfig)
	}

	switch opts.Format {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	case "text", "":
		return outputDetectText(w, result, logFile, opts)
	default:
		return errors.Errorf("unknown output format %q (use text or json)", opts.Format)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	heading := color.New(color.Bold)
	warn := color.New(color.FgYellow)
	if logging.IsTerminal(w) {
		heading.EnableColor()
		warn.EnableColor()
	} else {
		heading.DisableColor()
		warn.DisableColor()
	}

	fmt.Fprintln(w, heading.Sprint("=== Robocopy Log Detection ==="))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Bytes sampled: %d\n", result.SampledBytes)
	if result.BOM != "" {
		fmt.Fprintf(w, "Byte order mark: %s\n", result.BOM)
	}
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, warn.Sprint("This does not look like a Robocopy log."))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: no candidate encoding produced dash dividers or header keys.")
		fmt.Fprintln(w, "Check that the file was written by Robocopy /LOG or /UNILOG.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Encoding: %s\n", best.Candidate.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d dividers, %d known keys)\n",
		best.Score*100, best.Dividers, best.KnownKeys)
	fmt.Fprintf(w, "Dialect: %s\n", result.Dialect)
	if result.DialectNote != "" {
		fmt.Fprintf(w, "  %s\n", result.DialectNote)
	}
	fmt.Fprintln(w)

	if best.SampleLine != "" {
		fmt.Fprintf(w, "Sample line:\n  %s\n", best.SampleLine)
	}
	switch {
	case result.Started != nil:
		fmt.Fprintf(w, "Started parsed as: %s\n", result.Started.Format("2006-01-02 15:04:05 MST"))
	case result.StartedRaw != "":
		fmt.Fprintln(w, warn.Sprintf("Started value %q does not match the default layout; set timestamp_layout.", result.StartedRaw))
	}
	fmt.Fprintln(w)

	if best.Replacements > 0 {
		fmt.Fprintln(w, warn.Sprintf("WARNING: %d undecodable character(s) in the sample.", best.Replacements))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Flags for this log ---")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  --encoding %s --dialect %s\n", best.Candidate.Name, result.Dialect)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Encoding", "Score", "Dividers", "Keys", "Banner", "Bad chars"})
		for _, m := range result.Matches {
			tw.AppendRow(table.Row{
				m.Candidate.Name,
				fmt.Sprintf("%.1f%%", m.Score*100),
				m.Dividers,
				m.KnownKeys,
				m.Banner,
				m.Replacements,
			})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 6, Align: text.AlignRight},
		})
		fmt.Fprintln(w, "--- All candidates ---")
		fmt.Fprintln(w, tw.Render())
	}

	return nil
}

// JSONMatch represents a candidate in JSON output.
type JSONMatch struct {
	Encoding     string  `json:"encoding"`
	Score        float64 `json:"score"`
	Dividers     int     `json:"dividers"`
	KnownKeys    int     `json:"known_keys"`
	Banner       bool    `json:"banner"`
	Replacements int     `json:"replacements"`
	SampleLine   string  `json:"sample_line,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string      `json:"file"`
	Matches      []JSONMatch `json:"matches"`
	SampledBytes int         `json:"sampled_bytes"`
	BOM          string      `json:"bom,omitempty"`
	Dialect      string      `json:"dialect"`
	DialectNote  string      `json:"dialect_note,omitempty"`
	Started      string      `json:"started,omitempty"`
	StartedOK    bool        `json:"started_ok"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         logFile,
		SampledBytes: result.SampledBytes,
		BOM:          result.BOM,
		Dialect:      string(result.Dialect),
		DialectNote:  result.DialectNote,
		Started:      result.StartedRaw,
		StartedOK:    result.Started != nil,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !result.HasMatch() {
		matches = nil
	} else if !opts.ShowAll {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Encoding:     m.Candidate.Name,
			Score:        m.Score,
			Dividers:     m.Dividers,
			KnownKeys:    m.KnownKeys,
			Banner:       m.Banner,
			Replacements: m.Replacements,
			SampleLine:   m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig writes a config with the detected settings. An existing
// file is never replaced.
func writeStarterConfig(result *detector.DetectionResult, logFile, configPath string) error {
	if !result.HasMatch() {
		return errors.New("cannot generate config: file does not look like a Robocopy log")
	}

	cfg := starterConfig(result, logFile)
	data, err := config.Marshal(cfg, configPath)
	if err != nil {
		return errors.Errorf("generating config: %w", err)
	}

	writer := &output.FileWriter{}
	if err := writer.WriteFile(configPath, data); err != nil {
		if errors.Is(err, output.ErrOutputExists) {
			return errors.Errorf("config file already exists: %s (will not overwrite)", configPath)
		}
		return errors.Errorf("writing config file: %w", err)
	}
	return nil
}

func starterConfig(result *detector.DetectionResult, logFile string) *config.Config {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	cfg := config.DefaultConfig()
	cfg.Encoding = result.BestMatch().Candidate.Name
	cfg.Dialect = string(result.Dialect)
	cfg.Sources = []string{absLogFile}
	return cfg
}
