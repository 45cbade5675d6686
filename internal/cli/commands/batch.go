package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/robolog/internal/logging"
	"github.com/ccollicutt/robolog/pkg/output"
	"github.com/ccollicutt/robolog/pkg/parser"
)

// BatchOptions holds command-line options for the batch command.
type BatchOptions struct {
	CommonOptions

	OutDir string
	Jobs   int
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [pattern...]",
		Short: "Convert many Robocopy logs at once",
		Long: `Convert every log matched by the given paths or glob patterns.
Patterns may use "**" to match across directories. Without arguments the
config file's sources are used.

Each log is written to <out-dir>/<name>.json (or .txt for text output).
Logs are parsed concurrently; one failure does not stop the others.

Exit codes:
  0 - Every log converted
  2 - At least one log failed, or a usage error`,
		Example: `  robolog batch --out-dir results 'logs/**/*.log'
  robolog batch --config robolog.yaml --out-dir results --jobs 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "d", "", "Directory to write results to")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Logs to parse concurrently (default 4)")
	opts.bind(cmd.Flags())

	_ = cmd.MarkFlagRequired("out-dir")

	return cmd
}

// batchResult is the outcome for one log.
type batchResult struct {
	job    job
	report *output.Report
	err    error
}

func runBatch(cmd *cobra.Command, args []string, opts *BatchOptions) error {
	start := time.Now()

	cfg, err := opts.resolveConfig(cmd.Context(), cmd.Flags())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		if opts.Jobs < 1 {
			return errors.Errorf("--jobs must be at least 1, got %d", opts.Jobs)
		}
		cfg.Jobs = opts.Jobs
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Sources
	}
	if len(patterns) == 0 {
		return errors.New("no logs given: pass paths or patterns, or set sources in the config file")
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return errors.Errorf("expanding log sources: %w", err)
	}

	jobs, err := planJobs(files, opts.OutDir, cfg.Format)
	if err != nil {
		return err
	}

	ctx, logger, done, err := startRun(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()

	p, err := newProcessor(cmd, cfg, &opts.CommonOptions, false)
	if err != nil {
		return err
	}

	logger.Info().Int("logs", len(jobs)).Int("jobs", cfg.Jobs).Msg("starting batch")

	results := make([]batchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			fileLogger := logger.With().Str("source", j.source).Logger()
			report, err := p.process(fileLogger.WithContext(ctx), j)
			if err != nil {
				fileLogger.Error().Err(err).Msg("log failed")
			}

			results[i] = batchResult{job: j, report: report, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := printBatchSummary(cmd, results)

	logger.Info().
		Int("logs", len(jobs)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("batch finished")

	if failed > 0 {
		return errors.Errorf("%d of %d logs failed", failed, len(jobs))
	}
	return nil
}

// planJobs maps every log to its output file and rejects collisions.
func planJobs(files []string, outDir, format string) ([]job, error) {
	ext := ".json"
	if format == "text" {
		ext = ".txt"
	}

	seen := make(map[string]string, len(files))
	jobs := make([]job, 0, len(files))
	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		dest := filepath.Join(outDir, base+ext)
		if other, ok := seen[dest]; ok {
			return nil, errors.Errorf("%s and %s would both be written to %s", other, file, dest)
		}
		seen[dest] = file
		jobs = append(jobs, job{source: file, dest: dest})
	}
	return jobs, nil
}

func printBatchSummary(cmd *cobra.Command, results []batchResult) int {
	w := cmd.OutOrStdout()
	useColor := logging.IsTerminal(w)

	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)
	for _, c := range []*color.Color{ok, warn, fail} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", fail.Sprint("FAIL"), r.job.source, r.err)
		case r.report.HasWarnings():
			fmt.Fprintf(w, "%s %s -> %s (%d line(s) skipped)\n",
				warn.Sprint("WARN"), r.job.source, r.job.dest, len(r.report.Metadata.Warnings))
		default:
			fmt.Fprintf(w, "%s %s -> %s\n", ok.Sprint("OK"), r.job.source, r.job.dest)
		}
	}

	fmt.Fprintf(w, "\n%d converted, %d failed\n", len(results)-failed, failed)
	return failed
}
