package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/robolog/internal/logging"
	"github.com/ccollicutt/robolog/pkg/output"
)

// ParseOptions holds command-line options for converting a single log.
type ParseOptions struct {
	CommonOptions

	Source string
	Output string
}

// NewParseCommand creates the command that converts one Robocopy log. It is
// used as the root command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "robolog --source <log-file> --output <json-file>",
		Short: "Convert Robocopy logs to JSON",
		Long: `robolog reads a Robocopy log and writes the run it describes as JSON:
start and end time, source and destination, file selection, options,
transfer speed and the Dirs/Files/Bytes statistics.

Lines that cannot be understood are skipped and reported as warnings in
the diagnostics log; they never fail the run.

Use "-" as the output path to write to stdout. An existing output file is
left untouched unless --overwrite is given.

Exit codes:
  0 - Result written
  2 - Usage, input or output error`,
		Example: `  robolog --source C:\Logs\backup.log --output backup.json
  robolog --source backup.log --output - --encoding windows-1252
  robolog --source backup.log --output backup.json --overwrite --log robolog.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "Robocopy log file to read")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `JSON file to write ("-" for stdout)`)
	opts.bind(cmd.Flags())

	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runParse(cmd *cobra.Command, opts *ParseOptions) error {
	start := time.Now()

	cfg, err := opts.resolveConfig(cmd.Context(), cmd.Flags())
	if err != nil {
		return err
	}

	ctx, logger, done, err := startRun(cmd, cfg)
	if err != nil {
		return err
	}
	defer done()

	toTerminal := opts.Output == output.Stdout && logging.IsTerminal(cmd.OutOrStdout())
	p, err := newProcessor(cmd, cfg, &opts.CommonOptions, toTerminal)
	if err != nil {
		return err
	}

	if _, err := p.process(ctx, job{source: opts.Source, dest: opts.Output}); err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("run failed")
		return err
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("run finished")
	return nil
}
