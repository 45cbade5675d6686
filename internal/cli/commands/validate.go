package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ccollicutt/robolog/pkg/config"
	"github.com/ccollicutt/robolog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a robolog configuration file without parsing any logs.

Checks:
  - YAML, TOML, JSON or HCL syntax
  - Unknown keys
  - Encoding, dialect and timezone names
  - Output format and log level
  - Webhook URLs, triggers and timeouts
  - Source pattern matches (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return errors.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Encoding:         %s\n", cfg.Encoding)
	fmt.Fprintf(w, "  Dialect:          %s\n", cfg.DialectValue())
	fmt.Fprintf(w, "  Timestamp layout: %s\n", cfg.TimestampLayout)
	fmt.Fprintf(w, "  Timezone:         %s\n", cfg.Location())
	fmt.Fprintf(w, "  Format:           %s\n", cfg.Format)
	fmt.Fprintf(w, "  Log level:        %s\n", cfg.Level())
	fmt.Fprintf(w, "  Jobs:             %d\n", cfg.Jobs)
	fmt.Fprintf(w, "  Sources:          %d pattern(s)\n", len(cfg.Sources))

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i := range cfg.Webhooks {
			wh := &cfg.Webhooks[i]
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, wh.Trigger, wh.DisplayName())
		}
	}

	if len(cfg.Sources) == 0 {
		return nil
	}

	// Check if sources exist (warnings only)
	files, err := parser.ExpandGlobs(cfg.Sources)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding source patterns: %v\n", err)
		return nil
	}

	fmt.Fprintf(w, "\nLog files matched: %d\n", len(files))
	missing := 0
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			missing++
			fmt.Fprintf(w, "  - %s (not found)\n", f)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", f)
	}
	if missing > 0 {
		fmt.Fprintf(w, "\nWarning: %d source(s) match no files\n", missing)
	}

	return nil
}
