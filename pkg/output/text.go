package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions

	heading *color.Color
	warn    *color.Color
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	f := &TextFormatter{
		opts:    opts,
		heading: color.New(color.Bold),
		warn:    color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{f.heading, f.warn} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	r := report.Result

	fmt.Fprintf(w, "%s %s\n\n", f.heading.Sprint("Robocopy run:"), report.Metadata.Source)

	fields := []struct {
		label string
		value string
	}{
		{"Started", formatTime(r.Started)},
		{"Ended", formatTime(r.Ended)},
		{"Elapsed", formatElapsed(r.Started, r.Ended)},
		{"Source", deref(r.Source)},
		{"Destination", deref(r.Destination)},
		{"Files", deref(r.Files)},
		{"Options", deref(r.Options)},
		{"Speed", formatSpeed(r.Speed)},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", field.label+":", field.value)
	}
	fmt.Fprintln(w)

	if stats := renderStats(r.Stats); stats != "" {
		fmt.Fprintln(w, stats)
	} else {
		fmt.Fprintln(w, "  No statistics found")
	}

	if report.HasWarnings() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, f.warn.Sprintf("%d line(s) skipped", len(report.Metadata.Warnings)))
		if f.opts.Verbose {
			for _, warning := range report.Metadata.Warnings {
				fmt.Fprintf(w, "  - line %d (%s): %s\n", warning.LineNum, warning.Section, warning.Message)
			}
		}
	}

	if f.opts.Verbose {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Sections: %d, lines read: %d, duration: %s\n",
			report.Metadata.Sections,
			report.Metadata.LinesRead,
			report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func renderStats(stats parser.Stats) string {
	rows := []struct {
		label string
		stat  *parser.CopyStat
	}{
		{"Dirs", stats.Dirs},
		{"Files", stats.Files},
		{"Bytes", stats.Bytes},
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"", "Total", "Copied", "Skipped", "Mismatch", "Failed", "Extras"})

	found := false
	for _, row := range rows {
		if row.stat == nil {
			continue
		}
		found = true
		s := row.stat
		tw.AppendRow(table.Row{row.label, s.Total, s.Copied, s.Skipped, s.Mismatch, s.Failed, s.Extras})
	}
	if !found {
		return ""
	}

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 7; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatElapsed(start, end *time.Time) string {
	if start == nil || end == nil || end.Before(*start) {
		return ""
	}
	return end.Sub(*start).String()
}

func formatSpeed(speed *uint64) string {
	if speed == nil {
		return ""
	}
	return strconv.FormatUint(*speed, 10) + " bytes/sec"
}
