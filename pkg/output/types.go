// Package output renders parse results and writes them to their destination.
package output

import (
	"time"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// Report is a parsed log plus the context of the run that produced it.
type Report struct {
	// Result is the structured record extracted from the log.
	Result *parser.Result `json:"result"`

	// Metadata describes the parse itself.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about the parse run.
type Metadata struct {
	// Source is the log file that was parsed.
	Source string `json:"source"`

	// Sections is the number of dash dividers seen.
	Sections int `json:"sections"`

	// LinesRead is the number of lines decoded from the source.
	LinesRead int `json:"lines_read"`

	// Warnings lists lines that were skipped.
	Warnings []parser.Warning `json:"warnings,omitempty"`

	// ParsedAt is when the parse finished.
	ParsedAt time.Time `json:"parsed_at"`

	// Duration is how long the parse took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a parse outcome.
func NewReport(source string, outcome *parser.Outcome, start, end time.Time) *Report {
	return &Report{
		Result: outcome.Result,
		Metadata: Metadata{
			Source:    source,
			Sections:  outcome.Sections,
			LinesRead: outcome.LinesRead,
			Warnings:  outcome.Warnings,
			ParsedAt:  end,
			Duration:  end.Sub(start),
		},
	}
}

// HasWarnings returns true if any line was skipped during the parse.
func (r *Report) HasWarnings() bool {
	return len(r.Metadata.Warnings) > 0
}
