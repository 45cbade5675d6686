// Package parser turns Robocopy log files into structured results.
package parser

import "time"

// Result is the structured record extracted from one Robocopy log.
// Every field is optional: nil means the log did not provide a usable value.
type Result struct {
	Started     *time.Time `json:"started,omitempty"`
	Ended       *time.Time `json:"ended,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Destination *string    `json:"destination,omitempty"`

	// Files is the file selection pattern, e.g. "*.*".
	Files   *string `json:"files,omitempty"`
	Options *string `json:"options,omitempty"`

	// Speed is in bytes per second.
	Speed *uint64 `json:"speed,omitempty"`

	Stats Stats `json:"stats"`
}

// Stats holds the footer statistics, one CopyStat per category.
type Stats struct {
	Dirs  *CopyStat `json:"dirs,omitempty"`
	Files *CopyStat `json:"files,omitempty"`

	// Bytes is only reported by the full dialect.
	Bytes *CopyStat `json:"bytes,omitempty"`
}

// CopyStat is one row of the footer statistics table.
type CopyStat struct {
	Total    uint64 `json:"total"`
	Copied   uint64 `json:"copied"`
	Skipped  uint64 `json:"skipped"`
	Mismatch uint64 `json:"mismatch"`
	Failed   uint64 `json:"failed"`
	Extras   uint64 `json:"extras"`
}

// Section identifies a region of a Robocopy log. Sections are numbered by the
// divider lines that precede them.
type Section int

const (
	SectionNone    Section = 0
	SectionBanner  Section = 1
	SectionHeader  Section = 2
	SectionListing Section = 3
	SectionFooter  Section = 4
)

// String returns a short name for the section.
func (s Section) String() string {
	switch s {
	case SectionNone:
		return "preamble"
	case SectionBanner:
		return "banner"
	case SectionHeader:
		return "header"
	case SectionListing:
		return "listing"
	case SectionFooter:
		return "footer"
	default:
		return "trailing"
	}
}

// LogLine is a decoded line before classification.
type LogLine struct {
	// Content is the decoded line text, without the line terminator.
	Content string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}

// Warning records a recoverable problem found while parsing.
type Warning struct {
	Source  string  `json:"source,omitempty"`
	LineNum int     `json:"line"`
	Section Section `json:"section"`
	Key     string  `json:"key,omitempty"`
	Message string  `json:"message"`
}

// Outcome is everything a parse pass produced: the result itself plus the
// bookkeeping used by diagnostics and reporting.
type Outcome struct {
	Result *Result

	// Sections is the number of divider lines seen.
	Sections int

	// LinesRead counts every decoded line, blank ones included.
	LinesRead int

	Warnings []Warning
}

// HasWarnings returns true if any recoverable problem was recorded.
func (o *Outcome) HasWarnings() bool {
	return len(o.Warnings) > 0
}
