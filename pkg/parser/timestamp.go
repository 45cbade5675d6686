package parser

import (
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// DefaultTimestampLayout matches the Started/Ended values Robocopy writes,
// e.g. "Monday, January 1, 2024 12:00:00 AM".
const DefaultTimestampLayout = "Monday, January 2, 2006 3:04:05 PM"

// TimestampParser parses Robocopy timestamps with a fixed layout and location.
type TimestampParser struct {
	layout   string
	location *time.Location
}

// NewTimestampParser creates a new timestamp parser. An empty layout selects
// DefaultTimestampLayout and a nil location selects time.Local.
func NewTimestampParser(layout string, location *time.Location) *TimestampParser {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	if location == nil {
		location = time.Local
	}
	return &TimestampParser{
		layout:   layout,
		location: location,
	}
}

// Parse parses a timestamp value. Runs of whitespace are collapsed first, so
// space-padded days ("January  1") parse with the same layout.
func (p *TimestampParser) Parse(value string) (time.Time, error) {
	normalized := strings.Join(strings.Fields(value), " ")

	ts, err := time.ParseInLocation(p.layout, normalized, p.location)
	if err != nil {
		return time.Time{}, errors.Errorf("parsing timestamp %q: %w", value, err)
	}

	return ts, nil
}

// Layout returns the layout in use.
func (p *TimestampParser) Layout() string {
	return p.layout
}
