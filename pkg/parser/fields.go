package parser

import (
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Dialect selects which footer keys are recognized.
type Dialect string

const (
	// DialectFull recognizes the Dirs, Files and Bytes statistics rows.
	DialectFull Dialect = "full"
	// DialectLegacy recognizes only Dirs and Files; Bytes is an unknown key.
	DialectLegacy Dialect = "legacy"
)

// DefaultDialect is used when no dialect is configured.
const DefaultDialect = DialectFull

// ParseDialect validates a dialect name. An empty name selects DefaultDialect.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultDialect, nil
	case DialectFull:
		return DialectFull, nil
	case DialectLegacy:
		return DialectLegacy, nil
	default:
		return "", errors.Errorf("invalid dialect %q (must be full or legacy)", name)
	}
}

var (
	// ErrUnknownKey is reported for keys outside the section's key table.
	ErrUnknownKey = errors.New("unknown key")
	// ErrSpeedFormat is reported for Speed values that are not "<n> Bytes/sec.".
	ErrSpeedFormat = errors.New("unrecognized speed format")
	// ErrMalformedStats is reported for statistics rows that are not six integers.
	ErrMalformedStats = errors.New("malformed statistics")
)

const speedUnit = "Bytes/sec."

var statColumns = [...]string{"total", "copied", "skipped", "mismatch", "failed", "extras"}

// ParseSpeed parses a footer Speed value such as "12345 Bytes/sec.".
func ParseSpeed(value string) (uint64, error) {
	number, unit, ok := strings.Cut(value, " ")
	if !ok {
		return 0, errors.Errorf("%w: value %q", ErrSpeedFormat, value)
	}
	if !strings.EqualFold(unit, speedUnit) {
		return 0, errors.Errorf("%w: unexpected unit %q", ErrSpeedFormat, unit)
	}

	speed, err := strconv.ParseUint(number, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%w: number %q: %v", ErrSpeedFormat, number, err)
	}
	return speed, nil
}

// ParseCopyStat parses the six whitespace-separated columns of a statistics
// row: total, copied, skipped, mismatch, failed, extras.
func ParseCopyStat(value string) (*CopyStat, error) {
	fields := strings.Fields(value)
	if len(fields) != len(statColumns) {
		return nil, errors.Errorf("%w: %d fields instead of %d", ErrMalformedStats, len(fields), len(statColumns))
	}

	var counts [len(statColumns)]uint64
	for i, field := range fields {
		n, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, errors.Errorf("%w: %s column %q is not a count", ErrMalformedStats, statColumns[i], field)
		}
		counts[i] = n
	}

	return &CopyStat{
		Total:    counts[0],
		Copied:   counts[1],
		Skipped:  counts[2],
		Mismatch: counts[3],
		Failed:   counts[4],
		Extras:   counts[5],
	}, nil
}

// fieldSetter assigns one converted value to a Result.
type fieldSetter func(*Result)

// converter maps section keys to typed fields. It never touches a Result
// itself: callers apply the returned setter or report the error.
type converter struct {
	timestamps *TimestampParser
	dialect    Dialect
}

// header converts a section 2 key/value pair.
//
// Keys: Started, Source, Dest, Files, Options.
func (c *converter) header(key, value string) (fieldSetter, error) {
	switch key {
	case "Started":
		ts, err := c.timestamps.Parse(value)
		if err != nil {
			return nil, err
		}
		return func(r *Result) { r.Started = &ts }, nil
	case "Source":
		return func(r *Result) { r.Source = &value }, nil
	case "Dest":
		return func(r *Result) { r.Destination = &value }, nil
	case "Files":
		return func(r *Result) { r.Files = &value }, nil
	case "Options":
		return func(r *Result) { r.Options = &value }, nil
	default:
		return nil, errors.Errorf("%w: header key %q", ErrUnknownKey, key)
	}
}

// footer converts a section 4 key/value pair.
//
// Keys: Ended, Speed, Dirs, Files and, in the full dialect, Bytes.
func (c *converter) footer(key, value string) (fieldSetter, error) {
	switch key {
	case "Ended":
		ts, err := c.timestamps.Parse(value)
		if err != nil {
			return nil, err
		}
		return func(r *Result) { r.Ended = &ts }, nil
	case "Speed":
		speed, err := ParseSpeed(value)
		if err != nil {
			return nil, err
		}
		return func(r *Result) { r.Speed = &speed }, nil
	case "Dirs":
		stat, err := ParseCopyStat(value)
		if err != nil {
			return nil, errors.Errorf("parsing dirs stats: %w", err)
		}
		return func(r *Result) { r.Stats.Dirs = stat }, nil
	case "Files":
		stat, err := ParseCopyStat(value)
		if err != nil {
			return nil, errors.Errorf("parsing files stats: %w", err)
		}
		return func(r *Result) { r.Stats.Files = stat }, nil
	case "Bytes":
		if c.dialect != DialectFull {
			break
		}
		stat, err := ParseCopyStat(value)
		if err != nil {
			return nil, errors.Errorf("parsing bytes stats: %w", err)
		}
		return func(r *Result) { r.Stats.Bytes = stat }, nil
	}
	return nil, errors.Errorf("%w: footer key %q", ErrUnknownKey, key)
}
