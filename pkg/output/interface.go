package output

import (
	"bytes"
	"context"
	"io"

	"gitlab.com/tozd/go/errors"
)

// Formatter renders parse reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (json, text).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose includes parse metadata and the individual warnings.
	Verbose bool

	// Color enables ANSI colors in text output.
	Color bool
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "json":
		return NewJSONFormatter(opts), nil
	case "text":
		return NewTextFormatter(opts), nil
	default:
		return nil, errors.Errorf("unknown output format %q (use json or text)", name)
	}
}

// Render formats the report into memory so it can be written in one piece.
func Render(ctx context.Context, f Formatter, report *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Format(ctx, report, &buf); err != nil {
		return nil, errors.Errorf("formatting %s output: %w", f.Name(), err)
	}
	return buf.Bytes(), nil
}
