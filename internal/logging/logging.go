// Package logging builds the zerolog logger each run writes diagnostics to.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Options configures New.
type Options struct {
	// Level is the minimum level name (debug, info, warn, error).
	// Empty means info.
	Level string

	// File receives JSON lines when set. It is appended to, never truncated.
	File string

	// Console receives human-readable output when File is empty.
	// Defaults to os.Stderr.
	Console io.Writer

	// RunID tags every entry. A random id is generated when empty.
	RunID string
}

// New creates a run logger and returns a function that releases its output.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nil, errors.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var (
		w       io.Writer
		release = func() error { return nil }
	)

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- user-provided log path is expected
		if err != nil {
			return zerolog.Nop(), nil, errors.Errorf("opening log file: %w", err)
		}
		w = f
		release = f.Close
	} else {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		// batch runs log from several goroutines
		w = zerolog.ConsoleWriter{
			Out:        zerolog.SyncWriter(console),
			NoColor:    !IsTerminal(console),
			TimeFormat: time.TimeOnly,
		}
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return logger, release, nil
}

// IsTerminal reports whether w is a terminal, so output to it may use color.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
