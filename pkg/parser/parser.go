package parser

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
)

// Parser extracts a Result from a Robocopy log.
//
// A log has four sections, each introduced by a line of dashes:
//  1. the ROBOCOPY banner
//  2. the header (run metadata)
//  3. the per-file listing
//  4. the footer (summary statistics)
//
// Only the header and the footer are read.
type Parser struct {
	encoding encoding.Encoding
	layout   string
	location *time.Location
	dialect  Dialect
}

// Option configures the Parser.
type Option func(*Parser)

// WithEncoding sets the input encoding (default UTF-16LE).
func WithEncoding(enc encoding.Encoding) Option {
	return func(p *Parser) {
		if enc != nil {
			p.encoding = enc
		}
	}
}

// WithTimestampLayout overrides DefaultTimestampLayout.
func WithTimestampLayout(layout string) Option {
	return func(p *Parser) {
		p.layout = layout
	}
}

// WithLocation sets the time zone timestamps are interpreted in (default local).
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		p.location = loc
	}
}

// WithDialect selects the footer dialect (default full).
func WithDialect(d Dialect) Option {
	return func(p *Parser) {
		if d != "" {
			p.dialect = d
		}
	}
}

// New creates a Parser with the given options.
func New(opts ...Option) *Parser {
	p := &Parser{
		encoding: builtinEncodings[DefaultEncoding],
		dialect:  DefaultDialect,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile opens and parses the log at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Outcome, error) {
	src, err := OpenFile(path, p.encoding)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, src)
}

// ParseReader parses an encoded log stream. name is used in warnings.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader, name string) (*Outcome, error) {
	return p.Parse(ctx, NewReaderSource(r, p.encoding, name))
}

// Parse consumes src until io.EOF and closes it before returning.
//
// Field-level problems never fail the parse: they are logged through the
// zerolog logger carried by ctx and recorded in Outcome.Warnings. Only read
// errors from src are returned.
func (p *Parser) Parse(ctx context.Context, src LineSource) (outcome *Outcome, err error) {
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			outcome, err = nil, errors.Errorf("closing log: %w", closeErr)
		}
	}()

	logger := zerolog.Ctx(ctx)
	conv := &converter{
		timestamps: NewTimestampParser(p.layout, p.location),
		dialect:    p.dialect,
	}

	outcome = &Outcome{Result: &Result{}}
	section := SectionNone

	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		outcome.LinesRead++

		kind, text := ClassifyLine(line.Content)
		switch kind {
		case LineBlank:
			continue
		case LineDivider:
			section++
			continue
		}

		var convert func(key, value string) (fieldSetter, error)
		switch section {
		case SectionHeader:
			convert = conv.header
		case SectionFooter:
			convert = conv.footer
		default:
			continue
		}

		if strings.ContainsRune(text, utf8.RuneError) {
			outcome.warn(logger, line, section, "", errUndecodableLine)
		}

		key, value, ok := SplitKeyValue(text)
		if !ok {
			continue
		}

		apply, err := convert(key, value)
		if err != nil {
			outcome.warn(logger, line, section, key, err)
			continue
		}
		apply(outcome.Result)
	}

	outcome.Sections = int(section)
	return outcome, nil
}

var errUndecodableLine = errors.New("line contains undecodable bytes")

func (o *Outcome) warn(logger *zerolog.Logger, line *LogLine, section Section, key string, reason error) {
	o.Warnings = append(o.Warnings, Warning{
		Source:  line.Source,
		LineNum: line.LineNum,
		Section: section,
		Key:     key,
		Message: reason.Error(),
	})

	evt := logger.Warn().
		Str("source", line.Source).
		Int("line", line.LineNum).
		Str("section", section.String())
	if key != "" {
		evt = evt.Str("key", key)
	}
	evt.Err(reason).Msgf("skipping %s line", section)
}
