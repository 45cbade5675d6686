package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
)

// ReaderSource implements LineSource over an encoded byte stream.
type ReaderSource struct {
	reader *bufio.Reader
	closer io.Closer
	source string

	lineNum int
	done    bool
}

// NewReaderSource creates a LineSource that decodes r with enc.
// The source name is only used for reporting.
func NewReaderSource(r io.Reader, enc encoding.Encoding, source string) *ReaderSource {
	s := &ReaderSource{
		reader: bufio.NewReaderSize(NewDecodingReader(r, enc), 64*1024),
		source: source,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenFile opens a log file and returns a LineSource over its decoded lines.
func OpenFile(path string, enc encoding.Encoding) (*ReaderSource, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, errors.Errorf("opening log file %s: %w", path, err)
	}
	return NewReaderSource(f, enc, path), nil
}

// Next returns the next decoded line.
// Returns io.EOF when the stream has been exhausted.
func (s *ReaderSource) Next() (*LogLine, error) {
	if s.done {
		return nil, io.EOF
	}

	text, err := s.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, errors.Errorf("reading %s: %w", s.source, err)
		}
		s.done = true
		if text == "" {
			return nil, io.EOF
		}
	}

	s.lineNum++
	text = strings.TrimRight(text, "\r\n")
	if s.lineNum == 1 {
		text = strings.TrimPrefix(text, byteOrderMark)
	}

	return &LogLine{
		Content: text,
		Source:  s.source,
		LineNum: s.lineNum,
	}, nil
}

// Close releases the underlying stream, if it can be closed.
func (s *ReaderSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
