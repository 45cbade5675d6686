// Package detector guesses how a Robocopy log file is encoded and laid out.
package detector

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/transform"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// DefaultSampleSize is the number of bytes read from each end of a file.
const DefaultSampleSize = 64 * 1024

// DetectionResult holds the result of analyzing a log file.
type DetectionResult struct {
	Matches      []EncodingMatch // Candidates sorted by score descending
	SampledBytes int             // Number of bytes examined
	BOM          string          // Candidate named by a leading byte order mark
	Dialect      parser.Dialect  // Footer dialect suggested by the best match
	DialectNote  string          // Why the dialect was chosen
	Started      *time.Time      // Started value parsed with the default layout
	StartedRaw   string          // Started value as written
}

// EncodingMatch is one candidate's score.
type EncodingMatch struct {
	Candidate    *Candidate
	Score        float64 // 0.0 to 1.0
	Dividers     int     // Dash divider lines found
	KnownKeys    int     // Lines with a recognized key
	Banner       bool    // ROBOCOPY banner seen
	Replacements int     // Undecodable or NUL characters
	SampleLine   string  // First line with a recognized key
}

// Detector analyzes log files to identify their encoding.
type Detector struct {
	candidates []*Candidate
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of bytes read from the head and the tail
// of a file (default 64 KiB).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithCandidates replaces the encodings that are tried.
func WithCandidates(candidates ...*Candidate) Option {
	return func(d *Detector) {
		if len(candidates) > 0 {
			d.candidates = candidates
		}
	}
}

// New creates a new Detector with the default candidates.
func New(opts ...Option) *Detector {
	d := &Detector{
		candidates: DefaultCandidates(),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples the start and the end of a log file and scores
// every candidate encoding. The footer sits at the end of the file, so both
// ends are read.
func (d *Detector) DetectFromFile(_ context.Context, path string) (*DetectionResult, error) {
	f, err := os.Open(path) // #nosec G304 -- path is provided by user via CLI
	if err != nil {
		return nil, errors.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Errorf("reading log file info: %w", err)
	}

	size := info.Size()
	if size <= int64(2*d.sampleSize) {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.Errorf("reading log file: %w", err)
		}
		return d.DetectFromBytes(data), nil
	}

	head := make([]byte, d.sampleSize)
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, errors.Errorf("reading log file head: %w", err)
	}

	// Keep the tail on an even offset so UTF-16 code units stay aligned.
	offset := (size - int64(d.sampleSize)) &^ 1
	tail := make([]byte, size-offset)
	if _, err := f.ReadAt(tail, offset); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("reading log file tail: %w", err)
	}

	return d.DetectFromBytes(head, tail), nil
}

// DetectFromBytes scores every candidate against the given chunks. The first
// chunk is treated as the start of the file.
func (d *Detector) DetectFromBytes(chunks ...[]byte) *DetectionResult {
	result := &DetectionResult{Dialect: parser.DefaultDialect}
	for _, chunk := range chunks {
		result.SampledBytes += len(chunk)
	}
	if result.SampledBytes == 0 {
		return result
	}

	if len(chunks) > 0 {
		for _, c := range d.candidates {
			if len(c.BOM) > 0 && bytes.HasPrefix(chunks[0], c.BOM) {
				result.BOM = c.Name
				break
			}
		}
	}

	decoded := make(map[string][]string, len(d.candidates))
	for _, c := range d.candidates {
		lines, ok := decodeLines(c, chunks)
		if !ok {
			continue
		}
		decoded[c.Name] = lines
		result.Matches = append(result.Matches, score(c, lines))
	}

	rank := make(map[*Candidate]int, len(d.candidates))
	for i, c := range d.candidates {
		rank[c] = i
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if aBOM, bBOM := a.Candidate.Name == result.BOM, b.Candidate.Name == result.BOM; aBOM != bBOM {
			return aBOM
		}
		return rank[a.Candidate] < rank[b.Candidate]
	})

	if best := result.BestMatch(); best != nil {
		result.inspect(decoded[best.Candidate.Name])
	}

	return result
}

func decodeLines(c *Candidate, chunks [][]byte) ([]string, bool) {
	var lines []string
	for _, chunk := range chunks {
		text, _, err := transform.Bytes(c.Encoding.NewDecoder(), chunk)
		if err != nil {
			return nil, false
		}
		s := strings.TrimPrefix(string(text), "\ufeff")
		lines = append(lines, strings.Split(s, "\n")...)
	}
	return lines, true
}

func score(c *Candidate, lines []string) EncodingMatch {
	m := EncodingMatch{Candidate: c}
	runes := 0

	for _, line := range lines {
		runes += utf8.RuneCountInString(line)
		m.Replacements += strings.Count(line, "\ufffd") + strings.Count(line, "\x00")

		kind, text := parser.ClassifyLine(line)
		switch kind {
		case parser.LineDivider:
			m.Dividers++
			continue
		case parser.LineBlank:
			continue
		}

		if strings.Contains(text, bannerMarker) {
			m.Banner = true
		}
		if key, _, ok := parser.SplitKeyValue(text); ok && knownKeys[key] {
			m.KnownKeys++
			if m.SampleLine == "" {
				m.SampleLine = text
			}
		}
	}

	if runes == 0 {
		return m
	}

	s := 0.4*ratio(m.Dividers, 4) + 0.4*ratio(m.KnownKeys, 8)
	if m.Banner {
		s += 0.2
	}
	clean := 1 - float64(m.Replacements)/float64(runes)
	if clean < 0 {
		clean = 0
	}
	m.Score = s * clean
	return m
}

func ratio(n, target int) float64 {
	if n >= target {
		return 1
	}
	return float64(n) / float64(target)
}

// inspect derives the dialect and timestamp hints from the best decoding.
func (r *DetectionResult) inspect(lines []string) {
	ts := parser.NewTimestampParser("", nil)

	for _, line := range lines {
		kind, text := parser.ClassifyLine(line)
		if kind != parser.LineContent {
			continue
		}
		key, value, ok := parser.SplitKeyValue(text)
		if !ok {
			continue
		}

		switch key {
		case "Started":
			if r.StartedRaw != "" {
				continue
			}
			r.StartedRaw = value
			if t, err := ts.Parse(value); err == nil {
				r.Started = &t
			}
		case "Bytes":
			if _, err := parser.ParseCopyStat(value); err != nil {
				r.Dialect = parser.DialectLegacy
				r.DialectNote = "Bytes row is not six plain counts"
			} else {
				r.Dialect = parser.DialectFull
				r.DialectNote = "Bytes row has six plain counts"
			}
		}
	}
}

// BestMatch returns the highest scoring candidate, or nil if none scored.
func (r *DetectionResult) BestMatch() *EncodingMatch {
	if !r.HasMatch() {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one candidate looks like a Robocopy log.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0 && r.Matches[0].Score > 0
}
