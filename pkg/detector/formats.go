package detector

import (
	"golang.org/x/text/encoding"

	"github.com/ccollicutt/robolog/pkg/parser"
)

// Candidate is an encoding the detector tries.
type Candidate struct {
	Name     string            // Name accepted by parser.LookupEncoding
	Encoding encoding.Encoding // Decoder source
	BOM      []byte            // Byte order mark that identifies it, if any
}

// DefaultCandidates returns the encodings Robocopy logs are commonly written in,
// in order of preference when scores tie.
func DefaultCandidates() []*Candidate {
	names := []struct {
		name string
		bom  []byte
	}{
		{"utf-16le", []byte{0xFF, 0xFE}},
		{"utf-16be", []byte{0xFE, 0xFF}},
		{"utf-8", []byte{0xEF, 0xBB, 0xBF}},
		{"windows-1252", nil},
	}

	candidates := make([]*Candidate, 0, len(names))
	for _, n := range names {
		enc, err := parser.LookupEncoding(n.name)
		if err != nil {
			continue
		}
		candidates = append(candidates, &Candidate{Name: n.name, Encoding: enc, BOM: n.bom})
	}
	return candidates
}

// knownKeys are the header and footer keys a Robocopy log carries.
var knownKeys = map[string]bool{
	"Started": true,
	"Source":  true,
	"Dest":    true,
	"Files":   true,
	"Options": true,
	"Ended":   true,
	"Speed":   true,
	"Dirs":    true,
	"Bytes":   true,
	"Times":   true,
}

// bannerMarker appears in the first section of every Robocopy log.
const bannerMarker = "ROBOCOPY"
