package parser

import (
	"io"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the encoding Robocopy uses for /UNILOG output.
const DefaultEncoding = "utf-16le"

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// byteOrderMark is stripped from the first decoded line.
const byteOrderMark = "\ufeff"

var builtinEncodings = map[string]encoding.Encoding{
	"utf-16le":     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be":     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"utf-8":        unicode.UTF8,
	"utf8":         unicode.UTF8,
}

var encodingAliases = map[string]string{
	"utf8":   "utf-8",
	"cp1252": "windows-1252",
}

// CanonicalEncodingName normalizes an encoding name so two spellings of the
// same encoding compare equal.
func CanonicalEncodingName(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultEncoding
	}
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	if _, ok := builtinEncodings[key]; ok {
		return key, nil
	}

	enc, err := LookupEncoding(key)
	if err != nil {
		return "", err
	}
	// Encodings without an IANA name keep the spelling they were found by.
	if canonical, nameErr := ianaindex.IANA.Name(enc); nameErr == nil {
		return strings.ToLower(canonical), nil
	}
	return key, nil
}

// LookupEncoding resolves an encoding name. The built-in names are tried
// first, then the IANA registry. An empty name selects DefaultEncoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultEncoding
	}
	if enc, ok := builtinEncodings[key]; ok {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, errors.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// EncodingNames returns the built-in encoding names, sorted.
func EncodingNames() []string {
	names := make([]string, 0, len(builtinEncodings))
	for name := range builtinEncodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDecodingReader wraps r so that it yields UTF-8. Byte sequences that are
// invalid in enc are replaced with U+FFFD instead of failing the read.
func NewDecodingReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}
