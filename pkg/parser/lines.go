package parser

import "strings"

// LineKind classifies a decoded log line.
type LineKind int

const (
	// LineBlank is empty after trimming whitespace.
	LineBlank LineKind = iota
	// LineDivider consists solely of dashes and starts a new section.
	LineDivider
	// LineContent belongs to the current section.
	LineContent
)

// ClassifyLine trims the line and reports its kind along with the trimmed text.
func ClassifyLine(line string) (LineKind, string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LineBlank, ""
	}
	if strings.Trim(trimmed, "-") == "" {
		return LineDivider, trimmed
	}
	return LineContent, trimmed
}

// SplitKeyValue splits a "Key : Value" line at the first colon.
// Both halves are trimmed. ok is false when the line has no colon.
func SplitKeyValue(line string) (key, value string, ok bool) {
	k, v, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}
