package parser

// LineSource provides an iterator over decoded log lines.
// Implementations must be safe for sequential access (not concurrent).
type LineSource interface {
	// Next returns the next decoded line.
	// Returns io.EOF when no more lines are available.
	Next() (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}
