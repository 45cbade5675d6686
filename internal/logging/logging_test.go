package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("{\"earlier\":true}\n"), 0o644))

	logger, release, err := New(Options{File: path, RunID: "run-1"})
	require.NoError(t, err)
	logger.Info().Str("source", "a.log").Msg("parsed")
	logger.Debug().Msg("hidden at info")
	require.NoError(t, release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "appends and filters by level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "a.log", entry["source"])
	assert.Equal(t, "parsed", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, release, err := New(Options{Console: &buf, Level: "DEBUG"})
	require.NoError(t, err)
	defer func() { _ = release() }()

	logger.Debug().Int("line", 7).Msg("skipping header line")

	out := buf.String()
	assert.Contains(t, out, "skipping header line")
	assert.Contains(t, out, "line=7")
	assert.Contains(t, out, "run_id=")
	assert.NotContains(t, out, "\x1b[", "buffers are not terminals")
}

func TestNew_GeneratesRunID(t *testing.T) {
	var first, second bytes.Buffer
	a, _, err := New(Options{Console: &first})
	require.NoError(t, err)
	b, _, err := New(Options{Console: &second})
	require.NoError(t, err)

	a.Info().Msg("x")
	b.Info().Msg("x")
	assert.NotEqual(t, first.String(), second.String())
}

func TestNew_Errors(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	require.Error(t, err)

	_, _, err = New(Options{File: filepath.Join(t.TempDir(), "missing", "run.log")})
	require.Error(t, err)
}

func TestNew_Level(t *testing.T) {
	logger, _, err := New(Options{Console: &bytes.Buffer{}, Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}
