package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("log"), 0o644))
	}
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.log", "c.log", "b.txt", "nightly/d.log", "nightly/deep/e.log")

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "single file",
			patterns: []string{filepath.Join(dir, "a.log")},
			want:     []string{filepath.Join(dir, "a.log")},
		},
		{
			name:     "glob pattern",
			patterns: []string{filepath.Join(dir, "*.log")},
			want:     []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "c.log")},
		},
		{
			name:     "recursive pattern",
			patterns: []string{filepath.Join(dir, "nightly", "**", "*.log")},
			want: []string{
				filepath.Join(dir, "nightly", "d.log"),
				filepath.Join(dir, "nightly", "deep", "e.log"),
			},
		},
		{
			name:     "deduplicated",
			patterns: []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "*.log")},
			want:     []string{filepath.Join(dir, "a.log"), filepath.Join(dir, "c.log")},
		},
		{
			name:     "no match kept literally",
			patterns: []string{filepath.Join(dir, "*.nonexistent")},
			want:     []string{filepath.Join(dir, "*.nonexistent")},
		},
		{
			name:     "empty input",
			patterns: []string{},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandGlobs(tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandGlobs_InvalidPattern(t *testing.T) {
	_, err := ExpandGlobs([]string{"[invalid"})
	require.Error(t, err)
}

func TestExpandGlobs_Sorted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "c.log", "a.log", "b.log")

	got, err := ExpandGlobs([]string{filepath.Join(dir, "*.log")})
	require.NoError(t, err)
	assert.IsIncreasing(t, got)
}
