package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestFileWriter_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")

	w := &FileWriter{}
	require.NoError(t, w.WriteFile(path, []byte(`{"stats":{}}`)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"stats":{}}`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileWriter_OverwritePolicy(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		wantErr   error
		wantData  string
	}{
		{name: "existing file kept", overwrite: false, wantErr: ErrOutputExists, wantData: "old"},
		{name: "existing file replaced", overwrite: true, wantData: "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "result.json")
			require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

			w := &FileWriter{Overwrite: tt.overwrite}
			err := w.WriteFile(path, []byte("new"))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "no temp files left behind")
		})
	}
}

func TestFileWriter_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "result.json")

	err := (&FileWriter{}).WriteFile(path, []byte("{}"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrOutputExists))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileWriter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	w := &FileWriter{Stdout: &buf}

	require.NoError(t, w.WriteFile(Stdout, []byte("{}\n")))
	assert.Equal(t, "{}\n", buf.String())
}
