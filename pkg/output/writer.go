package output

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// ErrOutputExists is returned when the destination exists and overwriting is off.
var ErrOutputExists = errors.New("output file already exists")

// FileWriter places rendered output at its destination in one piece.
type FileWriter struct {
	// Overwrite replaces an existing destination instead of failing.
	Overwrite bool

	// Stdout receives output for the "-" path. Defaults to os.Stdout.
	Stdout io.Writer
}

// WriteFile writes data to path. The data is staged in a temporary file next
// to path and moved into place only once it is complete, so a failed write
// leaves no partial file behind.
//
// Without Overwrite the temporary file is hard-linked to path, which fails if
// path exists at that moment. With Overwrite it is renamed over path.
func (w *FileWriter) WriteFile(path string, data []byte) error {
	if path == Stdout {
		out := w.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := out.Write(data); err != nil {
			return errors.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	if !w.Overwrite {
		if _, err := os.Lstat(path); err == nil {
			return errors.Errorf("%w: %s", ErrOutputExists, path)
		}
	}

	tmpPath, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if w.Overwrite {
		if err := os.Rename(tmpPath, path); err != nil {
			return errors.Errorf("replacing %s: %w", path, err)
		}
		return nil
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Errorf("%w: %s", ErrOutputExists, path)
		}
		return errors.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", errors.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	fail := func(stage string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Errorf("%s temp file for %s: %w", stage, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("writing", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("setting mode of", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Errorf("closing temp file for %s: %w", path, err)
	}
	return tmpPath, nil
}
