package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/ccollicutt/robolog/pkg/config"
)

func TestDetect_Text(t *testing.T) {
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_full.log", dir, "full.log")

	stdout, _, err := execute(t, NewDetectCommand(), source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "=== Robocopy Log Detection ===")
	assert.Contains(t, stdout, "Encoding: utf-8")
	assert.Contains(t, stdout, "Dialect: full")
	assert.Contains(t, stdout, "Started parsed as: 2024-01-01 00:00:00")
	assert.Contains(t, stdout, "--encoding utf-8 --dialect full")
	assert.NotContains(t, stdout, "All candidates")
}

func TestDetect_UTF16WithBOM(t *testing.T) {
	dir := t.TempDir()
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(cleanLog)
	require.NoError(t, err)
	source := writeFile(t, dir, "unilog.log", encoded)

	stdout, _, err := execute(t, NewDetectCommand(), "--all", source)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Byte order mark: utf-16le")
	assert.Contains(t, stdout, "Encoding: utf-16le")
	assert.Contains(t, stdout, "All candidates")
}

func TestDetect_JSON(t *testing.T) {
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_legacy.log", dir, "legacy.log")

	stdout, _, err := execute(t, NewDetectCommand(), "--format", "json", source)
	require.NoError(t, err)

	var out JSONOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, source, out.File)
	assert.Equal(t, "legacy", out.Dialect)
	assert.True(t, out.StartedOK)
	assert.Equal(t, "Friday, March 15, 2019 9:05:07 PM", out.Started)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "utf-8", out.Matches[0].Encoding)

	stdout, _, err = execute(t, NewDetectCommand(), "-f", "json", "--all", source)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Len(t, out.Matches, 4)
}

func TestDetect_NotARobocopyLog(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "app.log", "2024-01-01 INFO started\n2024-01-01 INFO stopped\n")

	stdout, _, err := execute(t, NewDetectCommand(), source)
	require.NoError(t, err)
	assert.Contains(t, stdout, "This does not look like a Robocopy log.")

	_, _, err = execute(t, NewDetectCommand(), "--write-config", filepath.Join(dir, "robolog.yaml"), source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot generate config")
}

func TestDetect_WriteConfig(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml", ".json", ".hcl"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			source := copyTestLog(t, "robocopy_legacy.log", dir, "legacy.log")
			cfgPath := filepath.Join(dir, "robolog"+ext)

			stdout, _, err := execute(t, NewDetectCommand(), "-w", cfgPath, source)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Wrote starter config to: "+cfgPath)

			cfg, err := config.Load(context.Background(), cfgPath)
			require.NoError(t, err)
			assert.Equal(t, "utf-8", cfg.Encoding)
			assert.Equal(t, "legacy", cfg.Dialect)
			require.Len(t, cfg.Sources, 1)
			assert.True(t, filepath.IsAbs(cfg.Sources[0]))
			assert.Equal(t, "legacy.log", filepath.Base(cfg.Sources[0]))
		})
	}
}

func TestDetect_WriteConfigDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_full.log", dir, "full.log")
	cfgPath := writeFile(t, dir, "robolog.yaml", "# mine\n")

	_, _, err := execute(t, NewDetectCommand(), "-w", cfgPath, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))
}

func TestDetect_Errors(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "clean.log", cleanLog)

	_, _, err := execute(t, NewDetectCommand(), filepath.Join(dir, "missing.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file not found")

	_, _, err = execute(t, NewDetectCommand(), "--format", "xml", source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")

	_, _, err = execute(t, NewDetectCommand())
	require.Error(t, err)
}
