package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/robolog/pkg/config"
)

func TestDiagnose_CleanLog(t *testing.T) {
	t.Setenv(config.EnvEncoding, "utf-8")
	dir := t.TempDir()
	source := writeFile(t, dir, "clean.log", cleanLog)

	stdout, _, err := execute(t, NewDiagnoseCommand(), source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "=== Robolog Diagnostics ===")
	assert.Contains(t, stdout, "[PASS] Config")
	assert.Contains(t, stdout, "[PASS] Encoding")
	assert.Contains(t, stdout, "[PASS] Sections")
	assert.Contains(t, stdout, "All 10 fields found")
	assert.Contains(t, stdout, "No lines skipped")
	assert.Contains(t, stdout, "0 warnings, 0 errors")
	assert.Contains(t, stdout, "The log parses cleanly.")
}

func TestDiagnose_WrongEncoding(t *testing.T) {
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_full.log", dir, "full.log")

	stdout, _, err := execute(t, NewDiagnoseCommand(), source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "[WARN] Encoding")
	assert.Contains(t, stdout, "Configured encoding utf-16le, but the file looks like utf-8")
	assert.Contains(t, stdout, "Hint: Use --encoding utf-8")
	assert.Contains(t, stdout, "[WARN] Sections")
}

func TestDiagnose_SkippedLinesWithConfig(t *testing.T) {
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_full.log", dir, "full.log")
	cfgPath := writeFile(t, dir, "robolog.yaml", "encoding: utf-8\n")

	stdout, _, err := execute(t, NewDiagnoseCommand(), "-c", cfgPath, source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Loaded: "+cfgPath)
	assert.Contains(t, stdout, "[WARN] Skipped Lines")
	assert.Contains(t, stdout, "2 line(s) skipped")
	assert.Contains(t, stdout, "line 26 (footer)")
	assert.Contains(t, stdout, "line 30 (footer)")
}

func TestDiagnose_DialectMismatch(t *testing.T) {
	t.Setenv(config.EnvEncoding, "utf-8")
	dir := t.TempDir()
	source := copyTestLog(t, "robocopy_legacy.log", dir, "legacy.log")

	stdout, _, err := execute(t, NewDiagnoseCommand(), source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "[WARN] Dialect")
	assert.Contains(t, stdout, "Configured dialect full, but the file looks like legacy")
	assert.Contains(t, stdout, "Hint: Use --dialect legacy")
	assert.Contains(t, stdout, "missing: Speed, Bytes stats")
}

func TestDiagnose_Webhooks(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "clean.log", cleanLog)
	cfgPath := writeFile(t, dir, "robolog.yaml", `encoding: utf-8
webhooks:
  - name: ops
    url: http://hooks.example.com/robocopy
  - name: muted
    url: https://hooks.example.com/muted
    trigger: never
`)

	stdout, _, err := execute(t, NewDiagnoseCommand(), "-c", cfgPath, "-v", source)
	require.NoError(t, err)

	assert.Contains(t, stdout, "[PASS] Webhook: ops")
	assert.Contains(t, stdout, "POST http://hooks.example.com/robocopy (trigger always, timeout 10s)")
	assert.Contains(t, stdout, "URL is not https")
	assert.Contains(t, stdout, "[WARN] Webhook: muted")
}

func TestDiagnose_Failures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "missing log",
			args: []string{filepath.Join(dir, "missing.log")},
			want: []string{"[FAIL] Log File", "Log file not found"},
		},
		{
			name: "directory",
			args: []string{dir},
			want: []string{"[FAIL] Log File", "Path is a directory"},
		},
		{
			name: "bad config",
			args: []string{"-c", writeFile(t, dir, "bad.yaml", "encoding: klingon\n"), "run.log"},
			want: []string{"[FAIL] Config", "robolog validate"},
		},
		{
			name: "empty log",
			args: []string{writeFile(t, dir, "empty.log", "")},
			want: []string{"[WARN] Log File", "Log file is empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, NewDiagnoseCommand(), tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}
}
