package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/robolog/pkg/parser"
)

func ptr[T any](v T) *T {
	return &v
}

func createTestReport() *Report {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Second)

	outcome := &parser.Outcome{
		Result: &parser.Result{
			Started:     &started,
			Ended:       &ended,
			Source:      ptr(`C:\Data\`),
			Destination: ptr(`\\nas\backup\`),
			Files:       ptr("*.*"),
			Options:     ptr("/MIR /R:3"),
			Speed:       ptr(uint64(300000)),
			Stats: parser.Stats{
				Dirs:  &parser.CopyStat{Total: 1, Copied: 1},
				Files: &parser.CopyStat{Total: 12, Copied: 10, Skipped: 2},
			},
		},
		Sections:  4,
		LinesRead: 40,
		Warnings: []parser.Warning{
			{Source: "run.log", LineNum: 31, Section: parser.SectionFooter, Key: "Times", Message: "unknown key"},
		},
	}

	now := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	return NewReport("run.log", outcome, now.Add(-5*time.Millisecond), now)
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{name: "", wantName: "json"},
		{name: "json", wantName: "json"},
		{name: "text", wantName: "text"},
		{name: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name, FormatOptions{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, f.Name())
		})
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatOptions{}).Format(context.Background(), createTestReport(), &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2024-01-01T00:00:00Z", doc["started"])
	assert.Equal(t, `\\nas\backup\`, doc["destination"])
	assert.EqualValues(t, 300000, doc["speed"])
	assert.NotContains(t, doc, "metadata")

	stats, ok := doc["stats"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, stats, "dirs")
	assert.Contains(t, stats, "files")
	assert.NotContains(t, stats, "bytes")

	files := stats["files"].(map[string]any)
	assert.EqualValues(t, 12, files["total"])
	assert.EqualValues(t, 2, files["skipped"])
	assert.EqualValues(t, 0, files["extras"])

	assert.Contains(t, buf.String(), "\n  \"started\"", "two space indent")
}

func TestJSONFormatter_EmptyResult(t *testing.T) {
	report := NewReport("empty.log", &parser.Outcome{Result: &parser.Result{}}, time.Time{}, time.Time{})

	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatOptions{}).Format(context.Background(), report, &buf))
	assert.JSONEq(t, `{"stats":{}}`, buf.String())
}

func TestJSONFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatOptions{Verbose: true}).Format(context.Background(), createTestReport(), &buf))

	var parsed Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "run.log", parsed.Metadata.Source)
	assert.Equal(t, 4, parsed.Metadata.Sections)
	require.Len(t, parsed.Metadata.Warnings, 1)
	assert.Equal(t, "Times", parsed.Metadata.Warnings[0].Key)
	require.NotNil(t, parsed.Result.Speed)
	assert.Equal(t, uint64(300000), *parsed.Result.Speed)
}

func TestRender(t *testing.T) {
	data, err := Render(context.Background(), NewJSONFormatter(FormatOptions{}), createTestReport())
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}
