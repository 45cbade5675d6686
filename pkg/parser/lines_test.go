package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind LineKind
		wantText string
	}{
		{name: "empty", input: "", wantKind: LineBlank},
		{name: "whitespace", input: " \t  ", wantKind: LineBlank},
		{name: "single dash", input: "-", wantKind: LineDivider, wantText: "-"},
		{name: "long divider", input: "  ------------  ", wantKind: LineDivider, wantText: "------------"},
		{name: "key value", input: "   Source : C:\\ ", wantKind: LineContent, wantText: "Source : C:\\"},
		{name: "dash prefix", input: "--mirror", wantKind: LineContent, wantText: "--mirror"},
		{name: "dashes around text", input: "-- x --", wantKind: LineContent, wantText: "-- x --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, text := ClassifyLine(tt.input)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{name: "simple", input: "Source : C:\\Data\\", wantKey: "Source", wantValue: "C:\\Data\\", wantOK: true},
		{name: "first colon only", input: "Options : /COPY:DAT /R:3", wantKey: "Options", wantValue: "/COPY:DAT /R:3", wantOK: true},
		{name: "empty value", input: "Files :", wantKey: "Files", wantValue: "", wantOK: true},
		{name: "multi word key", input: "Exc Files : *.tmp", wantKey: "Exc Files", wantValue: "*.tmp", wantOK: true},
		{name: "no colon", input: "Total    Copied   Skipped", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, ok := SplitKeyValue(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestSectionString(t *testing.T) {
	assert.Equal(t, "preamble", SectionNone.String())
	assert.Equal(t, "header", SectionHeader.String())
	assert.Equal(t, "footer", SectionFooter.String())
	assert.Equal(t, "trailing", Section(7).String())
}

func TestTimestampParser(t *testing.T) {
	p := NewTimestampParser("", time.UTC)
	assert.Equal(t, DefaultTimestampLayout, p.Layout())

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "midnight", input: "Monday, January 1, 2024 12:00:00 AM", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "padded day", input: "Monday, January  1, 2024 12:00:00 AM", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "afternoon", input: "Friday, March 15, 2019 9:05:07 PM", want: time.Date(2019, 3, 15, 21, 5, 7, 0, time.UTC)},
		{name: "wrong weekday", input: "Tuesday, January 1, 2024 12:00:00 AM", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "not-a-date", wantErr: true},
		{name: "iso", input: "2024-01-01T00:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestTimestampParser_DefaultsToLocal(t *testing.T) {
	p := NewTimestampParser("", nil)
	got, err := p.Parse("Monday, January 1, 2024 12:00:00 AM")
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())
}
