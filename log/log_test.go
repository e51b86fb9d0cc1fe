package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithFormat(FormatJSON), WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown", "mountpoint", "/persist")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "/persist", recs[0]["mountpoint"])
}

func TestNew_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	New(WithOutput(&buf), WithSource(true)).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "source=")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.ErrorContains(t, err, `invalid log format "xml"`)
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithFormat(FormatJSON), WithLevel(slog.LevelDebug))
	w := NewLineWriter(logger, slog.LevelWarn, "stderr")

	n, err := w.Write([]byte("first line\nsecond "))
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	_, _ = w.Write([]byte("half\r\n"))
	_, _ = w.Write([]byte("tail"))
	w.Flush()
	w.Flush()

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "first line", recs[0]["msg"])
	assert.Equal(t, "second half", recs[1]["msg"])
	assert.Equal(t, "tail", recs[2]["msg"])
	for _, rec := range recs {
		assert.Equal(t, "stderr", rec["stream"])
		assert.Equal(t, "WARN", rec["level"])
	}
}

func TestLineWriter_Truncates(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WithOutput(&buf), WithFormat(FormatJSON))
	w := NewLineWriter(logger, slog.LevelInfo, "stdout")
	w.limit = 4

	_, _ = w.Write([]byte("abcdefgh\nok\n"))

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "abcd", recs[0]["msg"])
	assert.Equal(t, true, recs[0]["truncated"])
	assert.Equal(t, "ok", recs[1]["msg"])
	assert.NotContains(t, recs[1], "truncated")
}
