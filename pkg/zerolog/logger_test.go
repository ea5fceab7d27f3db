package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_Fields(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	buf := &bytes.Buffer{}
	logger := NewZerologLoggerWithWriter("notedly", buf)
	logger.SetLevel("DEBUG")

	logger.Info("note created", "id", "n1", 42, "ignored", "count", 3)
	logger.Error("delete failed", "error", errors.New("boom"), "dangling")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "note created", entries[0]["message"])
	assert.Equal(t, "notedly", entries[0]["service"])
	assert.Equal(t, "n1", entries[0]["id"])
	assert.EqualValues(t, 3, entries[0]["count"])
	assert.NotContains(t, entries[0], "ignored")

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
	assert.NotContains(t, entries[1], "dangling")
}

func TestLogger_SetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{level: "debug", wantDebug: true, wantWarn: true},
		{level: "INFO", wantDebug: false, wantWarn: true},
		{level: "warning", wantDebug: false, wantWarn: true},
		{level: "error", wantDebug: false, wantWarn: false},
		{level: "bogus", wantDebug: false, wantWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewZerologLoggerWithWriter("notedly", buf)
			logger.SetLevel(tt.level)

			logger.Debug("debug entry")
			logger.Warn("warn entry")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug entry"))
			assert.Equal(t, tt.wantWarn, strings.Contains(out, "warn entry"))
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	buf := &bytes.Buffer{}
	logger := NewZerologLoggerWithWriter("notedly", buf)
	logger.SetLevel("info")

	child := logger.WithContext(map[string]any{"component": "graphql"})
	child.Info("request")
	logger.Info("plain")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "graphql", entries[0]["component"])
	assert.NotContains(t, entries[1], "component")
}
