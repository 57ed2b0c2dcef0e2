package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/auditready/pkg/config"
)

func newBufferLogger(level, format string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.Config{Env: "test", LogLevel: level, LogFormat: format}, &buf)
	return log, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLevelFiltersPerLogger(t *testing.T) {
	tests := []struct {
		level      string
		wantLevels []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, buf := newBufferLogger(tt.level, "json")
			log.Debug("fetching snapshot")
			log.Info("scores calculated")
			log.Warn("fallback plan attached")
			log.Error("audit run failed")

			var got []string
			for _, e := range decodeLines(t, buf) {
				got = append(got, e["level"].(string))
				assert.Equal(t, "test", e["env"])
			}
			assert.Equal(t, tt.wantLevels, got)
		})
	}

	// levels are per logger
	quiet, quietBuf := newBufferLogger("error", "json")
	loud, loudBuf := newBufferLogger("debug", "json")
	quiet.Info("dropped")
	loud.Debug("kept")
	assert.Empty(t, quietBuf.String())
	assert.Contains(t, loudBuf.String(), "kept")
}

func TestFieldHelpers(t *testing.T) {
	log, buf := newBufferLogger("info", "json")

	log.WithFields(map[string]interface{}{
		"run_id":    "run-1",
		"outlet_id": 2,
	}).WithField("state", "COMPLETED").Info("Audit run completed")

	log.WithError(errors.New("snapshot provider unreachable")).
		WithField("outlet_id", 5).
		Error("Audit run failed")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.Equal(t, float64(2), entries[0]["outlet_id"])
	assert.Equal(t, "COMPLETED", entries[0]["state"])
	assert.Equal(t, "Audit run completed", entries[0]["message"])

	assert.Equal(t, "snapshot provider unreachable", entries[1]["error"])
	assert.Equal(t, float64(5), entries[1]["outlet_id"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestChildLoggerDoesNotLeakFields(t *testing.T) {
	log, buf := newBufferLogger("info", "json")

	_ = log.WithField("run_id", "run-1")
	log.Info("idle")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "run_id")
}

func TestConsoleFormat(t *testing.T) {
	for _, format := range []string{"console", "pretty", "CONSOLE"} {
		t.Run(format, func(t *testing.T) {
			log, buf := newBufferLogger("info", format)
			log.WithField("outlet_id", 2).Info("Scores calculated")

			out := buf.String()
			assert.Contains(t, out, "Scores calculated")
			assert.Contains(t, out, "outlet_id")
			assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
		})
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithFields(map[string]interface{}{"k": "v"}).WithError(errors.New("x")).Error("ignored")
	})
}
