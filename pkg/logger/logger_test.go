package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
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
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, Format: FormatJSON}).With(Component("distribute_class"))

	log.Info("class volume distributed",
		TutorID("00321234"),
		LearningUnit("LDROI1001", 2020),
		ClassCode("X"),
		Volume(decimal.RequireFromString("12.5")),
	)
	log.Debug("hidden")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "class volume distributed", e["message"])
	assert.Equal(t, "distribute_class", e["component"])
	assert.Equal(t, "00321234", e["tutor_id"])
	assert.Equal(t, "12.5", e["volume"])
	assert.Equal(t, map[string]any{"code": "LDROI1001", "year": float64(2020)}, e["learning_unit"])
	assert.Contains(t, e, "timestamp")
}

func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug})

	log.Error("save failed", Err(errors.New("connection reset")))
	log.Warn("no error", Err(nil))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "connection reset", entries[0]["error"])
	assert.NotContains(t, entries[1], "error")
}

func TestLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, Level: LevelWarn, Format: FormatConsole}).Warn("cache disabled")

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "cache disabled")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
		"fatal":   LevelFatal,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestContext(t *testing.T) {
	log := NewNop()
	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
