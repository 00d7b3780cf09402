package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "engine")

	logger.Info("term computed",
		String("sequence", "fibonacci"),
		Int64("index", 90),
		Uint64("digits", 19),
		Float64("seconds", 0.5),
		Bool("exact", true),
		Int("attempt", 1),
	)
	logger.Error("lookup failed", errors.New("boom"), String("key", "phicalc:term:fibonacci:90"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	first := lines[0]
	if first["component"] != "engine" || first["level"] != "info" || first["message"] != "term computed" {
		t.Errorf("unexpected first line: %v", first)
	}
	if first["sequence"] != "fibonacci" || first["index"] != float64(90) || first["exact"] != true {
		t.Errorf("fields not applied: %v", first)
	}
	if lines[1]["error"] != "boom" || lines[1]["level"] != "error" {
		t.Errorf("unexpected error line: %v", lines[1])
	}
}

func TestNewLoggerWithLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := NewLoggerWithLevel(&buf, "cli", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("precision loss", Int64("index", 80))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "warn" {
		t.Fatalf("expected a single warn line, got %v", lines)
	}

	if _, err := NewLoggerWithLevel(&buf, "cli", "loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestWithAddsField(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewLogger(&buf, "server").With("request_id", "abc").Debug("request", Duration("duration_ms", 1500*time.Microsecond))

	lines := decodeLines(t, &buf)
	if lines[0]["request_id"] != "abc" || lines[0]["duration_ms"] != 1.5 || lines[0]["level"] != "debug" {
		t.Errorf("unexpected line: %v", lines[0])
	}
}

func TestNopDiscards(t *testing.T) {
	t.Parallel()
	l := Nop()
	l.Info("x")
	l.Warn("y", Int("n", 1))
	l.Error("z", errors.New("e"))
}
