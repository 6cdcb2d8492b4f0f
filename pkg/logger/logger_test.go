package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewDefaultWritesStructuredFields(t *testing.T) {
	log := NewDefault("unit")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("stream_id", "abc").Info("stream created")

	out := buf.String()
	if !strings.Contains(out, "stream created") {
		t.Fatalf("message missing from output: %s", out)
	}
	if !strings.Contains(out, "stream_id") || !strings.Contains(out, "abc") {
		t.Fatalf("field missing from output: %s", out)
	}
	if !strings.Contains(out, "service") || !strings.Contains(out, "unit") {
		t.Fatalf("service tag missing from output: %s", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	log := New(LoggingConfig{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("count", 3).Debug("tick")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "tick" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
	if record["count"] != float64(3) {
		t.Fatalf("unexpected count field: %v", record["count"])
	}
}

func TestNewIgnoresInvalidLevel(t *testing.T) {
	log := New(LoggingConfig{Level: "nonsense"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Debug("hidden at info level")
	if buf.Len() != 0 {
		t.Fatalf("debug line should be suppressed at default level: %s", buf.String())
	}

	log.Info("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("info line missing: %s", buf.String())
	}
}
