package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNew_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.HTTPCall("GET", "/albums/", 200, time.Millisecond, nil)
	if buf.Len() != 0 {
		t.Fatalf("debug call log should be filtered at warn level, got %q", buf.String())
	}

	logger.HTTPCall("POST", "/reviews/", 400, time.Millisecond, errors.New("bad request"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["path"] != "/reviews/" {
		t.Errorf("path = %v, want /reviews/", entry["path"])
	}
	if entry["status_code"] != float64(400) {
		t.Errorf("status_code = %v, want 400", entry["status_code"])
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "loud", Format: "json", Output: &buf})

	z := logger.Zerolog()
	z.Debug().Msg("hidden")
	z.Info().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message should not be logged at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("info message should be logged")
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Fatalf("RequestID() = %q, want req-123", got)
	}

	logger.WithContext(ctx).Info().Msg("hello")
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Errorf("log line missing request id: %s", buf.String())
	}
}
