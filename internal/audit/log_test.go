package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"scanandgo.org/internal/auth"
	"scanandgo.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithClaims(ctx, auth.Claims{
		CustomerID: 42,
		Username:   "scanner01",
		Role:       auth.RoleAgent,
	})

	if err := LogEvent(ctx, "auth.signin.success", map[string]any{"role": "agent"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "auth.signin.success" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["username"] != "scanner01" {
		t.Fatalf("unexpected username: %v", entry["username"])
	}
	if entry["customer_id"].(float64) != 42 {
		t.Fatalf("unexpected customer id: %v", entry["customer_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["role"] != "agent" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-9")
	if got := RequestIDFromContext(ctx); got != "req-9" {
		t.Fatalf("unexpected request id: %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	// Blank ids are not attached.
	ctx = WithRequestID(context.Background(), "   ")
	if got := RequestIDFromContext(ctx); got != "" {
		t.Fatalf("expected blank id to be dropped, got %q", got)
	}
}
