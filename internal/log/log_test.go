package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" Warning ", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponentIsAttachedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentFetch})
	logger.Info("hello")

	if got := strings.Count(buf.String(), "component="); got != 1 {
		t.Fatalf("expected one component attribute, got %d in %q", got, buf.String())
	}
	if logger.WithComponent(ComponentFeed).Component() != ComponentFeed {
		t.Error("WithComponent should switch the component name")
	}
}

func TestOrDefault(t *testing.T) {
	if l := OrDefault(nil, ComponentView); l == nil || l.Component() != ComponentView {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
	if l := OrDefault(Discard(), ComponentAPI); l.Component() != ComponentAPI {
		t.Fatalf("component = %q", l.Component())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithRequest("employees", "").
		WithApproval("tx-001", true).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldEndpoint] != "employees" || f[FieldTransactionID] != "tx-001" || f[FieldError] != "boom" {
		t.Errorf("unexpected fields %v", f)
	}
	if _, ok := f[FieldCacheKey]; ok {
		t.Error("empty cache key must be omitted")
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("ToSlice() length %d, want %d", got, 2*len(f))
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentHTTP}).With(FieldRequestID, "req_1")

	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info("inside")

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing from %q", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("a bare context should yield the default logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Level: slog.LevelDebug}))
	req := httptest.NewRequest(http.MethodPost, "/api/approval", nil)

	sl.LogHTTPEnd(context.Background(), req, http.StatusBadGateway, 12, "10.0.0.1")
	sl.LogApprovalChanged(context.Background(), "tx-003", false)
	sl.LogError(context.Background(), "failed", errors.New("boom"), OpFetch, nil)

	out := buf.String()
	for _, want := range []string{"level=ERROR msg=\"HTTP request completed\"", "transaction_id=tx-003", "operation=fetch"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
