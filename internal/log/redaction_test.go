package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := NewRedactingHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return slog.New(handler), &buf
}

func TestRedactingHandler_SensitiveKeys(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"password", "hunter2"},
		{"ticket", "PVE:user@pam:4EEC61E2::sig"},
		{"csrf_token", "4EEC61E2:abc=="},
		{"Cookie", "PVEAuthCookie=PVE:user@pam:4EEC61E2::sig"},
		{"api_token", "xyz"},
		{"credentials", "user:pass"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			logger, buf := newTestLogger()
			logger.Info("test", tt.key, tt.value)

			out := buf.String()
			if strings.Contains(out, tt.value) {
				t.Errorf("sensitive value leaked into log output: %s", out)
			}
			if !strings.Contains(out, redactedValue) {
				t.Errorf("redaction marker missing: %s", out)
			}
		})
	}
}

func TestRedactingHandler_PassesOrdinaryAttrs(t *testing.T) {
	logger, buf := newTestLogger()
	logger.Info("request completed", "method", "GET", "path", "nodes", "status", 200)

	out := buf.String()
	for _, want := range []string{"method=GET", "path=nodes", "status=200"} {
		if !strings.Contains(out, want) {
			t.Errorf("ordinary attribute dropped: want %q in %s", want, out)
		}
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	logger, buf := newTestLogger()
	logger = logger.With("ticket", "PVE:user@pam:4EEC61E2::sig")
	logger.Info("test")

	if strings.Contains(buf.String(), "4EEC61E2") {
		t.Errorf("value bound via With leaked: %s", buf.String())
	}
}

func TestRedactingHandler_Groups(t *testing.T) {
	logger, buf := newTestLogger()
	logger.Info("test", slog.Group("session",
		slog.String("ticket", "PVE:u@pam:1::s"),
		slog.String("realm", "pam")))

	out := buf.String()
	if strings.Contains(out, "PVE:u@pam") {
		t.Errorf("grouped sensitive value leaked: %s", out)
	}
	if !strings.Contains(out, "realm=pam") {
		t.Errorf("grouped ordinary attribute dropped: %s", out)
	}
}
