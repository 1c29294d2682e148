// Package log provides logging helpers for the Proxmox client: a slog
// handler that redacts session credentials, and a size-rotated log file
// writer for long-running callers.
package log

import (
	"context"
	"log/slog"
	"strings"
)

// sensitiveKeys lists attribute-key fragments whose values must never reach
// a log sink. Tickets and CSRF tokens grant API access for their whole
// lifetime, so they are treated exactly like passwords.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"ticket",
	"cookie",
	"csrf",
	"credential",
}

const redactedValue = "[REDACTED]"

// RedactingHandler is a slog.Handler that redacts sensitive attributes
// before delegating to the wrapped handler.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps next with credential redaction.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redactAttr(a))
		return true
	})

	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	clean.AddAttrs(attrs...)
	return h.next.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	}

	key := strings.ToLower(a.Key)
	for _, sens := range sensitiveKeys {
		if strings.Contains(key, sens) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}
