package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const redacted = "[REDACTED]"

var sensitiveKeys = []string{"token", "authorization", "access_token", "api_key", "apikey", "secret", "password"}

// HandlerWithSpanContext decorates handler with the span's sampling flag and
// scrubs credentials. Every occurrence of a value in secrets is replaced,
// whatever key it is logged under. trace_id and span_id are added further down
// the chain by slog-otel.
func HandlerWithSpanContext(handler slog.Handler, secrets ...string) *SpanContextLogHandler {
	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return &SpanContextLogHandler{Handler: handler, secrets: nonEmpty}
}

type SpanContextLogHandler struct {
	slog.Handler
	secrets []string
}

func (t *SpanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, t.scrub(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(t.redact(a))
		return true
	})

	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		out.AddAttrs(slog.Bool("trace_sampled", s.TraceFlags().IsSampled()))
	}
	return t.Handler.Handle(ctx, out)
}

func (t *SpanContextLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		scrubbed[i] = t.redact(a)
	}
	return &SpanContextLogHandler{Handler: t.Handler.WithAttrs(scrubbed), secrets: t.secrets}
}

func (t *SpanContextLogHandler) WithGroup(name string) slog.Handler {
	return &SpanContextLogHandler{Handler: t.Handler.WithGroup(name), secrets: t.secrets}
}

func (t *SpanContextLogHandler) redact(a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		attrs := make([]any, len(group))
		for i, ga := range group {
			attrs[i] = t.redact(ga)
		}
		return slog.Group(a.Key, attrs...)
	case slog.KindString:
		return slog.String(a.Key, t.scrub(v.String()))
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, t.scrub(x.Error()))
		case json.RawMessage:
			scrubbed := t.scrub(string(x))
			if !json.Valid([]byte(scrubbed)) {
				return slog.String(a.Key, scrubbed)
			}
			return slog.Any(a.Key, json.RawMessage(scrubbed))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func (t *SpanContextLogHandler) scrub(s string) string {
	for _, secret := range t.secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
