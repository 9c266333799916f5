package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	logKeyTraceID   = "trace_id"
	logKeySpanID    = "span_id"
	logKeyRequestID = "request_id"
	logKeyService   = "service"
	logKeyEnv       = "env"
	logKeyMode      = "mode"
)

// ContextHandler is an [slog.Handler] that copies correlation data out of
// the record's context: the active span's trace and span IDs and the HTTP
// request ID. Static attributes given to NewContextHandler are attached to
// the inner handler before any group, so they stay at the top level.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner. Empty static attributes are ignored.
func NewContextHandler(inner slog.Handler, static ...slog.Attr) *ContextHandler {
	attrs := make([]slog.Attr, 0, len(static))

	for _, attr := range static {
		if !attr.Equal(slog.Attr{}) {
			attrs = append(attrs, attr)
		}
	}

	if len(attrs) > 0 {
		inner = inner.WithAttrs(attrs)
	}

	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	if id := RequestIDFromContext(ctx); id != "" {
		record.AddAttrs(slog.String(logKeyRequestID, id))
	}

	return h.inner.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

func optionalAttr(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}

	return slog.String(key, value)
}
