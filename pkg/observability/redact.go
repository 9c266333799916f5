package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxAttrValueLen caps exported string attribute values.
const maxAttrValueLen = 256

// exportedNamespaces lists the attribute key prefixes that may leave the
// process. Everything else is dropped.
var exportedNamespaces = []string{
	"simsketch.", "sketch.", "corpus.", "http.", "mcp.", "error", "request_id",
}

// withheldKeys never leave the process even inside an exported namespace.
// Document text and raw payloads would put user content into traces.
var withheldKeys = map[attribute.Key]struct{}{
	"sketch.text":   {},
	"corpus.text":   {},
	"mcp.arguments": {},
	"http.body":     {},
}

type redactor struct {
	next  sdktrace.SpanProcessor
	audit *slog.Logger

	// dropped remembers keys already reported to audit.
	dropped sync.Map
}

// NewRedactor wraps next so that ended spans expose only attributes in the
// simsketch namespaces, with long string values truncated. When audit is
// non-nil each dropped key is reported to it once.
func NewRedactor(next sdktrace.SpanProcessor, audit *slog.Logger) sdktrace.SpanProcessor {
	return &redactor{next: next, audit: audit}
}

func (r *redactor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	r.next.OnStart(parent, s)
}

func (r *redactor) OnEnd(s sdktrace.ReadOnlySpan) {
	r.next.OnEnd(redactedSpan{ReadOnlySpan: s, attrs: r.redact(s.Attributes())})
}

func (r *redactor) Shutdown(ctx context.Context) error {
	return r.next.Shutdown(ctx)
}

func (r *redactor) ForceFlush(ctx context.Context) error {
	return r.next.ForceFlush(ctx)
}

func (r *redactor) redact(attrs []attribute.KeyValue) []attribute.KeyValue {
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		if !exported(kv.Key) {
			r.report(kv.Key)

			continue
		}

		if kv.Value.Type() == attribute.STRING && len(kv.Value.AsString()) > maxAttrValueLen {
			kv = kv.Key.String(kv.Value.AsString()[:maxAttrValueLen])
		}

		kept = append(kept, kv)
	}

	return kept
}

func (r *redactor) report(key attribute.Key) {
	if r.audit == nil {
		return
	}

	if _, seen := r.dropped.LoadOrStore(key, struct{}{}); seen {
		return
	}

	r.audit.Warn("span attribute dropped by redaction", "key", string(key))
}

func exported(key attribute.Key) bool {
	if _, withheld := withheldKeys[key]; withheld {
		return false
	}

	for _, ns := range exportedNamespaces {
		if strings.HasPrefix(string(key), ns) {
			return true
		}
	}

	return false
}

// redactedSpan overrides Attributes on a read-only span.
type redactedSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s redactedSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
