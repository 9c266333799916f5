package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
)

func jsonRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestContextHandler_AddsTraceIDs(t *testing.T) {
	t.Parallel()

	tp, _ := newTracer(t, nil)

	var buf bytes.Buffer

	logger := slog.New(observability.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "signed")
	span.End()

	record := jsonRecord(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
}

func TestContextHandler_NoSpanNoIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	logger.Info("plain")

	record := jsonRecord(t, &buf)
	assert.NotContains(t, record, "trace_id")
	assert.NotContains(t, record, "request_id")
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	logger.InfoContext(observability.WithRequestID(context.Background(), "req-7"), "handled")

	assert.Equal(t, "req-7", jsonRecord(t, &buf)["request_id"])
}

func TestContextHandler_StaticAttrsStayTopLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewContextHandler(slog.NewJSONHandler(&buf, nil),
		slog.String("service", "simsketch"),
		slog.Attr{},
	)

	slog.New(handler).WithGroup("sketch").Info("built", "hash_count", 64)

	record := jsonRecord(t, &buf)
	assert.Equal(t, "simsketch", record["service"])

	group, ok := record["sketch"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 64, group["hash_count"], 0)
}

func TestContextHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("source", "a.txt")
	logger.Info("skipped")

	assert.Equal(t, "a.txt", jsonRecord(t, &buf)["source"])
}

func TestContextHandler_Enabled(t *testing.T) {
	t.Parallel()

	handler := observability.NewContextHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
}
