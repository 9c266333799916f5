// Package mcp exposes MinHash signatures and similarity as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/version"
)

const (
	serverName = "simsketch"
	toolCount  = 2
)

// ErrNoHasher is returned by NewServer when ServerDeps.Hasher is nil.
var ErrNoHasher = errors.New("mcp: hasher is required")

// ServerDeps holds injectable dependencies for the MCP server.
// Only Hasher is required.
type ServerDeps struct {
	// Hasher signs every document handled by the tools.
	Hasher *minhash.Hasher

	// MaxDocumentBytes caps each text argument. Zero means MaxTextBytes.
	MaxDocumentBytes int64

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics records per-tool RED metrics. Nil disables them.
	Metrics *observability.REDMetrics

	// Sketch records signature metrics. Nil disables them.
	Sketch *observability.SketchMetrics

	// Tracer creates a span per tool call. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the simsketch tools.
type Server struct {
	inner    *mcpsdk.Server
	hasher   *minhash.Hasher
	maxBytes int64
	logger   *slog.Logger
	sketch   *observability.SketchMetrics
	metrics  *observability.REDMetrics
	tracer   trace.Tracer

	mu    sync.RWMutex
	tools []string
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Hasher == nil {
		return nil, ErrNoHasher
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxBytes := deps.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = MaxTextBytes
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:    inner,
		hasher:   deps.Hasher,
		maxBytes: maxBytes,
		logger:   logger,
		sketch:   deps.Sketch,
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
		tools:    make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is cancelled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSignature,
		Description: signatureToolDescription,
	}, withMetrics(s.metrics, ToolNameSignature, withTracing(s.tracer, ToolNameSignature, s.handleSignature)))

	s.trackTool(ToolNameSignature)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameSimilarity,
		Description: similarityToolDescription,
	}, withMetrics(s.metrics, ToolNameSimilarity, withTracing(s.tracer, ToolNameSimilarity, s.handleSimilarity)))

	s.trackTool(ToolNameSimilarity)
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// toolHandler is the handler shape shared by every tool.
type toolHandler[Input any] = func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

// withTracing wraps a tool handler in a span and appends the trace ID to the
// result when the span is sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics wraps a tool handler to record RED metrics per call. A result
// flagged IsError counts as an error.
func withMetrics[Input any](metrics *observability.REDMetrics, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		end := metrics.Begin(ctx, op)

		result, output, err := handler(ctx, req, input)

		end(err != nil || (result != nil && result.IsError))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	signatureToolDescription = "Compute the MinHash signature of a text. " +
		"Returns a signature document with the shingle size, hash seeds, and per-function minima."

	similarityToolDescription = "Estimate the Jaccard similarity of two texts from their MinHash signatures. " +
		"Returns the set similarity and the positional agreement of the two signatures."
)
