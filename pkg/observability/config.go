// Package observability wires OpenTelemetry tracing, metrics, and slog-based
// structured logging for every simsketch entry point (CLI, MCP, HTTP server).
package observability

import (
	"io"
	"log/slog"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command such as signature or compare.
	ModeCLI AppMode = "cli"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
	// ModeServe is the HTTP server.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName     = "simsketch"
	defaultShutdownTimeout = 5 * time.Second
)

// Config selects which telemetry pipelines Init builds.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is a gRPC collector address such as "localhost:4317".
	// Empty keeps tracing a no-op and skips OTLP metric export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// DebugTrace samples every span and logs attributes dropped by redaction.
	DebugTrace bool

	// SampleRatio applies to root spans when DebugTrace is off and
	// OTEL_TRACES_SAMPLER is unset. Zero samples everything.
	SampleRatio float64

	// Prometheus exposes metrics through Providers.MetricsHandler.
	Prometheus bool

	LogLevel slog.Level
	LogJSON  bool

	// LogOutput receives log records. Nil means stderr, which keeps stdout
	// free for command output and the MCP protocol.
	LogOutput io.Writer

	// ShutdownTimeout bounds the final flush. Zero uses five seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config suitable for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}
