// Package server exposes signature and similarity computation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second

	// envelopeSlack covers JSON framing and field names around document text.
	envelopeSlack = 4 << 10

	// metricSource tags sketch metrics recorded by this server.
	metricSource = "http"
)

// ErrNoHasher is returned by New when Options.Hasher is nil.
var ErrNoHasher = errors.New("server: hasher is required")

// Options configures a Server. Only Hasher is required.
type Options struct {
	Hasher *minhash.Hasher

	// MaxDocumentBytes caps each document's text. Zero means unlimited.
	MaxDocumentBytes int64

	Logger         *slog.Logger
	Tracer         trace.Tracer
	RED            *observability.REDMetrics
	Sketch         *observability.SketchMetrics
	MetricsHandler http.Handler

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the simsketch HTTP API.
type Server struct {
	opts     Options
	logger   *slog.Logger
	handler  http.Handler
	draining atomic.Bool
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Hasher == nil {
		return nil, ErrNoHasher
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("simsketch")
	}

	srv := &Server{opts: opts, logger: opts.Logger}
	srv.handler = srv.routes()

	return srv, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/signature", s.handleSignature)
	mux.HandleFunc("POST /v1/similarity", s.handleSimilarity)
	mux.HandleFunc("GET /v1/config", s.handleConfig)

	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.readyCheck))

	if s.opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", s.opts.MetricsHandler)
	}

	return observability.RequestIDMiddleware(observability.HTTPMiddleware(s.opts.Tracer, s.opts.RED, mux))
}

// ErrDraining is reported by /readyz once shutdown has begun.
var ErrDraining = errors.New("server is shutting down")

func (s *Server) readyCheck(context.Context) error {
	if s.draining.Load() {
		return ErrDraining
	}

	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       orDefault(s.opts.ReadTimeout, defaultReadTimeout),
		WriteTimeout:      orDefault(s.opts.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       orDefault(s.opts.IdleTimeout, defaultIdleTimeout),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- httpSrv.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "http server listening", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.draining.Store(true)
	s.logger.InfoContext(ctx, "http server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
		orDefault(s.opts.ShutdownTimeout, defaultShutdownTimeout))
	defer cancel()

	err := httpSrv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}

	return fallback
}
