package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/server"
)

// ServeCommand holds the configuration for the serve command.
type ServeCommand struct {
	sketch sketchFlags
	host   string
	port   int
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	sc := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve signatures and similarity estimates over HTTP.

Endpoints:
  POST /v1/signature   {"text": "..."} -> signature document
  POST /v1/similarity  {"a": "...", "b": "..."} or {"signatures": [doc, doc]}
  GET  /v1/config      hasher parameters
  GET  /healthz        liveness
  GET  /readyz         readiness
  GET  /metrics        Prometheus metrics

Request bodies may be sent with "Content-Encoding: lz4". Pin --seed (or
sketch.seeds in the config file) so signatures stay comparable across
restarts.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	sc.sketch.register(cmd)
	cmd.Flags().StringVar(&sc.host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVarP(&sc.port, "port", "p", 0, "Listen port (overrides server.port)")

	return cmd
}

func (sc *ServeCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := sc.sketch.load(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = sc.host
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = sc.port

		err = cfg.Validate()
		if err != nil {
			return err
		}
	}

	maxBytes, err := cfg.MaxDocumentBytes()
	if err != nil {
		return err
	}

	tel, err := initTelemetry(cfg, observability.ModeServe, true)
	if err != nil {
		return err
	}

	defer tel.shutdown(cmd)

	h, err := newHasher(cfg, tel.logger())
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Hasher:           h,
		MaxDocumentBytes: maxBytes,
		Logger:           tel.logger(),
		Tracer:           tel.providers.Tracer,
		RED:              tel.red,
		Sketch:           tel.sketch,
		MetricsHandler:   tel.providers.MetricsHandler,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
	})
	if err != nil {
		return err
	}

	return srv.Run(cmd.Context(), cfg.Addr())
}
