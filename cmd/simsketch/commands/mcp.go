package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/mcp"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var flags sketchFlags

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - minhash_signature: MinHash signature of a text
  - minhash_similarity: estimated Jaccard similarity of two texts

Logs are written to stderr as JSON; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cobraCmd)
			if err != nil {
				return err
			}

			maxBytes, err := cfg.MaxDocumentBytes()
			if err != nil {
				return err
			}

			tel, err := initTelemetry(cfg, observability.ModeMCP, false)
			if err != nil {
				return err
			}

			defer tel.shutdown(cobraCmd)

			h, err := newHasher(cfg, tel.logger())
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(mcp.ServerDeps{
				Hasher:           h,
				MaxDocumentBytes: maxBytes,
				Logger:           tel.logger(),
				Metrics:          tel.red,
				Sketch:           tel.sketch,
				Tracer:           tel.providers.Tracer,
			})
			if err != nil {
				return err
			}

			return srv.Run(cobraCmd.Context())
		},
	}

	flags.register(cmd)

	return cmd
}
