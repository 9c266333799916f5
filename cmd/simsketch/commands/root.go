// Package commands implements the simsketch CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/version"
)

// NewRootCommand builds the simsketch command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "simsketch",
		Short: "MinHash signatures and Jaccard similarity estimates for text",
		Long: `simsketch turns documents into fixed-size MinHash signatures and
estimates how similar they are.

Commands:
  signature  Compute signatures for files or stdin
  compare    Build a pairwise similarity matrix
  serve      Serve the HTTP API
  mcp        Serve MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		NewSignatureCommand(),
		NewCompareCommand(),
		NewServeCommand(),
		NewMCPCommand(),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Info())

			return err
		},
	}
}
