package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/config"
	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

const metricSourceCLI = "cli"

// ErrNoSignatures is returned when every input was too short to sign.
var ErrNoSignatures = errors.New("no document produced a signature")

// SignatureCommand holds the configuration for the signature command.
type SignatureCommand struct {
	sketch sketchFlags
	format string
}

// NewSignatureCommand creates the signature command.
func NewSignatureCommand() *cobra.Command {
	sc := &SignatureCommand{}

	cmd := &cobra.Command{
		Use:   "signature [paths...]",
		Short: "Compute MinHash signatures",
		Long: `Compute a MinHash signature for each file, or for stdin when no path
is given. Directories are walked recursively; binary, oversized, vendored and
dot files found while walking are skipped.

The output records the shingle size and seeds next to each signature, so it
can be fed back to "simsketch compare --signatures".`,
		Example: `  simsketch signature --seed 42 README.md
  cat notes.txt | simsketch signature -f yaml
  simsketch signature -n 128 docs/ > docs.sig.json`,
		RunE: sc.run,
	}

	sc.sketch.register(cmd)
	cmd.Flags().StringVarP(&sc.format, "format", "f", sigdoc.FormatJSON, "Output format: json, yaml or text")

	return cmd
}

func (sc *SignatureCommand) run(cmd *cobra.Command, args []string) error {
	switch sc.format {
	case sigdoc.FormatJSON, sigdoc.FormatYAML, sigdoc.FormatText:
	default:
		return fmt.Errorf("%w: %q", sigdoc.ErrUnknownFormat, sc.format)
	}

	cfg, err := sc.sketch.load(cmd)
	if err != nil {
		return err
	}

	tel, err := initTelemetry(cfg, observability.ModeCLI, false)
	if err != nil {
		return err
	}

	defer tel.shutdown(cmd)

	h, err := newHasher(cfg, tel.logger())
	if err != nil {
		return err
	}

	inputs, err := readInputs(cmd, cfg, args, tel)
	if err != nil {
		return err
	}

	results, err := signAll(cmd.Context(), h, inputs, cfg.Input.Workers, tel)
	if err != nil {
		return err
	}

	docs := make([]sigdoc.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, sigdoc.FromSignature(h, res.Signature, res.Source))
	}

	return sigdoc.Encode(cmd.OutOrStdout(), sc.format, docs...)
}

// readInputs reads stdin when no path is given, otherwise collects the paths.
func readInputs(cmd *cobra.Command, cfg *config.Config, paths []string, tel telemetry) ([]corpus.Input, error) {
	maxBytes, err := cfg.MaxDocumentBytes()
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return readStdin(cmd.InOrStdin(), maxBytes)
	}

	return corpus.Collect(paths, corpus.Options{
		MaxBytes:     maxBytes,
		SkipVendor:   cfg.Input.SkipVendor,
		SkipDotFiles: cfg.Input.SkipDotFiles,
		Logger:       tel.logger(),
	})
}

func readStdin(r io.Reader, maxBytes int64) ([]corpus.Input, error) {
	in, err := corpus.ReadInput(corpus.StdinName, r, maxBytes)
	if err != nil {
		return nil, err
	}

	return []corpus.Input{in}, nil
}

// signAll sketches inputs and keeps the ones that produced a signature.
// Short documents are logged and dropped; if nothing is left the first
// failure is returned.
func signAll(
	ctx context.Context, h *minhash.Hasher, inputs []corpus.Input, workers int, tel telemetry,
) ([]corpus.Result, error) {
	results, err := corpus.Sketch(ctx, h, inputs, workers)
	if err != nil {
		return nil, err
	}

	signed := make([]corpus.Result, 0, len(results))

	var firstErr error

	for _, res := range results {
		if !res.OK() {
			tel.logger().WarnContext(ctx, "document skipped", "source", res.Source, "error", res.Err)
			tel.sketch.RecordShortDocument(ctx, metricSourceCLI)

			if firstErr == nil {
				firstErr = res.Err
			}

			continue
		}

		tel.sketch.RecordSignature(ctx, metricSourceCLI, res.Shingles)
		signed = append(signed, res)
	}

	if len(signed) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoSignatures, firstErr)
	}

	return signed, nil
}
