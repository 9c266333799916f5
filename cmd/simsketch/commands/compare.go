package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/config"
	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/report"
	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

// CompareCommand holds the configuration for the compare command.
type CompareCommand struct {
	sketch     sketchFlags
	threshold  float64
	plot       string
	signatures bool
	agreement  bool
	noColor    bool
	all        bool
}

// NewCompareCommand creates the compare command.
func NewCompareCommand() *cobra.Command {
	cc := &CompareCommand{}

	cmd := &cobra.Command{
		Use:   "compare <paths...>",
		Short: "Estimate pairwise Jaccard similarity",
		Long: `Sign every document found under the given paths and print the matrix
of estimated Jaccard similarities, followed by the pairs at or above the
threshold and summary statistics.

With --signatures the arguments are signature files written by
"simsketch signature" and nothing is re-hashed. All signatures must share a
shingle size and seed list.`,
		Example: `  simsketch compare --seed 7 a.txt b.txt c.txt
  simsketch compare --threshold 0.5 --plot report.html docs/
  simsketch compare --signatures old.sig.json new.sig.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: cc.run,
	}

	cc.sketch.register(cmd)
	cmd.Flags().Float64VarP(&cc.threshold, "threshold", "t", report.DefaultThreshold, "Similarity at or above which a pair is reported")
	cmd.Flags().StringVar(&cc.plot, "plot", "", "Write an HTML heatmap to this file")
	cmd.Flags().BoolVar(&cc.signatures, "signatures", false, "Arguments are signature files, not documents")
	cmd.Flags().BoolVar(&cc.agreement, "agreement", false, "Show positional agreement in the matrix instead of set similarity")
	cmd.Flags().BoolVar(&cc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&cc.all, "all", false, "List every pair, ignoring --threshold")

	return cmd
}

func (cc *CompareCommand) run(cmd *cobra.Command, args []string) error {
	if cc.threshold < 0 || cc.threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %g", cc.threshold)
	}

	cfg, err := cc.sketch.load(cmd)
	if err != nil {
		return err
	}

	tel, err := initTelemetry(cfg, observability.ModeCLI, false)
	if err != nil {
		return err
	}

	defer tel.shutdown(cmd)

	var entries []corpus.Entry

	if cc.signatures {
		entries, err = loadSignatureEntries(args)
	} else {
		entries, err = cc.sketchEntries(cmd, cfg, args, tel)
	}

	if err != nil {
		return err
	}

	mat, err := corpus.NewMatrix(entries)
	if err != nil {
		return err
	}

	for _, pair := range mat.Pairs(0) {
		tel.sketch.RecordComparison(cmd.Context(), metricSourceCLI, pair.Similarity)
	}

	return cc.render(cmd, mat)
}

func (cc *CompareCommand) sketchEntries(
	cmd *cobra.Command, cfg *config.Config, paths []string, tel telemetry,
) ([]corpus.Entry, error) {
	h, err := newHasher(cfg, tel.logger())
	if err != nil {
		return nil, err
	}

	inputs, err := readInputs(cmd, cfg, paths, tel)
	if err != nil {
		return nil, err
	}

	results, err := signAll(cmd.Context(), h, inputs, cfg.Input.Workers, tel)
	if err != nil {
		return nil, err
	}

	return corpus.Entries(results), nil
}

// loadSignatureEntries decodes signature files and checks they are mutually comparable.
func loadSignatureEntries(paths []string) ([]corpus.Entry, error) {
	var (
		entries []corpus.Entry
		first   *sigdoc.Document
		origin  string
	)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		docs, err := sigdoc.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}

		for i := range docs {
			doc := docs[i]

			if first == nil {
				first, origin = &doc, path
			} else if cmpErr := sigdoc.Comparable(*first, doc); cmpErr != nil {
				return nil, fmt.Errorf("%s vs %s: %w", origin, path, cmpErr)
			}

			source := doc.Source
			if source == "" {
				source = fmt.Sprintf("%s#%d", path, i)
			}

			entries = append(entries, corpus.Entry{Source: source, Signature: doc.Signature()})
		}
	}

	return entries, nil
}

func (cc *CompareCommand) render(cmd *cobra.Command, mat *corpus.Matrix) error {
	out := cmd.OutOrStdout()
	opts := report.TableOptions{Threshold: cc.threshold, NoColor: cc.noColor, Agreement: cc.agreement}

	err := report.Table(out, mat, opts)
	if err != nil {
		return err
	}

	threshold := cc.threshold
	if cc.all {
		threshold = 0
	}

	pairs := mat.Pairs(threshold)
	if len(pairs) > 0 {
		fmt.Fprintln(out)

		err = report.Pairs(out, pairs, opts)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out)

	err = report.Summary(out, mat, cc.threshold)
	if err != nil {
		return err
	}

	if cc.plot == "" {
		return nil
	}

	return writePlot(cc.plot, mat)
}

func writePlot(path string, mat *corpus.Matrix) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close plot: %w", closeErr)
		}
	}()

	return report.Heatmap(f, mat)
}
