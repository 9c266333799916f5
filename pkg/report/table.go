// Package report renders similarity matrices for terminals and browsers.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
)

// DefaultThreshold marks a pair as a near-duplicate.
const DefaultThreshold = 0.8

// TableOptions controls terminal rendering.
type TableOptions struct {
	// Threshold at or above which a cell is highlighted as a near-duplicate.
	Threshold float64

	// NoColor disables ANSI colouring regardless of the terminal.
	NoColor bool

	// Agreement renders positional agreement instead of set similarity.
	Agreement bool
}

type palette struct {
	hot  *color.Color
	warm *color.Color
	dim  *color.Color
}

func newPalette(noColor bool) palette {
	pal := palette{
		hot:  color.New(color.FgRed, color.Bold),
		warm: color.New(color.FgYellow),
		dim:  color.New(color.Faint),
	}

	if noColor {
		pal.hot.DisableColor()
		pal.warm.DisableColor()
		pal.dim.DisableColor()
	}

	return pal
}

func (p palette) cell(value, threshold float64, diagonal bool) string {
	formatted := fmt.Sprintf("%.3f", value)

	switch {
	case diagonal:
		return p.dim.Sprint(formatted)
	case value >= threshold:
		return p.hot.Sprint(formatted)
	case value >= threshold/2:
		return p.warm.Sprint(formatted)
	default:
		return formatted
	}
}

// Table writes the matrix as a grid of similarities. Columns are numbered to
// keep wide corpora readable; the row header carries the source name.
func Table(w io.Writer, mat *corpus.Matrix, opts TableOptions) error {
	pal := newPalette(opts.NoColor)

	values := mat.Similarity
	if opts.Agreement {
		values = mat.Agreement
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	header := table.Row{"#", "source"}
	for idx := range mat.Sources {
		header = append(header, idx+1)
	}

	tbl.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(mat.Sources))
	for idx := range mat.Sources {
		configs = append(configs, table.ColumnConfig{Number: idx + 3, Align: text.AlignRight})
	}

	tbl.SetColumnConfigs(configs)

	for i, src := range mat.Sources {
		row := table.Row{i + 1, displayName(src)}
		for j := range mat.Sources {
			row = append(row, pal.cell(values[i][j], opts.Threshold, i == j))
		}

		tbl.AppendRow(row)
	}

	tbl.Render()

	return nil
}

// Pairs writes the near-duplicate pairs, most similar first.
func Pairs(w io.Writer, pairs []corpus.Pair, opts TableOptions) error {
	pal := newPalette(opts.NoColor)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"a", "b", "similarity", "agreement"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for _, pair := range pairs {
		tbl.AppendRow(table.Row{
			displayName(pair.A),
			displayName(pair.B),
			pal.cell(pair.Similarity, opts.Threshold, false),
			fmt.Sprintf("%.3f", pair.Agreement),
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d pairs", len(pairs))})
	tbl.Render()

	return nil
}

// Summary writes a one-line digest of the matrix statistics.
func Summary(w io.Writer, mat *corpus.Matrix, threshold float64) error {
	st := mat.Stats

	_, err := fmt.Fprintf(w, "%d documents, %d pairs: mean %.3f, stddev %.3f, min %.3f, max %.3f, %d at or above %.2f\n",
		len(mat.Sources), st.Pairs, st.Mean, st.StdDev, st.Min, st.Max, len(mat.Pairs(threshold)), threshold)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func displayName(source string) string {
	if source == corpus.StdinName {
		return "<stdin>"
	}

	return filepath.ToSlash(source)
}
