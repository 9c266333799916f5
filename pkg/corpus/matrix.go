package corpus

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
)

// ErrTooFewSignatures is returned when fewer than two signatures are compared.
var ErrTooFewSignatures = errors.New("corpus: need at least two signatures to compare")

// Entry is a named signature taking part in a comparison.
type Entry struct {
	Source    string
	Signature minhash.Signature
}

// Entries keeps the successful results, in order.
func Entries(results []Result) []Entry {
	entries := make([]Entry, 0, len(results))

	for _, res := range results {
		if res.OK() {
			entries = append(entries, Entry{Source: res.Source, Signature: res.Signature})
		}
	}

	return entries
}

// Pair is one off-diagonal cell of a Matrix.
type Pair struct {
	A, B       string
	Similarity float64
	Agreement  float64
}

// Stats summarises the off-diagonal similarities of a Matrix.
type Stats struct {
	Pairs  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Matrix holds pairwise similarity estimates. Similarity and Agreement are
// symmetric with a diagonal of 1.
type Matrix struct {
	Sources    []string
	Similarity [][]float64
	Agreement  [][]float64
	Stats      Stats
}

// NewMatrix compares every pair of entries.
func NewMatrix(entries []Entry) (*Matrix, error) {
	n := len(entries)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSignatures, n)
	}

	mat := &Matrix{
		Sources:    make([]string, n),
		Similarity: square(n),
		Agreement:  square(n),
	}

	sets := make([]minhash.Set, n)
	for i, e := range entries {
		mat.Sources[i] = e.Source
		sets[i] = e.Signature.Set()
	}

	offDiagonal := make([]float64, 0, n*(n-1)/2)

	for i := range n {
		mat.Similarity[i][i] = 1
		mat.Agreement[i][i] = 1

		for j := i + 1; j < n; j++ {
			sim, err := minhash.Similarity(sets[i], sets[j])
			if err != nil {
				return nil, fmt.Errorf("compare %s and %s: %w", entries[i].Source, entries[j].Source, err)
			}

			agr, err := entries[i].Signature.Agreement(entries[j].Signature)
			if err != nil {
				return nil, fmt.Errorf("compare %s and %s: %w", entries[i].Source, entries[j].Source, err)
			}

			mat.Similarity[i][j], mat.Similarity[j][i] = sim, sim
			mat.Agreement[i][j], mat.Agreement[j][i] = agr, agr
			offDiagonal = append(offDiagonal, sim)
		}
	}

	mat.Stats = summarise(offDiagonal)

	return mat, nil
}

// Pairs returns the off-diagonal pairs whose similarity is at least threshold,
// most similar first.
func (m *Matrix) Pairs(threshold float64) []Pair {
	var pairs []Pair

	for i := range m.Sources {
		for j := i + 1; j < len(m.Sources); j++ {
			if m.Similarity[i][j] < threshold {
				continue
			}

			pairs = append(pairs, Pair{
				A:          m.Sources[i],
				B:          m.Sources[j],
				Similarity: m.Similarity[i][j],
				Agreement:  m.Agreement[i][j],
			})
		}
	}

	slices.SortStableFunc(pairs, func(x, y Pair) int {
		return cmp.Compare(y.Similarity, x.Similarity)
	})

	return pairs
}

func square(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}

	return rows
}

func summarise(values []float64) Stats {
	st := Stats{Pairs: len(values)}
	if len(values) == 0 {
		return st
	}

	st.Min = floats.Min(values)
	st.Max = floats.Max(values)

	if len(values) == 1 {
		st.Mean = values[0]

		return st
	}

	st.Mean, st.StdDev = stat.MeanStdDev(values, nil)

	return st
}
