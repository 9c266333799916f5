package corpus

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
)

// Result is the outcome of sketching one Input. Err is set, and Signature is
// empty, when the document has fewer tokens than the shingle size.
type Result struct {
	Source    string
	Signature minhash.Signature
	Tokens    int
	Shingles  int
	Err       error
}

// OK reports whether the document produced a signature.
func (r Result) OK() bool {
	return r.Err == nil
}

// Sketch signs every input with h using at most workers goroutines. Results
// keep the order of inputs. Documents that are too short are reported through
// Result.Err rather than failing the run; only cancellation of ctx does that.
func Sketch(ctx context.Context, h *minhash.Hasher, inputs []Input, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(inputs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, in := range inputs {
		group.Go(func() error {
			err := groupCtx.Err()
			if err != nil {
				return fmt.Errorf("sketch %s: %w", in.Source, err)
			}

			results[idx] = Sign(h, in)

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Sign sketches a single input. It is the unit of work behind Sketch.
func Sign(h *minhash.Hasher, in Input) Result {
	tokens := h.Tokenize(in.Text)
	shingles := h.Shinglize(tokens)
	res := Result{Source: in.Source, Tokens: len(tokens), Shingles: len(shingles)}

	mins, err := h.Hashify(shingles)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w: %d tokens, shingle size %d", in.Source, err, len(tokens), h.ShingleSize())

		return res
	}

	res.Signature = minhash.SignatureOf(mins)

	return res
}
