// Package hashfamily provides a fixed, ordered family of seeded 32-bit hash
// functions for MinHash.
//
// Every function is MurmurHash3 (x86, 32-bit) evaluated over the input bytes
// with its own seed as the initialization parameter. A family is built once
// and never changes, which keeps every signature produced with it mutually
// comparable.
package hashfamily

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spaolacci/murmur3"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/internal/hashutil"
)

// ErrEmptyFamily is returned when a family would contain no functions.
var ErrEmptyFamily = errors.New("hashfamily: at least one hash function is required")

// Func is a single seeded hash function. The zero value is a valid
// function with seed 0.
type Func struct {
	Seed uint32
}

// Sum32 hashes data with the function's seed.
func (f Func) Sum32(data []byte) uint32 {
	return murmur3.Sum32WithSeed(data, f.Seed)
}

// SumString hashes the UTF-8 bytes of s.
func (f Func) SumString(s string) uint32 {
	return f.Sum32([]byte(s))
}

// Family is an ordered, immutable list of hash functions.
type Family struct {
	funcs []Func
}

// FromSeeds builds a family with one function per seed, in order.
func FromSeeds(seeds []uint32) (Family, error) {
	if len(seeds) == 0 {
		return Family{}, ErrEmptyFamily
	}

	funcs := make([]Func, len(seeds))
	for i, s := range seeds {
		funcs[i] = Func{Seed: s}
	}

	return Family{funcs: funcs}, nil
}

// Random builds a family of n functions with independently random seeds.
func Random(n int) (Family, error) {
	if n <= 0 {
		return Family{}, fmt.Errorf("%w: got %d", ErrEmptyFamily, n)
	}

	seeds, err := hashutil.RandomSeeds(n)
	if err != nil {
		return Family{}, err
	}

	return FromSeeds(seeds)
}

// Derive builds a reproducible family of n functions from a single base seed.
func Derive(n int, base uint64) (Family, error) {
	if n <= 0 {
		return Family{}, fmt.Errorf("%w: got %d", ErrEmptyFamily, n)
	}

	return FromSeeds(hashutil.DeriveSeeds(n, base))
}

// Len returns the number of functions.
func (fam Family) Len() int {
	return len(fam.funcs)
}

// Funcs returns a copy of the ordered function list.
func (fam Family) Funcs() []Func {
	return slices.Clone(fam.funcs)
}

// Seeds returns the seeds of every function, in order.
func (fam Family) Seeds() []uint32 {
	seeds := make([]uint32, len(fam.funcs))
	for i, f := range fam.funcs {
		seeds[i] = f.Seed
	}

	return seeds
}

// At returns the i-th function.
func (fam Family) At(i int) Func {
	return fam.funcs[i]
}

// Equal reports whether both families hold the same seeds in the same order.
func (fam Family) Equal(other Family) bool {
	return slices.Equal(fam.funcs, other.funcs)
}
