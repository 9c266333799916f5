// Package minhash provides MinHash signature generation for document
// similarity estimation.
//
// A Hasher turns a text into a compact signature: the text is split into
// whitespace tokens, the tokens into overlapping k-gram shingles, and every
// shingle is hashed by each function of a fixed hash family. The minimum
// value per function forms the signature. The Jaccard similarity of two
// documents' shingle sets can then be estimated from their signatures alone.
//
// Signatures are comparable only when produced by hashers sharing the same
// family (same seeds in the same order) and the same shingle size.
package minhash

import (
	"errors"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/hashfamily"
	"github.com/Sumatoshi-tech/simsketch/pkg/alg/shingle"
	"github.com/Sumatoshi-tech/simsketch/pkg/textutil"
)

// Default hasher parameters.
const (
	// DefaultShingleSize is the default number of tokens per shingle.
	DefaultShingleSize = 3

	// DefaultHashCount is the default number of hash functions.
	DefaultHashCount = 8
)

var (
	// ErrConfig is the parent of every construction error.
	ErrConfig = errors.New("minhash: invalid configuration")

	// ErrInvalidShingleSize is returned when the shingle size is below 1.
	ErrInvalidShingleSize = fmt.Errorf("%w: shingle size must be at least 1", ErrConfig)

	// ErrInvalidHashCount is returned when the hash count is below 1.
	ErrInvalidHashCount = fmt.Errorf("%w: hash count must be at least 1", ErrConfig)

	// ErrCompute is the parent of every computation error.
	ErrCompute = errors.New("minhash: cannot compute")

	// ErrNoShingles is returned when a document has fewer tokens than the
	// shingle size, so no signature exists for it.
	ErrNoShingles = fmt.Errorf("%w: document has no shingles", ErrCompute)

	// ErrEmptyUnion is returned when similarity is requested for two empty sets.
	ErrEmptyUnion = fmt.Errorf("%w: both signatures are empty", ErrCompute)
)

// Hasher computes MinHash signatures with a fixed hash family and shingle
// size. It is immutable and safe for concurrent use.
type Hasher struct {
	family      hashfamily.Family
	shingleSize int
}

// New creates a Hasher with hashCount randomly seeded hash functions.
// Hashers created this way produce mutually incomparable signatures; use
// NewWithFamily with shared seeds when signatures must be compared across
// instances or processes.
func New(shingleSize, hashCount int) (*Hasher, error) {
	if shingleSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShingleSize, shingleSize)
	}

	if hashCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHashCount, hashCount)
	}

	fam, err := hashfamily.Random(hashCount)
	if err != nil {
		return nil, fmt.Errorf("generate hash family: %w", err)
	}

	return &Hasher{family: fam, shingleSize: shingleSize}, nil
}

// NewDefault creates a randomly seeded Hasher with the default parameters.
func NewDefault() (*Hasher, error) {
	return New(DefaultShingleSize, DefaultHashCount)
}

// NewWithFamily creates a Hasher over an explicit hash family.
func NewWithFamily(shingleSize int, fam hashfamily.Family) (*Hasher, error) {
	if shingleSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShingleSize, shingleSize)
	}

	if fam.Len() < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHashCount, fam.Len())
	}

	return &Hasher{family: fam, shingleSize: shingleSize}, nil
}

// WithShingleSize returns a Hasher that shares h's hash family but uses a
// different shingle size. h itself is unchanged.
func (h *Hasher) WithShingleSize(size int) (*Hasher, error) {
	return NewWithFamily(size, h.family)
}

// ShingleSize returns the number of tokens per shingle.
func (h *Hasher) ShingleSize() int {
	return h.shingleSize
}

// HashCount returns the number of hash functions.
func (h *Hasher) HashCount() int {
	return h.family.Len()
}

// Family returns the hash family.
func (h *Hasher) Family() hashfamily.Family {
	return h.family
}

// Tokenize splits text into whitespace-delimited tokens.
func (h *Hasher) Tokenize(text string) []string {
	return textutil.Tokenize(text)
}

// Shinglize builds the hasher's k-gram shingles from tokens.
func (h *Hasher) Shinglize(tokens []string) []string {
	return shingle.Shinglize(tokens, h.shingleSize)
}

// Hashify returns, for each hash function in order, the minimum hash over
// all shingles.
func (h *Hasher) Hashify(shingles []string) ([]uint32, error) {
	if len(shingles) == 0 {
		return nil, ErrNoShingles
	}

	mins := make([]uint32, h.family.Len())
	for i := range mins {
		mins[i] = math.MaxUint32
	}

	for _, s := range shingles {
		data := []byte(s)

		for i := range mins {
			if v := h.family.At(i).Sum32(data); v < mins[i] {
				mins[i] = v
			}
		}
	}

	return mins, nil
}

// MinHash computes the signature of text.
func (h *Hasher) MinHash(text string) (Signature, error) {
	tokens := h.Tokenize(text)
	shingles := h.Shinglize(tokens)

	mins, err := h.Hashify(shingles)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %d tokens, shingle size %d", err, len(tokens), h.shingleSize)
	}

	return Signature{mins: mins}, nil
}

// Similarity estimates the Jaccard similarity of two documents from their
// signatures, treating each signature as a set of values.
func (h *Hasher) Similarity(a, b Signature) (float64, error) {
	return Similarity(a.Set(), b.Set())
}
