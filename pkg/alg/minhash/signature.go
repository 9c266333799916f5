package minhash

import (
	"encoding/binary"
	"errors"
	"slices"
)

const (
	// HeaderSize is the number of bytes for the value count in Bytes output.
	HeaderSize = 4

	// BytesPerValue is the number of bytes per uint32 minimum in Bytes output.
	BytesPerValue = 4
)

// ErrSizeMismatch is returned when comparing signatures of different sizes.
var ErrSizeMismatch = errors.New("minhash: signature sizes do not match")

// Signature is the ordered vector of per-function minima of one document.
// The zero value is an empty signature. A Signature is immutable.
type Signature struct {
	mins []uint32
}

// SignatureOf builds a signature from raw minima, in hash-function order.
func SignatureOf(values []uint32) Signature {
	return Signature{mins: slices.Clone(values)}
}

// Len returns the number of minima, which equals the hash count.
func (s Signature) Len() int {
	return len(s.mins)
}

// Values returns a copy of the minima in hash-function order.
func (s Signature) Values() []uint32 {
	return slices.Clone(s.mins)
}

// IsEmpty reports whether the signature holds no values.
func (s Signature) IsEmpty() bool {
	return len(s.mins) == 0
}

// Set returns the distinct values of the signature. Two hash functions that
// share a minimum collapse into one member, so the set may be smaller than
// Len.
func (s Signature) Set() Set {
	return SetOf(s.mins...)
}

// Equal reports whether both signatures hold the same minima in order.
func (s Signature) Equal(other Signature) bool {
	return slices.Equal(s.mins, other.mins)
}

// Agreement returns the fraction of hash functions whose minima are equal in
// both signatures. Unlike the set estimator it keeps one slot per hash
// function, so colliding minima do not shrink the sample.
func (s Signature) Agreement(other Signature) (float64, error) {
	if len(s.mins) != len(other.mins) {
		return 0, ErrSizeMismatch
	}

	if len(s.mins) == 0 {
		return 0, ErrEmptyUnion
	}

	matches := 0

	for i := range s.mins {
		if s.mins[i] == other.mins[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(s.mins)), nil
}

// Bytes serializes the signature to a compact binary format.
// Format: [count as uint32 big-endian (4 bytes)] + [mins as []uint32 big-endian].
func (s Signature) Bytes() []byte {
	data := make([]byte, HeaderSize+len(s.mins)*BytesPerValue)
	binary.BigEndian.PutUint32(data[:HeaderSize], uint32(len(s.mins))) //nolint:gosec // hash count fits in uint32.

	for i, v := range s.mins {
		offset := HeaderSize + i*BytesPerValue
		binary.BigEndian.PutUint32(data[offset:offset+BytesPerValue], v)
	}

	return data
}
