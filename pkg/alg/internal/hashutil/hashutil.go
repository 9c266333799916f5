// Package hashutil provides seed generation for the MinHash hash family.
//
// Deterministic seeds come from the splitmix64 stream by Vigna (2014), which
// provides full-avalanche mixing across all 64 bits. Random seeds come from
// crypto/rand so independently constructed families never share a stream.
package hashutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Splitmix64 constants from the splitmix64 finalizer by Vigna (2014).
const (
	// MixShift1 is the first right-shift in the splitmix64 finalizer.
	MixShift1 = 30

	// MixMul1 is the first multiplier in the splitmix64 finalizer.
	MixMul1 = 0xbf58476d1ce4e5b9

	// MixShift2 is the second right-shift in the splitmix64 finalizer.
	MixShift2 = 27

	// MixMul2 is the second multiplier in the splitmix64 finalizer.
	MixMul2 = 0x94d049bb133111eb

	// MixShift3 is the third right-shift in the splitmix64 finalizer.
	MixShift3 = 31

	// splitmix64Increment is the golden-ratio-derived increment
	// used in the Splitmix64 state-advance function.
	splitmix64Increment = 0x9e3779b97f4a7c15

	// seedBytes is the size of one 32-bit seed.
	seedBytes = 4

	// foldShift folds the high half of a 64-bit output into the low half.
	foldShift = 32
)

// Mix64 applies the splitmix64 finalizer for full-avalanche mixing.
// This is a pure output function — it does NOT advance any state.
func Mix64(v uint64) uint64 {
	v ^= v >> MixShift1
	v *= MixMul1
	v ^= v >> MixShift2
	v *= MixMul2
	v ^= v >> MixShift3

	return v
}

// Splitmix64 advances the state by the golden-ratio increment and applies
// the mix64 finalizer.
func Splitmix64(state uint64) uint64 {
	return Mix64(state + splitmix64Increment)
}

// DeriveSeeds creates n deterministic 32-bit seeds from base. Each seed is
// the xor-folded output of one splitmix64 step, so neighbouring bases give
// unrelated seed lists.
func DeriveSeeds(n int, base uint64) []uint32 {
	if n <= 0 {
		return nil
	}

	seeds := make([]uint32, n)
	state := base

	for i := range n {
		seeds[i] = fold(Splitmix64(state))
		state += splitmix64Increment
	}

	return seeds
}

func fold(v uint64) uint32 {
	return uint32(v ^ (v >> foldShift)) //nolint:gosec // truncation is the fold.
}

// RandomSeeds draws n 32-bit seeds from the operating system's CSPRNG.
func RandomSeeds(n int) ([]uint32, error) {
	if n <= 0 {
		return nil, nil
	}

	buf := make([]byte, n*seedBytes)

	_, err := rand.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read random seeds: %w", err)
	}

	seeds := make([]uint32, n)
	for i := range seeds {
		seeds[i] = binary.LittleEndian.Uint32(buf[i*seedBytes:])
	}

	return seeds, nil
}
