package minhash

import (
	"testing"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/hashfamily"
)

// Benchmark constants.
const (
	// benchHashCount is the number of hash functions for benchmarks.
	benchHashCount = 128

	// benchBaseSeed is the base seed for benchmark families.
	benchBaseSeed = 7
)

func newBenchHasher(b *testing.B) *Hasher {
	b.Helper()

	fam, err := hashfamily.Derive(benchHashCount, benchBaseSeed)
	if err != nil {
		b.Fatal(err)
	}

	h, err := NewWithFamily(DefaultShingleSize, fam)
	if err != nil {
		b.Fatal(err)
	}

	return h
}

func BenchmarkMinHash(b *testing.B) {
	h := newBenchHasher(b)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _ = h.MinHash(lipsumA)
	}
}

func BenchmarkSimilarity(b *testing.B) {
	h := newBenchHasher(b)

	sigA, err := h.MinHash(lipsumA)
	if err != nil {
		b.Fatal(err)
	}

	sigB, err := h.MinHash(lipsumB)
	if err != nil {
		b.Fatal(err)
	}

	setA, setB := sigA.Set(), sigB.Set()

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _ = Similarity(setA, setB)
	}
}

func BenchmarkAgreement(b *testing.B) {
	h := newBenchHasher(b)

	sigA, err := h.MinHash(lipsumA)
	if err != nil {
		b.Fatal(err)
	}

	sigB, err := h.MinHash(lipsumB)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		_, _ = sigA.Agreement(sigB)
	}
}
