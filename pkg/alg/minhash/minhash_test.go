package minhash

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/hashfamily"
)

// Test constants for MinHash tests.
const (
	// testShingleSize is a non-default shingle size.
	testShingleSize = 5

	// testHashCount is a non-default hash count.
	testHashCount = 4

	// testLargeHashCount is the hash count for statistical tests.
	testLargeHashCount = 128

	// testBaseSeed is the base seed for reproducible families.
	testBaseSeed = 42

	// testDocTokens is the number of tokens in generated documents.
	testDocTokens = 400

	// testNearDuplicateThreshold is the minimum estimate for near-duplicates.
	testNearDuplicateThreshold = 0.7

	// testDisjointThreshold is the maximum estimate for disjoint documents.
	testDisjointThreshold = 0.1

	// testConcurrentGoroutines is the number of goroutines for concurrency tests.
	testConcurrentGoroutines = 50
)

func newSeededHasher(t *testing.T, shingleSize, hashCount int) *Hasher {
	t.Helper()

	fam, err := hashfamily.Derive(hashCount, testBaseSeed)
	require.NoError(t, err)

	h, err := NewWithFamily(shingleSize, fam)
	require.NoError(t, err)

	return h
}

func generateDoc(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}

	return strings.Join(words, " ")
}

// --- Constructor Tests ---.

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	h, err := NewDefault()

	require.NoError(t, err)
	assert.Equal(t, DefaultShingleSize, h.ShingleSize())
	assert.Equal(t, DefaultHashCount, h.HashCount())
	assert.Equal(t, DefaultHashCount, h.Family().Len())
}

func TestNew_SpecifiedValues(t *testing.T) {
	t.Parallel()

	h, err := New(testShingleSize, testHashCount)

	require.NoError(t, err)
	assert.Equal(t, testShingleSize, h.ShingleSize())
	assert.Equal(t, testHashCount, h.HashCount())
	assert.Len(t, h.Family().Funcs(), testHashCount)
}

func TestNew_ValidRange(t *testing.T) {
	t.Parallel()

	for shingleSize := 1; shingleSize <= 4; shingleSize++ {
		for hashCount := 1; hashCount <= 4; hashCount++ {
			h, err := New(shingleSize, hashCount)

			require.NoError(t, err)
			assert.Equal(t, shingleSize, h.ShingleSize())
			assert.Equal(t, hashCount, h.HashCount())
		}
	}
}

func TestNew_ZeroHashCount(t *testing.T) {
	t.Parallel()

	h, err := New(testShingleSize, 0)

	assert.Nil(t, h)
	require.ErrorIs(t, err, ErrInvalidHashCount)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNew_ZeroShingleSize(t *testing.T) {
	t.Parallel()

	h, err := New(0, testHashCount)

	assert.Nil(t, h)
	require.ErrorIs(t, err, ErrInvalidShingleSize)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNew_NegativeValues(t *testing.T) {
	t.Parallel()

	_, err := New(-1, testHashCount)
	require.ErrorIs(t, err, ErrInvalidShingleSize)

	_, err = New(testShingleSize, -1)
	require.ErrorIs(t, err, ErrInvalidHashCount)
}

func TestNew_IndependentFamilies(t *testing.T) {
	t.Parallel()

	a, err := New(DefaultShingleSize, testLargeHashCount)
	require.NoError(t, err)

	b, err := New(DefaultShingleSize, testLargeHashCount)
	require.NoError(t, err)

	assert.False(t, a.Family().Equal(b.Family()))
}

func TestNewWithFamily(t *testing.T) {
	t.Parallel()

	fam, err := hashfamily.FromSeeds([]uint32{1, 2, 3})
	require.NoError(t, err)

	h, err := NewWithFamily(2, fam)

	require.NoError(t, err)
	assert.Equal(t, 3, h.HashCount())
	assert.Equal(t, []uint32{1, 2, 3}, h.Family().Seeds())
}

func TestNewWithFamily_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewWithFamily(3, hashfamily.Family{})
	require.ErrorIs(t, err, ErrInvalidHashCount)

	fam, err := hashfamily.FromSeeds([]uint32{1})
	require.NoError(t, err)

	_, err = NewWithFamily(0, fam)
	require.ErrorIs(t, err, ErrInvalidShingleSize)
}

func TestWithShingleSize(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	h2, err := h.WithShingleSize(2)

	require.NoError(t, err)
	assert.Equal(t, 2, h2.ShingleSize())
	assert.Equal(t, DefaultShingleSize, h.ShingleSize(), "original hasher must not change")
	assert.True(t, h.Family().Equal(h2.Family()))
	assert.Equal(t, []string{"foo bar", "bar baz", "baz qux"}, h2.Shinglize([]string{"foo", "bar", "baz", "qux"}))

	_, err = h.WithShingleSize(0)
	require.ErrorIs(t, err, ErrInvalidShingleSize)
}

// --- Pipeline Tests ---.

func TestTokenize(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	assert.Equal(t, []string{"foo", "bar", "baz"}, h.Tokenize("foo bar baz"))
	assert.Equal(t, []string{"foo", "bar", "baz"}, h.Tokenize("foo  bar\r\n\tbaz"))
	assert.Equal(t, []string{"foo", "bar", "baz"}, h.Tokenize("  foo bar baz \r\n\t"))
	assert.Empty(t, h.Tokenize(""))
}

func TestShinglize_DefaultSize(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	assert.Equal(t,
		[]string{"foo bar baz", "bar baz qux", "baz qux quux"},
		h.Shinglize([]string{"foo", "bar", "baz", "qux", "quux"}))
	assert.Equal(t, []string{"foo bar baz"}, h.Shinglize([]string{"foo", "bar", "baz"}))
	assert.Empty(t, h.Shinglize([]string{"foo", "bar"}))
}

func TestHashify_OneValuePerFunction(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	values, err := h.Hashify([]string{"foo bar baz", "bar baz qux", "baz qux quux"})

	require.NoError(t, err)
	assert.Len(t, values, DefaultHashCount)
}

func TestHashify_IsMinimum(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)
	shingles := []string{"foo bar baz", "bar baz qux", "baz qux quux"}

	values, err := h.Hashify(shingles)
	require.NoError(t, err)

	for i, fn := range h.Family().Funcs() {
		want := fn.SumString(shingles[0])
		for _, s := range shingles[1:] {
			want = min(want, fn.SumString(s))
		}

		assert.Equal(t, want, values[i], "function %d", i)
	}
}

func TestHashify_Empty(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	values, err := h.Hashify(nil)

	assert.Nil(t, values)
	assert.ErrorIs(t, err, ErrNoShingles)
}

// --- MinHash Tests ---.

func TestMinHash_Length(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	sig, err := h.MinHash(lipsumA)

	require.NoError(t, err)
	assert.Equal(t, DefaultHashCount, sig.Len())
	assert.LessOrEqual(t, len(sig.Set()), DefaultHashCount)
	assert.NotEmpty(t, sig.Set())
}

func TestMinHash_Deterministic(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	a, err := h.MinHash(lipsumA)
	require.NoError(t, err)

	b, err := h.MinHash(lipsumA)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestMinHash_SameSeedsAcrossInstances(t *testing.T) {
	t.Parallel()

	h1 := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)
	h2 := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	a, err := h1.MinHash(lipsumA)
	require.NoError(t, err)

	b, err := h2.MinHash(lipsumA)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestMinHash_WhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	a, err := h.MinHash("foo bar baz qux")
	require.NoError(t, err)

	b, err := h.MinHash("  foo\tbar\r\nbaz   qux\n")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestMinHash_TooFewTokens(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	sig, err := h.MinHash("foo bar")

	require.ErrorIs(t, err, ErrNoShingles)
	assert.ErrorIs(t, err, ErrCompute)
	assert.True(t, sig.IsEmpty())
}

func TestMinHash_BlankDocument(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, 1, DefaultHashCount)

	// Blank input has no tokens, so even a shingle size of 1 yields nothing.
	_, err := h.MinHash(" \r\n\t ")

	require.ErrorIs(t, err, ErrNoShingles)
}

func TestMinHash_ExactFit(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, DefaultHashCount)

	sig, err := h.MinHash("foo bar baz")
	require.NoError(t, err)

	want := make([]uint32, 0, DefaultHashCount)
	for _, fn := range h.Family().Funcs() {
		want = append(want, fn.SumString("foo bar baz"))
	}

	assert.Equal(t, want, sig.Values())
}

// --- Similarity Tests ---.

func TestSimilarity_IdenticalDocuments(t *testing.T) {
	t.Parallel()

	h, err := NewDefault()
	require.NoError(t, err)

	a, err := h.MinHash(lipsumA)
	require.NoError(t, err)

	b, err := h.MinHash(lipsumA)
	require.NoError(t, err)

	sim, err := h.Similarity(a, b)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestSimilarity_DifferingDocumentsInRange(t *testing.T) {
	t.Parallel()

	h, err := NewDefault()
	require.NoError(t, err)

	a, err := h.MinHash(lipsumA)
	require.NoError(t, err)

	b, err := h.MinHash(lipsumB)
	require.NoError(t, err)

	sim, err := h.Similarity(a, b)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}

func TestSimilarity_NearDuplicates(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, testLargeHashCount)

	original := generateDoc("w", testDocTokens)
	edited := strings.Replace(original, "w200 ", "changed ", 1)

	a, err := h.MinHash(original)
	require.NoError(t, err)

	b, err := h.MinHash(edited)
	require.NoError(t, err)

	sim, err := h.Similarity(a, b)
	require.NoError(t, err)
	assert.Greater(t, sim, testNearDuplicateThreshold)

	agreement, err := a.Agreement(b)
	require.NoError(t, err)
	assert.Greater(t, agreement, testNearDuplicateThreshold)
}

func TestSimilarity_DisjointDocuments(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, testLargeHashCount)

	a, err := h.MinHash(generateDoc("a", testDocTokens))
	require.NoError(t, err)

	b, err := h.MinHash(generateDoc("b", testDocTokens))
	require.NoError(t, err)

	sim, err := h.Similarity(a, b)
	require.NoError(t, err)
	assert.Less(t, sim, testDisjointThreshold)

	agreement, err := a.Agreement(b)
	require.NoError(t, err)
	assert.Less(t, agreement, testDisjointThreshold)
}

// --- Concurrency Tests ---.

func TestMinHash_ConcurrentUse(t *testing.T) {
	t.Parallel()

	h := newSeededHasher(t, DefaultShingleSize, testLargeHashCount)

	want, err := h.MinHash(lipsumB)
	require.NoError(t, err)

	var wg sync.WaitGroup

	results := make([]Signature, testConcurrentGoroutines)

	for i := range testConcurrentGoroutines {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			sig, sigErr := h.MinHash(lipsumB)
			if sigErr == nil {
				results[idx] = sig
			}
		}(i)
	}

	wg.Wait()

	for _, got := range results {
		assert.True(t, want.Equal(got))
	}
}
