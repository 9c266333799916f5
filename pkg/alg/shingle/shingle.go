// Package shingle builds k-gram shingles from token sequences.
//
// A shingle is a window of k consecutive tokens joined by a single space.
// Windows overlap: a sequence of n tokens yields n-k+1 shingles in order of
// their starting offset.
package shingle

import "strings"

// Separator joins the tokens of one shingle.
const Separator = " "

// Shinglize returns every k-gram of tokens. It returns an empty slice when
// there are fewer tokens than size or size is not positive.
func Shinglize(tokens []string, size int) []string {
	if size < 1 || len(tokens) < size {
		return []string{}
	}

	count := len(tokens) - size + 1
	shingles := make([]string, 0, count)

	for i := range count {
		shingles = append(shingles, join(tokens[i:i+size]))
	}

	return shingles
}

func join(window []string) string {
	n := len(Separator) * (len(window) - 1)
	for _, tok := range window {
		n += len(tok)
	}

	var b strings.Builder

	b.Grow(n)
	b.WriteString(window[0])

	for _, tok := range window[1:] {
		b.WriteString(Separator)
		b.WriteString(tok)
	}

	return b.String()
}
