// Package textutil splits document text into the tokens that shingles are
// built from.
package textutil

import "strings"

// Tokenize splits text on Unicode whitespace. Runs of whitespace act as one
// separator and surrounding whitespace is ignored, so blank text yields no
// tokens rather than a single empty one. Tokens keep their case and
// punctuation.
func Tokenize(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	return tokens
}
