package minhash

// Set is an unordered collection of distinct signature values.
type Set map[uint32]struct{}

// SetOf builds a set from values, dropping duplicates.
func SetOf(values ...uint32) Set {
	set := make(Set, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}

// Contains reports whether v is a member.
func (s Set) Contains(v uint32) bool {
	_, ok := s[v]

	return ok
}

// Similarity returns the Jaccard index |a ∩ b| / |a ∪ b|.
// It returns ErrEmptyUnion when both sets are empty.
func Similarity(a, b Set) (float64, error) {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0

	for v := range small {
		if large.Contains(v) {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0, ErrEmptyUnion
	}

	return float64(intersection) / float64(union), nil
}
