package lostfound

import "strings"

// Similarity computes the Sørensen–Dice coefficient over character bigrams of
// the two strings. The result is in [0, 1], deterministic and symmetric:
// Similarity(a, b) == Similarity(b, a) and Similarity(a, a) == 1.
//
// Comparison is case-insensitive and ignores all whitespace. Two empty
// strings are defined as identical: Similarity("", "") == 1. A string shorter
// than 2 characters has no bigrams and only matches an equal string.
func Similarity(a, b string) float64 {
	a = squash(a)
	b = squash(b)

	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	// count bigrams of a
	bigrams := make(map[string]int, len(a)-1)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	// intersect with bigrams of b (multiset intersection)
	var matches int
	for i := 0; i < len(b)-1; i++ {
		bg := b[i : i+2]
		if n := bigrams[bg]; n > 0 {
			bigrams[bg] = n - 1
			matches++
		}
	}

	return 2 * float64(matches) / float64(len(a)+len(b)-2)
}

// squash lowercases s and removes all whitespace.
func squash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
