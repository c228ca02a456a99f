// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package search

// SimilarityFunc scores how alike two strings are, in [0.0, 1.0].
// Implementations must treat two empty strings as identical (1.0) and an
// empty string against a non-empty one as entirely dissimilar (0.0).
type SimilarityFunc func(a, b string) float64

// Ratio is the default SimilarityFunc: twice the number of matching
// characters divided by the total number of characters in both strings.
// Matching characters are counted by recursively locating the longest
// common substring and matching the remainders on each side, which keeps
// the score order-sensitive ("abc" vs "cab" scores lower than "abc" vs
// "abd") while tolerating insertions and typos.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)
	matches := matchingChars(ra, rb)
	return 2.0 * float64(matches) / float64(len(ra)+len(rb))
}

// matchingChars counts characters covered by the matching blocks of a and
// b: the longest common substring plus, recursively, the matches in the
// unmatched prefixes and suffixes around it.
func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonBlock finds the longest common substring of a and b,
// preferring the earliest occurrence in a when lengths tie.
// Returns the start offsets and the length; length 0 means no overlap.
func longestCommonBlock(a, b []rune) (bestA, bestB, bestSize int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	// for the current row i.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		// Walk j descending so lengths[j-1] still holds the previous row.
		for j := len(b); j >= 1; j-- {
			if a[i-1] != b[j-1] {
				lengths[j] = 0
				continue
			}
			lengths[j] = lengths[j-1] + 1
			if lengths[j] > bestSize {
				bestSize = lengths[j]
				bestA = i - bestSize
				bestB = j - bestSize
			}
		}
	}
	return bestA, bestB, bestSize
}
