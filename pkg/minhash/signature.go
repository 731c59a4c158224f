package minhash

import (
	"github.com/arthur-debert/ndetect/pkg/errors"
)

const (
	// mersennePrime is the modulus for the universal hash permutations.
	// Hash values are always strictly below it.
	mersennePrime uint64 = (1 << 61) - 1

	// maxHash is the sentinel for positions that never saw a shingle.
	// A signature of an empty document is maxHash at every position.
	maxHash uint64 = mersennePrime
)

// Signature is a fixed-size locality-sensitive sketch of a document's
// shingle set: one minimum hash value per permutation function. Two
// signatures are comparable when they have the same length.
type Signature []uint64

// IsEmpty reports whether the signature was computed from a document with
// no shingles (every position still holds the sentinel)
func (s Signature) IsEmpty() bool {
	for _, v := range s {
		if v != maxHash {
			return false
		}
	}
	return true
}

// Similarity estimates the Jaccard similarity of the underlying shingle
// sets as the fraction of matching positions. The estimate converges to
// the true Jaccard value as the signature length grows.
func Similarity(a, b Signature) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, errors.Newf(errors.ErrInvalidInput,
			"signatures are not comparable: lengths %d and %d", len(a), len(b))
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a)), nil
}

// merge folds other's minima into s in place. Aggregation is commutative,
// so partial signatures from chunked extraction can merge in any order.
func (s Signature) merge(other Signature) {
	for i, v := range other {
		if v < s[i] {
			s[i] = v
		}
	}
}
