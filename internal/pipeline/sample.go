package pipeline

import (
	"math/rand/v2"
	"slices"
)

// Sample picks n items at random, seeded by seed, and returns them in their
// original order. n <= 0 or n >= len(items) returns items unchanged.
func Sample[T any](items []T, n int, seed uint64) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	idx := r.Perm(len(items))[:n]
	slices.Sort(idx)

	out := make([]T, 0, n)
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}
