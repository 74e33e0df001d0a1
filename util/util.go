package util

import (
	"sort"

	"golang.org/x/exp/constraints"
)

func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

func Min[A constraints.Ordered](a A, b A) A {
	if a > b {
		return b
	}
	return a
}

func Max[A constraints.Ordered](a A, b A) A {
	if a < b {
		return b
	}
	return a
}

// Difference returns the members of all that are not in sub, ascending.
func Difference[A constraints.Integer](all map[A]bool, sub []A) []A {
	skip := make(map[A]bool, len(sub))
	for _, v := range sub {
		skip[v] = true
	}
	var res []A
	for _, v := range SortedKeys(all) {
		if !skip[v] {
			res = append(res, v)
		}
	}
	return res
}
