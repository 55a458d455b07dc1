package tree

import (
	"slices"

	"github.com/standardbeagle/axtree/internal/types"
)

func pairKeysMatch[K comparable, V any](a, b []types.AttrPair[K, V]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Attr != b[i].Attr {
			return false
		}
	}
	return true
}

// forEachChangedAttr calls cb for every attribute whose value differs
// between the old and new pair lists. A removed attribute reports a change
// to empty; an added attribute reports a change from empty.
//
// Fast path: both lists carry the same keys in the same order, which is the
// common case since producers emit attributes in a stable order. Slow path:
// fall back to map lookups so added/removed keys are found without going
// quadratic.
func forEachChangedAttr[K comparable, V any](
	old, new []types.AttrPair[K, V],
	empty V,
	eq func(a, b V) bool,
	cb func(attr K, oldVal, newVal V),
) {
	if pairKeysMatch(old, new) {
		for i := range old {
			if !eq(old[i].Value, new[i].Value) {
				cb(old[i].Attr, old[i].Value, new[i].Value)
			}
		}
		return
	}

	oldMap := make(map[K]V, len(old))
	for _, p := range old {
		oldMap[p.Attr] = p.Value
	}
	newMap := make(map[K]V, len(new))
	for _, p := range new {
		newMap[p.Attr] = p.Value
	}

	for _, p := range old {
		if _, stillThere := newMap[p.Attr]; !stillThere && !eq(p.Value, empty) {
			cb(p.Attr, p.Value, empty)
		}
	}
	for _, p := range new {
		if oldVal, had := oldMap[p.Attr]; !had {
			cb(p.Attr, empty, p.Value)
		} else if !eq(oldVal, p.Value) {
			cb(p.Attr, oldVal, p.Value)
		}
	}
}

func eqComparable[V comparable](a, b V) bool { return a == b }

func eqInt32Slice(a, b []int32) bool { return slices.Equal(a, b) }

func eqStringSlice(a, b []string) bool { return slices.Equal(a, b) }
