package grouping

import "sort"

type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// ByKey groups items by exact key equality. Groups appear in the order
// their key is first seen; items inside a group are stably sorted by
// ascending order so equal orders keep their arrival position.
func ByKey[K comparable, T any](items []T, key func(T) K, order func(T) int) []Group[K, T] {
	index := make(map[K]int)
	var groups []Group[K, T]

	for _, item := range items {
		k := key(item)
		pos, ok := index[k]
		if !ok {
			pos = len(groups)
			index[k] = pos
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}

	for i := range groups {
		children := groups[i].Items
		sort.SliceStable(children, func(a, b int) bool {
			return order(children[a]) < order(children[b])
		})
	}
	return groups
}
