// Package sliceutil holds small generic slice helpers.
package sliceutil

// UniqueBy keeps the first element for each key and drops later repeats,
// preserving the input order.
//
//	ids := sliceutil.UniqueBy(students, func(s storage.Student) string { return s.StudentID })
func UniqueBy[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) < 2 {
		return items
	}
	seen := make(map[K]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
