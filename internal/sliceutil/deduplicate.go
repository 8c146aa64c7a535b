// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate keeps the first item for each key, preserving order, and
// returns the keys of the items it dropped.
//
// Example:
//
//	programs, dropped := sliceutil.Deduplicate(programs, func(p program.Program) string { return p.ID })
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) ([]T, []K) {
	if len(items) == 0 {
		return items, nil
	}

	seen := make(map[K]struct{}, len(items))
	kept := make([]T, 0, len(items))
	var dropped []K

	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			dropped = append(dropped, key)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, item)
	}

	return kept, dropped
}
