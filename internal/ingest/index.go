package ingest

// Index is an immutable membership set over the keys of a validated
// collection. It lives only for the duration of one mapping pass.
type Index[K comparable] struct {
	keys map[K]struct{}
}

// NewIndex builds an index over items using key to extract each item's key.
func NewIndex[T any, K comparable](items []T, key func(T) K) Index[K] {
	keys := make(map[K]struct{}, len(items))
	for _, item := range items {
		keys[key(item)] = struct{}{}
	}
	return Index[K]{keys: keys}
}

// Has reports whether k is present.
func (ix Index[K]) Has(k K) bool {
	_, ok := ix.keys[k]
	return ok
}

// Len returns the number of distinct keys.
func (ix Index[K]) Len() int {
	return len(ix.keys)
}
