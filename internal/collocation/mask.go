// Package collocation implements CollocationMask: a sorted index-pair
// table (collocation_index <-> sample_index) with binary-search lookup,
// and the two join strategies §4.6 describes against a product's
// collocation_index or index variable.
package collocation

import (
	"golang.org/x/exp/slices"

	"atmoseng/internal/harperr"
	"atmoseng/internal/product"
)

// SortKey selects which column a Mask is currently ordered by.
type SortKey int

const (
	BySampleIndex SortKey = iota
	ByCollocationIndex
)

// Pair is one (collocation_index, sample_index) row.
type Pair struct {
	CollocationIndex int64
	SampleIndex      int64
}

// Mask is a dynamic array of Pairs with an explicit current sort order.
// Binary search requires the matching sort order; ContainsCollocationIndex
// and MergeJoinBySampleIndex re-sort the mask as needed.
type Mask struct {
	pairs   []Pair
	sortKey SortKey
}

// New builds a Mask from pairs, sorted by key.
func New(pairs []Pair, key SortKey) *Mask {
	m := &Mask{pairs: append([]Pair(nil), pairs...), sortKey: key}
	m.SortBy(key)
	return m
}

// Len returns the number of pairs.
func (m *Mask) Len() int { return len(m.pairs) }

// CurrentSortKey returns the mask's current sort order.
func (m *Mask) CurrentSortKey() SortKey { return m.sortKey }

// SortBy re-sorts the mask by the given key, if it isn't already.
func (m *Mask) SortBy(key SortKey) {
	cmp := m.cmp(key)
	if m.sortKey == key && slices.IsSortedFunc(m.pairs, cmp) {
		return
	}
	slices.SortFunc(m.pairs, cmp)
	m.sortKey = key
}

func (m *Mask) cmp(key SortKey) func(a, b Pair) int {
	if key == BySampleIndex {
		return func(a, b Pair) int { return cmpInt64(a.SampleIndex, b.SampleIndex) }
	}
	return func(a, b Pair) int { return cmpInt64(a.CollocationIndex, b.CollocationIndex) }
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortedSampleIndices returns the sample_index column, sorted ascending,
// in the form predicate.CollocationFilter takes. The ingestion optimizer
// does not call it.
func (m *Mask) SortedSampleIndices() []int64 {
	m.SortBy(BySampleIndex)
	out := make([]int64, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.SampleIndex
	}
	return out
}

// ContainsCollocationIndex reports whether value appears as a
// collocation_index, via binary search. The mask is re-sorted by
// collocation_index first if it is not already in that order.
func (m *Mask) ContainsCollocationIndex(value int64) bool {
	if m.sortKey != ByCollocationIndex {
		m.SortBy(ByCollocationIndex)
	}
	_, found := slices.BinarySearchFunc(m.pairs, value, func(p Pair, v int64) int { return cmpInt64(p.CollocationIndex, v) })
	return found
}

// FilterByCollocationIndex implements §4.6 lookup 1: for each row i of a
// variable named collocation_index, retain row i iff its value appears in
// the mask. Returns the retained row indices, ascending.
func FilterByCollocationIndex(values product.Buffer, m *Mask) ([]int, error) {
	if values.Type != product.Int32 && values.Type != product.Int16 && values.Type != product.Int8 {
		return nil, harperr.InvalidArg("collocation_index variable must be an integer type")
	}
	var retained []int
	for i := 0; i < values.Len(); i++ {
		if m.ContainsCollocationIndex(values.IntAt(i)) {
			retained = append(retained, i)
		}
	}
	return retained, nil
}

// MergeJoinResult is the outcome of §4.6 lookup 2: the retained row
// indices (in product order) plus the freshly built collocation_index
// values matched to each.
type MergeJoinResult struct {
	RetainedRows      []int
	CollocationIndex  []int64
}

// MergeJoinBySampleIndex implements §4.6 lookup 2: a two-pointer merge
// between m (sorted by sample_index) and a product's monotonically
// non-decreasing `index` variable. Duplicates in the index variable are
// ignored on the product side — only the first occurrence of a repeated
// value is matched.
func MergeJoinBySampleIndex(index product.Buffer, m *Mask) (MergeJoinResult, error) {
	if !index.Type.IsInteger() && index.Type != product.Float64 && index.Type != product.Float32 {
		return MergeJoinResult{}, harperr.InvalidArg("index variable must be numeric")
	}
	m.SortBy(BySampleIndex)
	n := index.Len()
	var result MergeJoinResult
	seen := make(map[int64]bool)

	pi, si := 0, 0
	for pi < n && si < len(m.pairs) {
		var v int64
		if index.Type.IsInteger() {
			v = index.IntAt(pi)
		} else {
			v = int64(index.Float64At(pi))
		}
		switch {
		case v < m.pairs[si].SampleIndex:
			pi++
		case v > m.pairs[si].SampleIndex:
			si++
		default:
			if seen[v] {
				pi++
				continue
			}
			seen[v] = true
			result.RetainedRows = append(result.RetainedRows, pi)
			result.CollocationIndex = append(result.CollocationIndex, m.pairs[si].CollocationIndex)
			pi++
		}
	}
	return result, nil
}
