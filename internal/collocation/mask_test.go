package collocation

import (
	"testing"

	"atmoseng/internal/product"
)

func TestContainsCollocationIndex(t *testing.T) {
	m := New([]Pair{
		{CollocationIndex: 5, SampleIndex: 0},
		{CollocationIndex: 1, SampleIndex: 1},
		{CollocationIndex: 9, SampleIndex: 2},
	}, ByCollocationIndex)

	if !m.ContainsCollocationIndex(5) {
		t.Error("expected collocation_index 5 to be present")
	}
	if m.ContainsCollocationIndex(7) {
		t.Error("collocation_index 7 was never inserted")
	}
}

func TestFilterByCollocationIndex(t *testing.T) {
	m := New([]Pair{
		{CollocationIndex: 10, SampleIndex: 0},
		{CollocationIndex: 30, SampleIndex: 1},
	}, ByCollocationIndex)

	buf := product.NewBuffer(product.Int32, 4)
	vals := []int32{10, 20, 30, 40}
	copy(buf.I32, vals)

	retained, err := FilterByCollocationIndex(buf, m)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	want := []int{0, 2}
	if len(retained) != len(want) {
		t.Fatalf("retained = %v, want %v", retained, want)
	}
	for i := range want {
		if retained[i] != want[i] {
			t.Errorf("retained[%d] = %d, want %d", i, retained[i], want[i])
		}
	}
}

func TestFilterByCollocationIndexRejectsNonIntegerBuffer(t *testing.T) {
	m := New(nil, ByCollocationIndex)
	buf := product.NewBuffer(product.Float64, 1)
	if _, err := FilterByCollocationIndex(buf, m); err == nil {
		t.Fatal("expected an error for a non-integer collocation_index buffer")
	}
}

func TestMergeJoinBySampleIndex(t *testing.T) {
	m := New([]Pair{
		{CollocationIndex: 100, SampleIndex: 1},
		{CollocationIndex: 101, SampleIndex: 3},
		{CollocationIndex: 102, SampleIndex: 3}, // duplicate sample_index: only first wins
	}, BySampleIndex)

	idx := product.NewBuffer(product.Int32, 4)
	copy(idx.I32, []int32{0, 1, 2, 3})

	result, err := MergeJoinBySampleIndex(idx, m)
	if err != nil {
		t.Fatalf("merge join: %v", err)
	}
	if len(result.RetainedRows) != 2 {
		t.Fatalf("retained rows = %v, want 2 entries", result.RetainedRows)
	}
	if result.RetainedRows[0] != 1 || result.CollocationIndex[0] != 100 {
		t.Errorf("first match = (row %d, collocation_index %d), want (1, 100)", result.RetainedRows[0], result.CollocationIndex[0])
	}
	if result.RetainedRows[1] != 3 || result.CollocationIndex[1] != 101 {
		t.Errorf("second match = (row %d, collocation_index %d), want (3, 101): duplicate sample_index 3 must only match once", result.RetainedRows[1], result.CollocationIndex[1])
	}
}

func TestSortBySwitchesOrderAndIsIdempotent(t *testing.T) {
	m := New([]Pair{
		{CollocationIndex: 3, SampleIndex: 9},
		{CollocationIndex: 1, SampleIndex: 7},
	}, ByCollocationIndex)

	m.SortBy(BySampleIndex)
	sorted := m.SortedSampleIndices()
	if sorted[0] != 7 || sorted[1] != 9 {
		t.Errorf("sorted sample indices = %v, want [7 9]", sorted)
	}
	// Re-sorting by the same key must be a no-op, not an error or a panic.
	m.SortBy(BySampleIndex)
}
