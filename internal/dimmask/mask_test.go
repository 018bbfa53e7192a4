package dimmask

import (
	"testing"

	"atmoseng/internal/predicate"
	"atmoseng/internal/product"
)

func floatBuffer(values ...float64) product.Buffer {
	b := product.NewBuffer(product.Float64, len(values))
	copy(b.F64, values)
	return b
}

func TestMaskAllRetainsOnlyPassingElements(t *testing.T) {
	m := New1D(4, true)
	buf := floatBuffer(10, 200, 50, 300)
	pred := &predicate.ValidRangeFilter{Min: 100, Max: 400}
	if err := m.MaskAll(buf, pred); err != nil {
		t.Fatalf("mask_all: %v", err)
	}
	if m.MaskedLength() != 2 {
		t.Fatalf("masked length = %d, want 2", m.MaskedLength())
	}
	want := []int{1, 3}
	got := m.RetainedIndices()
	if len(got) != len(want) {
		t.Fatalf("retained = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("retained[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestMaskAnyKeepsRowWithAnyPassingElement(t *testing.T) {
	m := New1D(2, true)
	// two rows of three elements: row 0 has no in-range value, row 1 has one
	buf := floatBuffer(1, 2, 3, 4, 150, 6)
	pred := &predicate.ValidRangeFilter{Min: 100, Max: 200}
	if err := m.MaskAny(buf, 3, pred); err != nil {
		t.Fatalf("mask_any: %v", err)
	}
	if m.At(0) {
		t.Error("row 0 should have been dropped: no element in [100,200]")
	}
	if !m.At(1) {
		t.Error("row 1 should have been kept: element 150 is in [100,200]")
	}
}

func TestSetSimplifyDropsAllTrueMask(t *testing.T) {
	set := NewSet()
	if _, err := set.GetOrCreate1D(product.Time, 3); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	set.Simplify()
	if _, ok := set.Get(product.Time); ok {
		t.Error("an all-true mask should be dropped by Simplify, not kept explicitly")
	}
}

func TestSetSimplifyCollapsesIdenticalRows(t *testing.T) {
	set := NewSet()
	m, err := set.GetOrCreate2D(product.Vertical, 2, 3)
	if err != nil {
		t.Fatalf("get or create 2d: %v", err)
	}
	// Make both rows identical (and not all-true) so Simplify collapses to
	// rank 1 rather than dropping the mask outright.
	m.Set(false, 0, 1)
	m.Set(false, 1, 1)
	set.Simplify()
	got, ok := set.Get(product.Vertical)
	if !ok {
		t.Fatal("mask should still be present after collapsing to rank 1")
	}
	if got.Rank() != 1 {
		t.Errorf("rank = %d, want 1 after collapsing identical rows", got.Rank())
	}
}

func TestSetHasEmptyDetectsFullyMaskedDimension(t *testing.T) {
	set := NewSet()
	m, err := set.GetOrCreate1D(product.Time, 2)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	m.Set(false, 0)
	m.Set(false, 1)
	if !set.HasEmpty() {
		t.Error("a mask with zero retained elements should mark the set as empty")
	}
}

func TestPrependDimensionReplicatesAcrossTimeAxis(t *testing.T) {
	m := New1D(3, true)
	m.Set(false, 1)
	promoted := m.PrependDimension(2)
	if promoted.Rank() != 2 || promoted.Dim0() != 2 || promoted.Dim1() != 3 {
		t.Fatalf("unexpected promoted shape: rank=%d dim0=%d dim1=%d", promoted.Rank(), promoted.Dim0(), promoted.Dim1())
	}
	for i := 0; i < 2; i++ {
		if promoted.At(i, 1) {
			t.Errorf("row %d column 1 should carry over the original false bit", i)
		}
		if !promoted.At(i, 0) || !promoted.At(i, 2) {
			t.Errorf("row %d columns 0,2 should carry over the original true bits", i)
		}
	}
}
