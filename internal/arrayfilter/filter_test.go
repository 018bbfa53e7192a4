package arrayfilter

import (
	"strings"
	"testing"

	"github.com/kr/pretty"

	"atmoseng/internal/dimmask"
	"atmoseng/internal/product"
)

func intBuffer(values ...int32) product.Buffer {
	b := product.NewBuffer(product.Int32, len(values))
	copy(b.I32, values)
	return b
}

func TestApplyRank1MaskOnOuterAxis(t *testing.T) {
	buf := intBuffer(10, 20, 30, 40, 50, 60) // shape (2,3)
	m0 := dimmask.New1D(2, true)
	m0.Set(false, 0)

	res, err := Apply(buf, []int{2, 3}, []AxisMask{m0, nil})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Shape[0] != 1 || res.Shape[1] != 3 {
		t.Fatalf("shape = %v, want [1 3]", res.Shape)
	}
	want := []int32{40, 50, 60}
	if !equalI32(res.Data.I32, want) {
		t.Errorf("data mismatch:\n%s", strings.Join(pretty.Diff(res.Data.I32, want), "\n"))
	}
}

func TestApplyRank2MaskPerRowVaryingWidth(t *testing.T) {
	buf := intBuffer(10, 20, 30, 40, 50, 60) // shape (2,3)
	m1 := dimmask.New2D(2, 3, true)
	m1.Set(false, 0, 1) // row 0 drops column 1
	m1.Set(false, 1, 0) // row 1 keeps only column 1
	m1.Set(false, 1, 2)

	res, err := Apply(buf, []int{2, 3}, []AxisMask{nil, m1})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Shape[0] != 2 || res.Shape[1] != 2 {
		t.Fatalf("shape = %v, want [2 2] (masked length is the widest row)", res.Shape)
	}
	want := []int32{10, 30, 50, 0} // row 1's second slot stays the null filler
	if !equalI32(res.Data.I32, want) {
		t.Errorf("data mismatch:\n%s", strings.Join(pretty.Diff(res.Data.I32, want), "\n"))
	}
}

func TestApplyRejectsRank2MaskOnAxisZero(t *testing.T) {
	buf := intBuffer(1, 2, 3, 4)
	m0 := dimmask.New2D(2, 2, true)
	if _, err := Apply(buf, []int{2, 2}, []AxisMask{m0, nil}); err == nil {
		t.Fatal("expected an error: axis 0 cannot carry a rank-2 mask")
	}
}

func TestApplyRejectsTwoRank2Masks(t *testing.T) {
	buf := intBuffer(1, 2, 3, 4, 5, 6, 7, 8)
	a := dimmask.New2D(2, 2, true)
	b := dimmask.New2D(2, 2, true)
	if _, err := Apply(buf, []int{2, 2, 2}, []AxisMask{nil, a, b}); err == nil {
		t.Fatal("expected an error: at most one axis may carry a rank-2 mask")
	}
}

func equalI32(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
