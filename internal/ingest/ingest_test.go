package ingest

import (
	"testing"

	"atmoseng/internal/external"
	"atmoseng/internal/oplang"
	"atmoseng/internal/product"
)

func buildReader(t *testing.T, pressure []float64) *external.SliceReader {
	t.Helper()
	dims := map[product.DimensionType]int{product.Time: len(pressure)}
	descs := []external.VariableDescriptor{
		{Name: "pressure", DataType: product.Float64, Dims: []product.Dimension{{Type: product.Time, Length: len(pressure)}}},
		{Name: "product_class", DataType: product.String, Dims: []product.Dimension{{Type: product.Time, Length: len(pressure)}}},
	}
	pBuf := product.NewBuffer(product.Float64, len(pressure))
	copy(pBuf.F64, pressure)
	classBuf := product.NewBuffer(product.String, len(pressure))
	for i := range classBuf.Str {
		s := "A"
		classBuf.Str[i] = &s
	}
	return external.NewSliceReader(dims, descs, map[string]product.Buffer{
		"pressure":      pBuf,
		"product_class": classBuf,
	})
}

func TestMaterializePushesLeadingValueFilter(t *testing.T) {
	reader := buildReader(t, []float64{10, 200, 50, 300})
	prog, err := oplang.Parse(`comparison(pressure >= 100.0)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt := New(nil)
	p, consumed, err := opt.Materialize(prog, reader)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if consumed != 1 {
		t.Fatalf("consumed = %d, want 1 (the filter should have been pushed into the reader)", consumed)
	}
	n, _ := p.DimensionLength(product.Time)
	if n != 2 {
		t.Fatalf("time length = %d, want 2", n)
	}
}

func TestMaterializeStopsAtUnpushableOperation(t *testing.T) {
	reader := buildReader(t, []float64{10, 200})
	prog, err := oplang.Parse(`rebin(bounds)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt := New(nil)
	_, consumed, err := opt.Materialize(prog, reader)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if consumed != 0 {
		t.Fatalf("consumed = %d, want 0 for an operation the prefix pass can't push", consumed)
	}
}

func TestMaterializeKeepVariable(t *testing.T) {
	reader := buildReader(t, []float64{10, 200})
	prog, err := oplang.Parse(`keep-variable(pressure)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opt := New(nil)
	p, consumed, err := opt.Materialize(prog, reader)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if consumed != 1 {
		t.Fatalf("consumed = %d, want 1", consumed)
	}
	if _, ok := p.Variable("product_class"); ok {
		t.Error("product_class should have been dropped by keep-variable(pressure)")
	}
	if _, ok := p.Variable("pressure"); !ok {
		t.Error("pressure should have survived keep-variable(pressure)")
	}
}
