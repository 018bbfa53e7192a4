package engine

import (
	"testing"

	"atmoseng/internal/oplang"
	"atmoseng/internal/product"
)

func buildTestProduct(t *testing.T, pressure []float64, flag []string) *product.Product {
	t.Helper()
	p := product.New()
	p.SourceProduct = "test"

	pv, err := product.NewVariable("pressure", product.Float64, []product.Dimension{{Type: product.Time, Length: len(pressure)}})
	if err != nil {
		t.Fatalf("build pressure variable: %v", err)
	}
	copy(pv.Data.F64, pressure)
	if err := p.AddVariable(pv); err != nil {
		t.Fatalf("add pressure: %v", err)
	}

	fv, err := product.NewVariable("product_class", product.String, []product.Dimension{{Type: product.Time, Length: len(flag)}})
	if err != nil {
		t.Fatalf("build product_class variable: %v", err)
	}
	for i, s := range flag {
		s := s
		fv.Data.Str[i] = &s
	}
	if err := p.AddVariable(fv); err != nil {
		t.Fatalf("add product_class: %v", err)
	}
	return p
}

func TestRunSingleValueFilter(t *testing.T) {
	p := buildTestProduct(t, []float64{10, 200, 50, 300}, []string{"A", "A", "A", "A"})
	prog, err := oplang.Parse(`comparison(pressure >= 100.0)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	n, _ := p.DimensionLength(product.Time)
	if n != 2 {
		t.Fatalf("time length = %d, want 2", n)
	}
	pv, _ := p.Variable("pressure")
	if pv.Data.F64[0] != 200 || pv.Data.F64[1] != 300 {
		t.Errorf("retained pressure values = %v, want [200 300]", pv.Data.F64)
	}
}

// Two consecutive value filters on different variables must fuse into a
// single compaction pass and still apply the conjunction of both.
func TestRunFusesConsecutiveValueFilters(t *testing.T) {
	p := buildTestProduct(t, []float64{10, 200, 50, 300}, []string{"A", "B", "A", "B"})
	prog, err := oplang.Parse(`comparison(pressure >= 100.0);string-comparison(product_class == "B")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	n, _ := p.DimensionLength(product.Time)
	if n != 2 {
		t.Fatalf("time length = %d, want 2 (rows 1 and 3 pass both filters)", n)
	}
	pv, _ := p.Variable("pressure")
	if pv.Data.F64[0] != 200 || pv.Data.F64[1] != 300 {
		t.Errorf("retained pressure = %v, want [200 300]", pv.Data.F64)
	}
}

func TestRunValueFilterEmptiesProduct(t *testing.T) {
	p := buildTestProduct(t, []float64{10, 20}, []string{"A", "A"})
	prog, err := oplang.Parse(`comparison(pressure >= 1000.0)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !p.IsEmpty() {
		t.Error("expected product to be empty after a filter that retains nothing")
	}
}

func TestRunRenameAndKeepVariable(t *testing.T) {
	p := buildTestProduct(t, []float64{10, 20}, []string{"A", "A"})
	prog, err := oplang.Parse(`rename(product_class,quality_flag);keep-variable(pressure)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := p.Variable("quality_flag"); ok {
		t.Error("quality_flag should have been dropped by the subsequent keep-variable(pressure)")
	}
	if _, ok := p.Variable("pressure"); !ok {
		t.Error("pressure should have survived keep-variable(pressure)")
	}
}

func TestRunMissingKernelReportsClearError(t *testing.T) {
	p := buildTestProduct(t, []float64{10, 20}, []string{"A", "A"})
	prog, err := oplang.Parse(`rebin(bounds)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err == nil {
		t.Fatal("expected an error when no Kernels implementation is configured")
	}
}

func TestRunUnconfiguredSetOptionFails(t *testing.T) {
	p := buildTestProduct(t, []float64{10}, []string{"A"})
	prog, err := oplang.Parse(`set(not_a_real_option,yes)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eng := New(Environment{})
	if err := eng.Run(prog, p); err == nil {
		t.Fatal("expected an error for an unrecognized set() option/value pair")
	}
}
