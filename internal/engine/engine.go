// Package engine implements ExecutionEngine: sequential dispatch of a
// Program's operations against a Product, with the fusion rules that
// coalesce consecutive value/point/polygon filters into a single
// compaction pass (§4.9).
package engine

import (
	"atmoseng/internal/collocation"
	"atmoseng/internal/config"
	"atmoseng/internal/dimmask"
	"atmoseng/internal/external"
	"atmoseng/internal/harperr"
	"atmoseng/internal/obslog"
	"atmoseng/internal/operation"
	"atmoseng/internal/oplang"
	"atmoseng/internal/product"
)

// Kernels is the narrow collaborator housing the operations this engine
// does not implement directly: variable derivation and the regrid/rebin/
// bin/smooth shape transforms. Like UnitLibrary and SphericalLibrary,
// these require domain-science algorithms (vertical smoothing kernels,
// conservative regridding, AFGL86 climatology lookups) that are out of
// this package's scope; a production deployment supplies a Kernels
// implementation backed by the actual derivation/regrid library.
type Kernels interface {
	DeriveVariable(p *product.Product, op operation.DeriveVariableOp) error
	DeriveSmoothedColumnCollocatedDataset(p *product.Product, op operation.DeriveSmoothedColumnCollocatedDatasetOp, mask *collocation.Mask) error
	DeriveSmoothedColumnCollocatedProduct(p *product.Product, op operation.DeriveSmoothedColumnCollocatedProductOp, mask *collocation.Mask) error
	Rebin(p *product.Product, op operation.RebinOp) error
	Regrid(p *product.Product, op operation.RegridOp) error
	RegridCollocatedDataset(p *product.Product, op operation.RegridCollocatedDatasetOp, mask *collocation.Mask) error
	RegridCollocatedProduct(p *product.Product, op operation.RegridCollocatedProductOp, mask *collocation.Mask) error
	SmoothCollocatedDataset(p *product.Product, op operation.SmoothCollocatedDatasetOp, mask *collocation.Mask) error
	SmoothCollocatedProduct(p *product.Product, op operation.SmoothCollocatedProductOp, mask *collocation.Mask) error
	Sort(p *product.Product, variables []string) error
	Squash(p *product.Product, op operation.SquashOp) error
	Flatten(p *product.Product, op operation.FlattenOp) error
	BinFull(p *product.Product) error
	BinSpatial(p *product.Product, op operation.BinSpatialOp) error
	BinWithVariables(p *product.Product, op operation.BinWithVariablesOp) error
	BinCollocated(p *product.Product, op operation.BinCollocatedOp, mask *collocation.Mask) error
}

// Environment bundles every external collaborator the engine dispatches
// to: the three narrow interfaces from §6, plus Kernels, plus a logger for
// non-fatal operation warnings.
type Environment struct {
	Units       external.UnitLibrary
	Sphere      external.SphericalLibrary
	Collocation collocation.Source
	Kernels     Kernels
	Logger      obslog.Logger
}

// Engine runs Programs against Products.
type Engine struct {
	Env Environment
}

// New builds an Engine over env. A nil field in env is legal; operations
// that need it fail with an operation error rather than panicking.
func New(env Environment) *Engine {
	return &Engine{Env: env}
}

// Run executes prog against p from idle to a terminal state, restoring the
// global option snapshot on every exit path (including error returns).
func (e *Engine) Run(prog *oplang.Program, p *product.Product) error {
	prog.Begin()
	defer prog.End()

	if prog.State == oplang.StateTerminatedEmpty {
		return nil
	}

	for prog.State == oplang.StateRunning {
		consumed, err := e.step(p, prog)
		if err != nil {
			prog.Fail()
			return err
		}
		prog.Advance(consumed)
		if p.IsEmpty() {
			// A product that became empty ends the program successfully;
			// the remaining operations are not run.
			prog.State = oplang.StateCompleted
			return nil
		}
	}
	return nil
}

// step executes the operation group starting at the cursor (fused where
// the next operations are compatible) and returns how many operations it
// consumed.
func (e *Engine) step(p *product.Product, prog *oplang.Program) (int, error) {
	op := prog.Current()
	if op == nil {
		return 1, nil
	}

	if vf, ok := op.(operation.ValueFilterOp); ok {
		group := []operation.ValueFilterOp{vf}
		n := 1
		for {
			next := prog.Peek(n)
			nvf, ok := next.(operation.ValueFilterOp)
			if !ok {
				break
			}
			group = append(group, nvf)
			n++
		}
		return n, e.runValueFilterGroup(p, group)
	}

	if _, ok := op.(operation.PointFilterOp); ok {
		group := []operation.Operation{op}
		n := 1
		for {
			next := prog.Peek(n)
			if _, ok := next.(operation.PointFilterOp); !ok {
				break
			}
			group = append(group, next)
			n++
		}
		return n, e.runPointFilterGroup(p, group)
	}

	if _, ok := op.(operation.PolygonFilterOp); ok {
		group := []operation.Operation{op}
		n := 1
		for {
			next := prog.Peek(n)
			if _, ok := next.(operation.PolygonFilterOp); !ok {
				break
			}
			group = append(group, next)
			n++
		}
		return n, e.runPolygonFilterGroup(p, group)
	}

	return 1, e.runSingle(p, op)
}

func (e *Engine) runSingle(p *product.Product, op operation.Operation) error {
	switch o := op.(type) {
	case operation.RenameOp:
		return p.RenameVariable(o.OldName, o.NewName)
	case operation.KeepVariableOp:
		return p.KeepVariables(o.Names)
	case operation.ExcludeVariableOp:
		return p.ExcludeVariables(o.Names)
	case operation.SetOp:
		if !config.Valid(o.Option, o.Value) {
			return harperr.Op("set: unrecognized option/value pair (%q, %q)", o.Option, o.Value)
		}
		config.Set(o.Option, o.Value)
		return nil
	case operation.CollocationFilterOp:
		return e.runCollocationFilter(p, o)
	case operation.ClampOp:
		return e.runClamp(p, o)
	case operation.DeriveVariableOp:
		return e.needKernels().DeriveVariable(p, o)
	case operation.DeriveSmoothedColumnCollocatedDatasetOp:
		mask, err := e.loadCollocation(p, o.Args)
		if err != nil {
			return err
		}
		return e.needKernels().DeriveSmoothedColumnCollocatedDataset(p, o, mask)
	case operation.DeriveSmoothedColumnCollocatedProductOp:
		mask, err := e.loadCollocation(p, o.Args)
		if err != nil {
			return err
		}
		return e.needKernels().DeriveSmoothedColumnCollocatedProduct(p, o, mask)
	case operation.RebinOp:
		return e.needKernels().Rebin(p, o)
	case operation.RegridOp:
		return e.needKernels().Regrid(p, o)
	case operation.RegridCollocatedDatasetOp:
		mask, err := e.loadCollocationBy(p, o.CollocationResult, o.ProductFile, o.Side)
		if err != nil {
			return err
		}
		return e.needKernels().RegridCollocatedDataset(p, o, mask)
	case operation.RegridCollocatedProductOp:
		mask, err := e.loadCollocationBy(p, o.CollocationResult, o.ProductFile, o.Side)
		if err != nil {
			return err
		}
		return e.needKernels().RegridCollocatedProduct(p, o, mask)
	case operation.SmoothCollocatedDatasetOp:
		mask, err := e.loadCollocationBy(p, o.CollocationResult, o.ProductFile, o.Side)
		if err != nil {
			return err
		}
		return e.needKernels().SmoothCollocatedDataset(p, o, mask)
	case operation.SmoothCollocatedProductOp:
		mask, err := e.loadCollocationBy(p, o.CollocationResult, o.ProductFile, o.Side)
		if err != nil {
			return err
		}
		return e.needKernels().SmoothCollocatedProduct(p, o, mask)
	case operation.SortOp:
		return e.needKernels().Sort(p, o.Variables)
	case operation.SquashOp:
		return e.needKernels().Squash(p, o)
	case operation.FlattenOp:
		return e.needKernels().Flatten(p, o)
	case operation.BinFullOp:
		return e.needKernels().BinFull(p)
	case operation.BinSpatialOp:
		return e.needKernels().BinSpatial(p, o)
	case operation.BinWithVariablesOp:
		return e.needKernels().BinWithVariables(p, o)
	case operation.BinCollocatedOp:
		mask, err := e.loadCollocationBy(p, o.CollocationResult, "", o.Side)
		if err != nil {
			return err
		}
		return e.needKernels().BinCollocated(p, o, mask)
	}
	return harperr.Op("operation %s has no execution handler", op.Kind())
}

func (e *Engine) needKernels() Kernels {
	if e.Env.Kernels == nil {
		return missingKernels{}
	}
	return e.Env.Kernels
}

// missingKernels reports a clear operation error for every Kernels method
// instead of the engine panicking on a nil interface, when no Kernels
// implementation was wired into the Environment.
type missingKernels struct{}

func (missingKernels) err(name string) error {
	return harperr.Op("no derivation/regrid kernel library configured: %s is unavailable", name)
}
func (k missingKernels) DeriveVariable(*product.Product, operation.DeriveVariableOp) error {
	return k.err("derive-variable")
}
func (k missingKernels) DeriveSmoothedColumnCollocatedDataset(*product.Product, operation.DeriveSmoothedColumnCollocatedDatasetOp, *collocation.Mask) error {
	return k.err("derive-smoothed-column-collocated-dataset")
}
func (k missingKernels) DeriveSmoothedColumnCollocatedProduct(*product.Product, operation.DeriveSmoothedColumnCollocatedProductOp, *collocation.Mask) error {
	return k.err("derive-smoothed-column-collocated-product")
}
func (k missingKernels) Rebin(*product.Product, operation.RebinOp) error { return k.err("rebin") }
func (k missingKernels) Regrid(*product.Product, operation.RegridOp) error { return k.err("regrid") }
func (k missingKernels) RegridCollocatedDataset(*product.Product, operation.RegridCollocatedDatasetOp, *collocation.Mask) error {
	return k.err("regrid-collocated-dataset")
}
func (k missingKernels) RegridCollocatedProduct(*product.Product, operation.RegridCollocatedProductOp, *collocation.Mask) error {
	return k.err("regrid-collocated-product")
}
func (k missingKernels) SmoothCollocatedDataset(*product.Product, operation.SmoothCollocatedDatasetOp, *collocation.Mask) error {
	return k.err("smooth-collocated-dataset")
}
func (k missingKernels) SmoothCollocatedProduct(*product.Product, operation.SmoothCollocatedProductOp, *collocation.Mask) error {
	return k.err("smooth-collocated-product")
}
func (k missingKernels) Sort(*product.Product, []string) error       { return k.err("sort") }
func (k missingKernels) Squash(*product.Product, operation.SquashOp) error { return k.err("squash") }
func (k missingKernels) Flatten(*product.Product, operation.FlattenOp) error {
	return k.err("flatten")
}
func (k missingKernels) BinFull(*product.Product) error { return k.err("bin-full") }
func (k missingKernels) BinSpatial(*product.Product, operation.BinSpatialOp) error {
	return k.err("bin-spatial")
}
func (k missingKernels) BinWithVariables(*product.Product, operation.BinWithVariablesOp) error {
	return k.err("bin-with-variables")
}
func (k missingKernels) BinCollocated(*product.Product, operation.BinCollocatedOp, *collocation.Mask) error {
	return k.err("bin-collocated")
}

func (e *Engine) runClamp(p *product.Product, o operation.ClampOp) error {
	n, ok := p.DimensionLength(o.Dimension)
	if !ok {
		return harperr.Op("clamp: product has no %s dimension", o.Dimension)
	}
	axis, ok := p.Variable(o.AxisVariable)
	if !ok {
		return harperr.Op("clamp: no such axis variable %q", o.AxisVariable)
	}
	set := dimmask.NewSet()
	m, err := set.GetOrCreate1D(o.Dimension, n)
	if err != nil {
		return err
	}
	lower, upper := o.Lower, o.Upper
	if o.AxisUnit != "" && axis.Unit != "" && string(o.AxisUnit) != axis.Unit {
		conv, err := e.converter(o.AxisUnit, axis.Unit)
		if err != nil {
			return err
		}
		if conv != nil {
			lower, upper = conv.Apply(lower), conv.Apply(upper)
		}
	}
	for i := 0; i < n; i++ {
		v := axis.Data.Float64At(i)
		if v < lower || v > upper {
			m.Set(false, i)
		}
	}
	set.Simplify()
	return p.Filter(set)
}

func (e *Engine) converter(from operation.Unit, to string) (external.Converter, error) {
	if from == "" || to == "" || string(from) == to {
		return nil, nil
	}
	if e.Env.Units == nil {
		return nil, harperr.Op("no unit library configured to convert %q to %q", from, to)
	}
	return e.Env.Units.Converter(string(from), to)
}

func (e *Engine) loadCollocation(p *product.Product, args operation.CollocatedDatasetArgs) (*collocation.Mask, error) {
	return e.loadCollocationBy(p, args.CollocationResult, args.ProductFile, args.Side)
}

func (e *Engine) loadCollocationBy(p *product.Product, collocationResult, productFile string, side operation.Side) (*collocation.Mask, error) {
	if e.Env.Collocation == nil {
		return nil, harperr.Op("no collocation table source configured")
	}
	source := p.SourceProduct
	if productFile != "" {
		source = productFile
	}
	_ = collocationResult
	return e.Env.Collocation.Load(collocation.Query{
		SourceProduct: source,
		Side:          collocation.Side(side),
	})
}

func (e *Engine) runCollocationFilter(p *product.Product, o operation.CollocationFilterOp) error {
	if e.Env.Collocation == nil {
		return harperr.Op("no collocation table source configured")
	}
	var window *collocation.IndexWindow
	if o.Window != nil {
		window = &collocation.IndexWindow{Min: o.Window[0], Max: o.Window[1]}
	}
	mask, err := e.Env.Collocation.Load(collocation.Query{
		SourceProduct: p.SourceProduct,
		Side:          collocation.Side(o.Side),
		Window:        window,
	})
	if err != nil {
		return err
	}

	if ci, ok := p.Variable("collocation_index"); ok {
		retained, err := collocation.FilterByCollocationIndex(ci.Data, mask)
		if err != nil {
			return err
		}
		return e.applyRetainedTimeRows(p, retained)
	}
	if idx, ok := p.Variable("index"); ok {
		result, err := collocation.MergeJoinBySampleIndex(idx.Data, mask)
		if err != nil {
			return err
		}
		if err := e.applyRetainedTimeRows(p, result.RetainedRows); err != nil {
			return err
		}
		return p.AddVariable(mustCollocationIndexVariable(result.CollocationIndex))
	}
	return harperr.Op("collocation-filter requires a collocation_index or index variable")
}

func mustCollocationIndexVariable(values []int64) *product.Variable {
	v, _ := product.NewVariable("collocation_index", product.Int32, []product.Dimension{{Type: product.Time, Length: len(values)}})
	for i, x := range values {
		v.Data.I32[i] = int32(x)
	}
	return v
}

func (e *Engine) applyRetainedTimeRows(p *product.Product, retained []int) error {
	n, ok := p.DimensionLength(product.Time)
	if !ok {
		return harperr.Op("collocation-filter requires a time dimension")
	}
	set := dimmask.NewSet()
	m, err := set.GetOrCreate1D(product.Time, n)
	if err != nil {
		return err
	}
	keep := make(map[int]bool, len(retained))
	for _, i := range retained {
		keep[i] = true
	}
	for i := 0; i < n; i++ {
		if !keep[i] {
			m.Set(false, i)
		}
	}
	set.Simplify()
	return p.Filter(set)
}
