// Package ingest implements IngestionOptimizer: a prefix pass that pushes
// the leading run of filter/keep/exclude operations in a Program down into
// an external.Reader before the product is ever fully materialized,
// falling back to full materialization the moment an operation can't be
// pushed (§4.9/§4.10).
package ingest

import (
	"atmoseng/internal/dimmask"
	"atmoseng/internal/external"
	"atmoseng/internal/harperr"
	"atmoseng/internal/operation"
	"atmoseng/internal/oplang"
	"atmoseng/internal/predicate"
	"atmoseng/internal/product"
)

// Optimizer runs the pushdown prefix pass. Units is used the same way the
// engine uses it, to build converters for filters expressed in a
// different unit than the source variable.
type Optimizer struct {
	Units external.UnitLibrary
}

// New builds an Optimizer.
func New(units external.UnitLibrary) *Optimizer {
	return &Optimizer{Units: units}
}

// Materialize runs the pushdown prefix starting at prog's cursor against
// reader, returning the filtered product and the number of leading
// operations it consumed (0 if the very first operation could not be
// pushed, in which case the returned product is the fully materialized
// input and internal/engine runs the whole program). The caller advances prog's
// cursor by the returned count and hands the remaining program to the
// in-memory engine.
func (o *Optimizer) Materialize(prog *oplang.Program, reader external.Reader) (*product.Product, int, error) {
	dims := reader.Dimensions()
	descriptors := reader.Variables()

	set := dimmask.NewSet()
	keepPatterns := map[string]bool{}
	excludePatterns := map[string]bool{}
	anyKeep := false

	// Scratch buffers read for pushdown-only filter evaluation are scoped
	// to this call and discarded once the prefix pass ends.
	scratch := make(map[string]product.Buffer)

	consumed := 0
	for {
		op := prog.Peek(consumed)
		if op == nil {
			break
		}
		ok, err := o.pushOne(op, dims, descriptors, set, keepPatterns, excludePatterns, &anyKeep, scratch, reader)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			break
		}
		consumed++
		set.Simplify()
		if set.HasEmpty() {
			break
		}
	}

	p, err := o.materializeProduct(dims, descriptors, reader, keepPatterns, excludePatterns, anyKeep)
	if err != nil {
		return nil, 0, err
	}
	if err := p.Filter(set); err != nil {
		return nil, 0, err
	}
	return p, consumed, nil
}

func (o *Optimizer) pushOne(
	op operation.Operation,
	dims map[product.DimensionType]int,
	descriptors []external.VariableDescriptor,
	set *dimmask.Set,
	keepPatterns, excludePatterns map[string]bool,
	anyKeep *bool,
	scratch map[string]product.Buffer,
	reader external.Reader,
) (bool, error) {
	switch o := op.(type) {
	case operation.KeepVariableOp:
		*anyKeep = true
		for _, n := range o.Names {
			keepPatterns[n] = true
		}
		return true, nil
	case operation.ExcludeVariableOp:
		for _, n := range o.Names {
			excludePatterns[n] = true
		}
		return true, nil
	case operation.IndexComparisonOp:
		n, ok := dims[o.Dimension]
		if !ok {
			return false, nil
		}
		m, err := set.GetOrCreate1D(o.Dimension, n)
		if err != nil {
			return false, err
		}
		dummy := product.NewBuffer(product.Int32, n)
		return true, m.MaskAll(dummy, &predicate.IndexComparisonFilter{Op: predicate.Op(o.Op), Value: o.Value})
	case operation.IndexMembershipOp:
		n, ok := dims[o.Dimension]
		if !ok {
			return false, nil
		}
		m, err := set.GetOrCreate1D(o.Dimension, n)
		if err != nil {
			return false, err
		}
		dummy := product.NewBuffer(product.Int32, n)
		return true, m.MaskAll(dummy, predicate.NewIndexMembershipFilter(predicate.MembershipMode(o.Mode), o.Values))
	}

	vf, ok := op.(operation.ValueFilterOp)
	if !ok {
		return false, nil
	}
	name := vf.TargetVariable()
	desc := findDescriptor(descriptors, name)
	if desc == nil || reader.Exclude(name) || len(desc.Dims) != 1 {
		// Only single-dimension variables can be pushed: anything with
		// more shape would require the full-compaction machinery in
		// internal/arrayfilter, which this prefix pass deliberately
		// avoids so it never has to materialize more than one variable
		// at a time.
		return false, nil
	}

	buf, ok := scratch[name]
	if !ok {
		buf = product.NewBuffer(desc.DataType, desc.Dims[0].Length)
		if err := reader.ReadWhole(name, buf); err != nil {
			return false, err
		}
		scratch[name] = buf
	}

	pred, err := o.buildPushdownPredicate(op, desc)
	if err != nil {
		return false, err
	}
	if pred == nil {
		return false, nil
	}

	dt := desc.Dims[0].Type
	m, err := set.GetOrCreate1D(dt, desc.Dims[0].Length)
	if err != nil {
		return false, err
	}
	return true, m.MaskAll(buf, pred)
}

func (o *Optimizer) buildPushdownPredicate(op operation.Operation, desc *external.VariableDescriptor) (predicate.Predicate, error) {
	switch v := op.(type) {
	case operation.ComparisonOp:
		conv, err := o.converter(v.Unit, desc.Unit)
		if err != nil {
			return nil, err
		}
		return predicate.NewComparisonFilter(desc.DataType, predicate.Op(v.Op), v.Value, conv)
	case operation.StringComparisonOp:
		return &predicate.StringComparisonFilter{Op: predicate.Op(v.Op), Value: v.Value}, nil
	case operation.MembershipOp:
		conv, err := o.converter(v.Unit, desc.Unit)
		if err != nil {
			return nil, err
		}
		return predicate.NewMembershipFilter(predicate.MembershipMode(v.Mode), v.Values, conv), nil
	case operation.StringMembershipOp:
		return predicate.NewStringMembershipFilter(predicate.MembershipMode(v.Mode), v.Values), nil
	case operation.BitMaskOp:
		return predicate.NewBitMaskFilter(desc.DataType, predicate.BitMaskMode(v.Mode), v.Mask)
	case operation.ValidRangeOp:
		return &predicate.ValidRangeFilter{Min: v.Min, Max: v.Max}, nil
	case operation.LongitudeRangeOp:
		return predicate.NewLongitudeRangeFilter(v.Min, v.Max), nil
	}
	return nil, nil
}

func (o *Optimizer) converter(from operation.Unit, to string) (external.Converter, error) {
	if from == "" || to == "" || string(from) == to {
		return nil, nil
	}
	if o.Units == nil {
		return nil, harperr.Op("no unit library configured to convert %q to %q", from, to)
	}
	return o.Units.Converter(string(from), to)
}

func findDescriptor(descs []external.VariableDescriptor, name string) *external.VariableDescriptor {
	for i := range descs {
		if descs[i].Name == name {
			return &descs[i]
		}
	}
	return nil
}

func (o *Optimizer) materializeProduct(
	dims map[product.DimensionType]int,
	descriptors []external.VariableDescriptor,
	reader external.Reader,
	keepPatterns, excludePatterns map[string]bool,
	anyKeep bool,
) (*product.Product, error) {
	p := product.New()
	for _, desc := range descriptors {
		if reader.Exclude(desc.Name) {
			continue
		}
		if anyKeep && !product.MatchesAny(desc.Name, keysOf(keepPatterns)) {
			continue
		}
		if len(excludePatterns) > 0 && product.MatchesAny(desc.Name, keysOf(excludePatterns)) {
			continue
		}
		v, err := product.NewVariable(desc.Name, desc.DataType, desc.Dims)
		if err != nil {
			return nil, err
		}
		v.Unit = desc.Unit
		v.ValidMin, v.ValidMax = desc.ValidMin, desc.ValidMax
		v.Enum = desc.Enum
		v.Description = desc.Description
		if err := reader.ReadWhole(desc.Name, v.Data); err != nil {
			return nil, err
		}
		if err := p.AddVariable(v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
