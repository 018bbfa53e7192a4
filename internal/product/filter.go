package product

import (
	"atmoseng/internal/arrayfilter"
	"atmoseng/internal/dimmask"
	"atmoseng/internal/harperr"
)

// Filter applies a DimensionMaskSet to every variable in p, adjusting
// each variable's dimensions and the product's dimension table, per §4.5.
//
// If any mask has MaskedLength 0, the product is cleared (all variables
// removed) and nil is returned: emptiness is terminal but not an error.
func (p *Product) Filter(set *dimmask.Set) error {
	if set.HasEmpty() {
		p.Clear()
		return nil
	}

	newVars := make([]*Variable, len(p.Variables))
	for i, v := range p.Variables {
		nv, err := filterVariable(v, set)
		if err != nil {
			return err
		}
		newVars[i] = nv
	}

	// Commit only after every variable filtered successfully, so a
	// mid-pass error leaves the product untouched.
	p.Variables = newVars
	for _, dt := range set.Dimensions() {
		m, _ := set.Get(dt)
		p.SetDimensionLength(dt, m.MaskedLength())
	}
	return nil
}

func filterVariable(v *Variable, set *dimmask.Set) (*Variable, error) {
	dims := v.Dims
	needsTimeBroadcast := false
	for _, dt := range set.Dimensions() {
		m, _ := set.Get(dt)
		if m.Rank() != 2 {
			continue
		}
		if v.DependsOn(dt) && !v.HasTimeAxis0() {
			needsTimeBroadcast = true
		}
	}

	work := v
	if needsTimeBroadcast {
		var err error
		work, dims, err = broadcastTimeAxis(v, m2DTimeLen(set))
		if err != nil {
			return nil, err
		}
	}

	masks := make([]arrayfilter.AxisMask, len(dims))
	anyMask := false
	for k, d := range dims {
		m, ok := set.Get(d.Type)
		if !ok {
			continue
		}
		if m.Rank() == 2 && k == 0 {
			// The time axis itself is never directly masked by a rank-2
			// mask; a rank-2 mask's axis-0 is a dependent index space,
			// not a filterable axis in its own right.
			continue
		}
		masks[k] = m
		anyMask = true
	}
	if !anyMask {
		return work, nil
	}

	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = d.Length
	}
	src := work.Data
	if src.Type == String {
		// Apply moves string slots out of its source; move them out of a
		// clone so the original variable stays intact until commit.
		src = work.Clone().Data
	}
	res, err := arrayfilter.Apply(src, shape, masks)
	if err != nil {
		return nil, err
	}

	out := work.Clone()
	out.Data = res.Data
	out.Dims = make([]Dimension, len(dims))
	for i, d := range dims {
		out.Dims[i] = Dimension{Type: d.Type, Length: res.Shape[i]}
	}
	return out, nil
}

func m2DTimeLen(set *dimmask.Set) int {
	for _, dt := range set.Dimensions() {
		m, _ := set.Get(dt)
		if m.Rank() == 2 {
			return m.Dim0()
		}
	}
	return 0
}

// broadcastTimeAxis prepends a Time axis of length timeLen to v by
// replicating its existing data timeLen times, per §4.5's "broadcasting"
// rule for variables that depend on a 2-D-masked dimension but lack a
// leading time axis.
func broadcastTimeAxis(v *Variable, timeLen int) (*Variable, []Dimension, error) {
	if timeLen <= 0 {
		return nil, nil, harperr.Op("cannot broadcast a time axis of non-positive length")
	}
	newDims := append([]Dimension{{Type: Time, Length: timeLen}}, v.Dims...)
	n := numElements(newDims)
	buf := NewBuffer(v.DataType, n)
	inner := v.Data.Len()
	for t := 0; t < timeLen; t++ {
		for i := 0; i < inner; i++ {
			copyBroadcastElem(buf, v.Data, t*inner+i, i)
		}
	}
	out := v.Clone()
	out.Dims = newDims
	out.Data = buf
	return out, newDims, nil
}

// copyBroadcastElem copies one source element to many destination
// slots without transferring (and thus emptying) string ownership, since
// the same source value legitimately appears at every replicated time
// step.
func copyBroadcastElem(dst, src Buffer, di, si int) {
	switch src.Type {
	case Int8:
		dst.I8[di] = src.I8[si]
	case Int16:
		dst.I16[di] = src.I16[si]
	case Int32:
		dst.I32[di] = src.I32[si]
	case Float32:
		dst.F32[di] = src.F32[si]
	case Float64:
		dst.F64[di] = src.F64[si]
	case String:
		if src.Str[si] != nil {
			s := *src.Str[si]
			dst.Str[di] = &s
		}
	}
}
