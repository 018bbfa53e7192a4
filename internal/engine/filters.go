package engine

import (
	"atmoseng/internal/dimmask"
	"atmoseng/internal/external"
	"atmoseng/internal/harperr"
	"atmoseng/internal/operation"
	"atmoseng/internal/predicate"
	"atmoseng/internal/product"
)

// runValueFilterGroup fuses every consecutive ValueFilterOp into a single
// DimensionMaskSet build followed by one product.Filter pass. This
// generalizes the documented "same target variable" fusion rule: value
// filters over different variables still only ever AND bits into
// independent per-dimension masks, so batching the whole run before a
// single compaction pass is strictly more efficient and produces an
// identical result to fusing per-variable runs one at a time.
func (e *Engine) runValueFilterGroup(p *product.Product, group []operation.ValueFilterOp) error {
	set := dimmask.NewSet()
	for _, raw := range group {
		if err := e.applyValueFilter(p, set, raw); err != nil {
			return err
		}
		if p.IsEmpty() {
			return nil
		}
		set.Simplify()
		if set.HasEmpty() {
			break
		}
	}
	return p.Filter(set)
}

func (e *Engine) applyValueFilter(p *product.Product, set *dimmask.Set, raw operation.Operation) error {
	switch o := raw.(type) {
	case operation.IndexComparisonOp:
		return e.applyIndexPredicate(p, set, o.Dimension, &predicate.IndexComparisonFilter{Op: predicate.Op(o.Op), Value: o.Value})
	case operation.IndexMembershipOp:
		return e.applyIndexPredicate(p, set, o.Dimension, predicate.NewIndexMembershipFilter(predicate.MembershipMode(o.Mode), o.Values))
	}

	name := raw.(operation.ValueFilterOp).TargetVariable()
	v, ok := p.Variable(name)
	if !ok {
		return harperr.Op("no such variable %q", name)
	}

	pred, err := e.buildPredicate(v, raw)
	if err != nil {
		return err
	}
	return e.applyPredicateToVariable(p, set, v, pred)
}

func (e *Engine) buildPredicate(v *product.Variable, raw operation.Operation) (predicate.Predicate, error) {
	switch o := raw.(type) {
	case operation.ComparisonOp:
		conv, err := e.converter(o.Unit, v.Unit)
		if err != nil {
			return nil, err
		}
		return predicate.NewComparisonFilter(v.DataType, predicate.Op(o.Op), o.Value, conv)
	case operation.StringComparisonOp:
		return &predicate.StringComparisonFilter{Op: predicate.Op(o.Op), Value: o.Value}, nil
	case operation.MembershipOp:
		conv, err := e.converter(o.Unit, v.Unit)
		if err != nil {
			return nil, err
		}
		return predicate.NewMembershipFilter(predicate.MembershipMode(o.Mode), o.Values, conv), nil
	case operation.StringMembershipOp:
		return predicate.NewStringMembershipFilter(predicate.MembershipMode(o.Mode), o.Values), nil
	case operation.BitMaskOp:
		return predicate.NewBitMaskFilter(v.DataType, predicate.BitMaskMode(o.Mode), o.Mask)
	case operation.ValidRangeOp:
		return &predicate.ValidRangeFilter{Min: o.Min, Max: o.Max}, nil
	case operation.LongitudeRangeOp:
		return predicate.NewLongitudeRangeFilter(o.Min, o.Max), nil
	}
	return nil, harperr.Op("operation %s is not a value filter", raw.Kind())
}

// applyPredicateToVariable masks v's governing dimension: rank 0 clears
// the whole product on failure, rank 1 masks that single dimension
// element-wise, and rank >= 2 falls back to the documented "any inner
// element passes" contract already implemented by dimmask.Mask.MaskAny
// against the outer (first) dimension, since a value filter only ever
// tests individual elements and this package has no per-row compaction
// finer than one governing axis.
func (e *Engine) applyPredicateToVariable(p *product.Product, set *dimmask.Set, v *product.Variable, pred predicate.Predicate) error {
	switch v.Rank() {
	case 0:
		if !pred.Eval(v.Data, 0) {
			p.Clear()
		}
		return nil
	case 1:
		dt := v.Dims[0].Type
		m, err := set.GetOrCreate1D(dt, v.Dims[0].Length)
		if err != nil {
			return err
		}
		return m.MaskAll(v.Data, pred)
	default:
		outer := v.Dims[0]
		inner := v.NumElements() / outer.Length
		m, err := set.GetOrCreate1D(outer.Type, outer.Length)
		if err != nil {
			return err
		}
		return m.MaskAny(v.Data, inner, pred)
	}
}

func (e *Engine) applyIndexPredicate(p *product.Product, set *dimmask.Set, dt product.DimensionType, pred predicate.Predicate) error {
	n, ok := p.DimensionLength(dt)
	if !ok {
		return harperr.Op("no such dimension %s", dt)
	}
	m, err := set.GetOrCreate1D(dt, n)
	if err != nil {
		return err
	}
	dummy := product.NewBuffer(product.Int32, n)
	return m.MaskAll(dummy, pred)
}

// runPointFilterGroup fuses consecutive point-distance/point-in-area
// operations into one pass over the product's derived latitude/longitude
// variables, masking the time dimension.
func (e *Engine) runPointFilterGroup(p *product.Product, group []operation.Operation) error {
	lat, latOK := p.Variable("latitude")
	lon, lonOK := p.Variable("longitude")
	if !latOK || !lonOK {
		return harperr.Op("point filter requires derived latitude and longitude variables")
	}
	timeLen, ok := p.DimensionLength(product.Time)
	if !ok {
		return harperr.Op("point filter requires a time dimension")
	}

	preds := make([]pointPredicate, 0, len(group))
	for _, raw := range group {
		pred, err := e.buildPointPredicate(raw)
		if err != nil {
			return err
		}
		preds = append(preds, pred)
	}

	set := dimmask.NewSet()
	m, err := set.GetOrCreate1D(product.Time, timeLen)
	if err != nil {
		return err
	}
	for i := 0; i < timeLen; i++ {
		pt := pointAt(lat, lon, i, timeLen)
		keep := true
		for _, pred := range preds {
			if !pred.EvalPoint(pt) {
				keep = false
				break
			}
		}
		if !keep {
			m.Set(false, i)
		}
	}
	set.Simplify()
	return p.Filter(set)
}

type pointPredicate interface {
	EvalPoint(p external.LatLon) bool
}

func (e *Engine) buildPointPredicate(raw operation.Operation) (pointPredicate, error) {
	if e.Env.Sphere == nil {
		return nil, harperr.Op("no spherical geometry library configured")
	}
	switch o := raw.(type) {
	case operation.PointDistanceOp:
		radius := o.Radius
		if o.RadiusUnit != "" && string(o.RadiusUnit) != "m" {
			conv, err := e.converter(o.RadiusUnit, "m")
			if err != nil {
				return nil, err
			}
			if conv != nil {
				radius = conv.Apply(radius)
			}
		}
		return &predicate.PointDistanceFilter{
			Sphere: e.Env.Sphere,
			Center: latLonOf(o.Center),
			Radius: radius,
		}, nil
	case operation.PointInAreaOp:
		ring, err := e.resolvePolygon(o.Polygon)
		if err != nil {
			return nil, err
		}
		return &predicate.PointInAreaFilter{Sphere: e.Env.Sphere, Polygon: ring}, nil
	}
	return nil, harperr.Op("operation %s is not a point filter", raw.Kind())
}

func latLonOf(p operation.LatLonUnit) external.LatLon {
	return external.LatLon{Lat: p.Lat, Lon: p.Lon}
}

func (e *Engine) resolvePolygon(arg operation.PolygonArg) ([]external.LatLon, error) {
	if arg.File != "" {
		return nil, harperr.Op("loading a polygon from file %q is not supported by this build", arg.File)
	}
	ring := make([]external.LatLon, len(arg.Inline))
	for i, v := range arg.Inline {
		ring[i] = latLonOf(v)
	}
	return ring, nil
}

func pointAt(lat, lon *product.Variable, i, timeLen int) external.LatLon {
	latIdx, lonIdx := i, i
	if lat.Rank() == 0 {
		latIdx = 0
	}
	if lon.Rank() == 0 {
		lonIdx = 0
	}
	return external.LatLon{Lat: lat.Data.Float64At(latIdx), Lon: lon.Data.Float64At(lonIdx)}
}

// runPolygonFilterGroup fuses consecutive area-* operations into one pass
// over the product's derived latitude_bounds/longitude_bounds variables,
// shaped (time, independent).
func (e *Engine) runPolygonFilterGroup(p *product.Product, group []operation.Operation) error {
	if e.Env.Sphere == nil {
		return harperr.Op("no spherical geometry library configured")
	}
	latB, latOK := p.Variable("latitude_bounds")
	lonB, lonOK := p.Variable("longitude_bounds")
	if !latOK || !lonOK {
		return harperr.Op("polygon filter requires derived latitude_bounds and longitude_bounds variables")
	}
	timeLen, ok := p.DimensionLength(product.Time)
	if !ok {
		return harperr.Op("polygon filter requires a time dimension")
	}
	independent := latB.NumElements() / timeLen

	preds := make([]*predicate.AreaFilter, 0, len(group))
	for _, raw := range group {
		pred, err := e.buildAreaPredicate(raw)
		if err != nil {
			return err
		}
		preds = append(preds, pred)
	}

	set := dimmask.NewSet()
	m, err := set.GetOrCreate1D(product.Time, timeLen)
	if err != nil {
		return err
	}
	for i := 0; i < timeLen; i++ {
		ring := boundsRing(latB, lonB, i, independent)
		keep := true
		for _, pred := range preds {
			if !pred.EvalPolygon(ring) {
				keep = false
				break
			}
		}
		if !keep {
			m.Set(false, i)
		}
	}
	set.Simplify()
	return p.Filter(set)
}

func boundsRing(latB, lonB *product.Variable, i, independent int) []external.LatLon {
	ring := make([]external.LatLon, independent)
	for k := 0; k < independent; k++ {
		idx := i*independent + k
		ring[k] = external.LatLon{Lat: latB.Data.Float64At(idx), Lon: lonB.Data.Float64At(idx)}
	}
	return ring
}

func (e *Engine) buildAreaPredicate(raw operation.Operation) (*predicate.AreaFilter, error) {
	switch o := raw.(type) {
	case operation.AreaCoversAreaOp:
		ring, err := e.resolvePolygon(o.Polygon)
		if err != nil {
			return nil, err
		}
		return &predicate.AreaFilter{Sphere: e.Env.Sphere, Relation: predicate.AreaCoversArea, Reference: ring}, nil
	case operation.AreaInsideAreaOp:
		ring, err := e.resolvePolygon(o.Polygon)
		if err != nil {
			return nil, err
		}
		return &predicate.AreaFilter{Sphere: e.Env.Sphere, Relation: predicate.AreaInsideArea, Reference: ring}, nil
	case operation.AreaIntersectsAreaOp:
		ring, err := e.resolvePolygon(o.Polygon)
		if err != nil {
			return nil, err
		}
		return &predicate.AreaFilter{Sphere: e.Env.Sphere, Relation: predicate.AreaIntersectsArea, Reference: ring, MinFraction: o.MinFraction}, nil
	case operation.AreaCoversPointOp:
		return &predicate.AreaFilter{Sphere: e.Env.Sphere, Relation: predicate.AreaCoversPoint, ReferencePt: latLonOf(o.Point)}, nil
	}
	return nil, harperr.Op("operation %s is not a polygon filter", raw.Kind())
}
