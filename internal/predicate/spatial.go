package predicate

import (
	"atmoseng/internal/external"
	"atmoseng/internal/product"
)

// Spatial predicates test a (latitude, longitude) point (EvalPoint) or a
// bounds ring (EvalPolygon) rather than a single buf/i pair, so they do not
// implement the scalar Predicate interface. The engine's point/polygon
// filters build those points and rings from the product's derived
// latitude/longitude(_bounds) variables and call these methods per row.

// PointDistanceFilter keeps points within radius metres of Center, using
// the spherical library's WGS84 great-circle distance.
type PointDistanceFilter struct {
	Sphere external.SphericalLibrary
	Center external.LatLon
	Radius float64 // metres
}

func (f *PointDistanceFilter) EvalPoint(p external.LatLon) bool {
	return f.Sphere.GreatCircleDistance(f.Center, p) <= f.Radius
}

// PointInAreaFilter keeps points inside a polygon.
type PointInAreaFilter struct {
	Sphere  external.SphericalLibrary
	Polygon []external.LatLon
}

func (f *PointInAreaFilter) EvalPoint(p external.LatLon) bool {
	return f.Sphere.PointInPolygon(p, f.Polygon)
}

// AreaRelation selects which of the four area-vs-area/point predicates to
// apply.
type AreaRelation string

const (
	AreaCoversArea      AreaRelation = "area-covers-area"
	AreaCoversPoint     AreaRelation = "area-covers-point"
	AreaInsideArea       AreaRelation = "area-inside-area"
	AreaIntersectsArea   AreaRelation = "area-intersects-area"
)

// AreaFilter evaluates one row's (latitude_bounds, longitude_bounds)
// polygon against a reference area or point.
type AreaFilter struct {
	Sphere       external.SphericalLibrary
	Relation     AreaRelation
	Reference    []external.LatLon // polygon, for area-vs-area relations
	ReferencePt  external.LatLon   // point, for area-covers-point
	MinFraction  *float64          // only meaningful for area-intersects-area
}

// EvalPolygon tests one row's polygon ring against the filter's reference.
func (f *AreaFilter) EvalPolygon(row []external.LatLon) bool {
	switch f.Relation {
	case AreaCoversPoint:
		return f.Sphere.PointInPolygon(f.ReferencePt, row)
	case AreaCoversArea:
		frac, intersects := f.Sphere.PolygonIntersectionFraction(f.Reference, row)
		return intersects && frac >= 1.0-1e-9
	case AreaInsideArea:
		frac, intersects := f.Sphere.PolygonIntersectionFraction(row, f.Reference)
		return intersects && frac >= 1.0-1e-9
	case AreaIntersectsArea:
		frac, intersects := f.Sphere.PolygonIntersectionFraction(row, f.Reference)
		if !intersects {
			return false
		}
		if f.MinFraction == nil {
			return true
		}
		return frac >= *f.MinFraction
	}
	return false
}

// CollocationFilter keeps rows whose sample index appears in a sorted set
// loaded from a CollocationMask. Neither the engine nor the ingestion
// optimizer constructs one; the engine's collocation operations use
// collocation.Mask directly.
type CollocationFilter struct {
	SortedSampleIndices []int64
}

func (f *CollocationFilter) Eval(buf product.Buffer, i int) bool {
	v := buf.IntAt(i)
	lo, hi := 0, len(f.SortedSampleIndices)
	for lo < hi {
		mid := (lo + hi) / 2
		if f.SortedSampleIndices[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(f.SortedSampleIndices) && f.SortedSampleIndices[lo] == v
}
