// Package sphere provides a minimal default SphericalLibrary
// implementation over a WGS84-mean-radius sphere: great-circle distance,
// ray-casting point-in-polygon, and a simple polygon-intersection-fraction
// estimate. This is explicitly a stand-in for the out-of-scope
// spherical-geometry library named in the external interfaces — SPEC_FULL
// documents why the pipeline needs *some* default so point/area filters
// are exercisable, not a claim that this is production-grade geometry.
package sphere

import (
	"math"

	"atmoseng/internal/external"
)

// MeanRadiusMetres is the WGS84 mean earth radius, in metres.
const MeanRadiusMetres = 6371008.8

// WGS84 is the default SphericalLibrary.
type WGS84 struct{}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// GreatCircleDistance implements the haversine formula over the WGS84
// mean-radius sphere.
func (WGS84) GreatCircleDistance(a, b external.LatLon) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return MeanRadiusMetres * c
}

// PointInPolygon uses the standard even-odd ray-casting algorithm over
// (lon, lat) treated as planar coordinates, adequate for the
// small-footprint polygons (swath footprints, grid cells) this engine
// filters on.
func (WGS84) PointInPolygon(p external.LatLon, polygon []external.LatLon) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := polygon[i], polygon[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			lonAtCrossing := vj.Lon + (p.Lat-vj.Lat)*(vi.Lon-vj.Lon)/(vi.Lat-vj.Lat)
			if p.Lon < lonAtCrossing {
				inside = !inside
			}
		}
	}
	return inside
}

// PolygonFromBounds builds a polygon ring from parallel latitude/longitude
// bound arrays, the shape a product's *_bounds variables take (time,
// independent).
func (WGS84) PolygonFromBounds(lat, lon []float64) []external.LatLon {
	n := len(lat)
	if len(lon) < n {
		n = len(lon)
	}
	out := make([]external.LatLon, n)
	for i := 0; i < n; i++ {
		out[i] = external.LatLon{Lat: lat[i], Lon: lon[i]}
	}
	return out
}

// PolygonIntersectionFraction estimates the fraction of polygon a's area
// that polygon b covers, by sampling a's bounding box on a fixed grid and
// testing containment in both polygons. This trades precision for a
// dependency-free implementation; a production pipeline would swap this
// adapter for a real planar/spherical clipping library without touching
// callers.
func (WGS84) PolygonIntersectionFraction(a, b []external.LatLon) (float64, bool) {
	if len(a) < 3 || len(b) < 3 {
		return 0, false
	}
	minLat, maxLat := a[0].Lat, a[0].Lat
	minLon, maxLon := a[0].Lon, a[0].Lon
	for _, p := range a {
		minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
		minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
	}
	const gridN = 20
	var inA, inBoth int
	w := WGS84{}
	for i := 0; i < gridN; i++ {
		for j := 0; j < gridN; j++ {
			pt := external.LatLon{
				Lat: minLat + (maxLat-minLat)*(float64(i)+0.5)/gridN,
				Lon: minLon + (maxLon-minLon)*(float64(j)+0.5)/gridN,
			}
			if w.PointInPolygon(pt, a) {
				inA++
				if w.PointInPolygon(pt, b) {
					inBoth++
				}
			}
		}
	}
	if inA == 0 {
		return 0, false
	}
	frac := float64(inBoth) / float64(inA)
	return frac, inBoth > 0
}
