// Package external defines the narrow interfaces the core pipeline uses
// to reach format-specific ingestion, unit conversion, and spherical
// geometry — each an out-of-scope collaborator per the system's purpose
// and scope, invoked only through these interfaces.
package external

import "atmoseng/internal/product"

// VariableDescriptor is what a Reader reports about one variable before
// any data is pulled.
type VariableDescriptor struct {
	Name        string
	DataType    product.DataType
	Dims        []product.Dimension
	Unit        string
	ValidMin    *float64
	ValidMax    *float64
	Enum        []string
	Description string
}

// Reader is the format-specific ingestion interface. Implementations
// stream a product's variables from whatever backing format they wrap;
// the core never depends on a concrete format.
type Reader interface {
	// Dimensions returns the source's pinned dimension lengths.
	Dimensions() map[product.DimensionType]int
	// Variables returns every variable the source can produce, in order.
	Variables() []VariableDescriptor
	// ReadWhole pulls the entirety of a variable's data into dst.
	ReadWhole(name string, dst product.Buffer) error
	// ReadBlock pulls one outer-index block (e.g. one time step) of a
	// variable into dst.
	ReadBlock(name string, outerIndex int, dst product.Buffer) error
	// ReadRange pulls [start, start+count) of a variable's outer axis
	// into dst.
	ReadRange(name string, start, count int, dst product.Buffer) error
	// OptimalRangeLength hints the most efficient read-range size for a
	// variable, used to size the ingestion optimizer's block buffer.
	OptimalRangeLength(name string) int
	// Exclude lets the reader hide a variable based on option settings.
	Exclude(name string) bool
}

// Converter applies a fabricated unit conversion to a single scalar.
type Converter interface {
	Apply(x float64) float64
}

// UnitLibrary is the external unit-conversion collaborator.
type UnitLibrary interface {
	// Compare reports whether units a and b are commensurable: <0, 0, >0
	// the way a three-way comparator would, or an error if they cannot be
	// compared at all.
	Compare(a, b string) (int, error)
	// Convert converts n values in place from unit "from" to unit "to".
	Convert(from, to string, values []float64) error
	// Converter fabricates a reusable converter handle. It fails if
	// either unit is unknown or the units are not commensurable.
	Converter(from, to string) (Converter, error)
}

// LatLon is a point on the sphere in degrees (degree_north, degree_east).
type LatLon struct {
	Lat, Lon float64
}

// SphericalLibrary is the external spherical-geometry collaborator:
// point-in-polygon, great-circle distance, polygon construction and
// intersection.
type SphericalLibrary interface {
	// PointInPolygon reports whether point lies inside polygon (a closed
	// ring of vertices, not explicitly repeating the first point).
	PointInPolygon(point LatLon, polygon []LatLon) bool
	// GreatCircleDistance returns the geodesic distance between a and b
	// along the WGS84-sphere, in metres.
	GreatCircleDistance(a, b LatLon) float64
	// PolygonFromBounds builds a polygon from parallel latitude/longitude
	// bound arrays (e.g. a product's *_bounds variables).
	PolygonFromBounds(lat, lon []float64) []LatLon
	// PolygonIntersectionFraction returns the fraction of polygon a's area
	// covered by polygon b's intersection, and whether they intersect at
	// all.
	PolygonIntersectionFraction(a, b []LatLon) (float64, bool)
}
