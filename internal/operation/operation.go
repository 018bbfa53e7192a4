// Package operation implements Operation: the tagged variant enumerating
// every operation kind with its parameters (§4.7). Each concrete type is a
// distinct, minimal implementor of the Operation interface rather than a
// single struct with every field — a sum-type-by-interface, avoiding a
// virtual-inheritance hierarchy while still letting the engine switch on
// Kind() for dispatch and peek the next operation for the fusion rules.
package operation

import "atmoseng/internal/product"

// Kind is the closed set of operation variants.
type Kind string

const (
	KindAreaCoversArea      Kind = "area-covers-area"
	KindAreaInsideArea      Kind = "area-inside-area"
	KindAreaIntersectsArea  Kind = "area-intersects-area"
	KindAreaCoversPoint     Kind = "area-covers-point"
	KindPointInArea         Kind = "point-in-area"
	KindPointDistance       Kind = "point-distance"
	KindBinCollocated       Kind = "bin-collocated"
	KindBinFull             Kind = "bin-full"
	KindBinSpatial          Kind = "bin-spatial"
	KindBinWithVariables    Kind = "bin-with-variables"
	KindBitMask             Kind = "bit-mask"
	KindComparison          Kind = "comparison"
	KindStringComparison    Kind = "string-comparison"
	KindMembership          Kind = "membership"
	KindStringMembership    Kind = "string-membership"
	KindValidRange          Kind = "valid-range"
	KindLongitudeRange      Kind = "longitude-range"
	KindCollocationFilter   Kind = "collocation-filter"
	KindClamp               Kind = "clamp"
	KindDeriveVariable      Kind = "derive-variable"
	KindDeriveSmoothedColumnCollocatedDataset Kind = "derive-smoothed-column-collocated-dataset"
	KindDeriveSmoothedColumnCollocatedProduct Kind = "derive-smoothed-column-collocated-product"
	KindExcludeVariable     Kind = "exclude-variable"
	KindKeepVariable        Kind = "keep-variable"
	KindFlatten             Kind = "flatten"
	KindIndexComparison     Kind = "index-comparison"
	KindIndexMembership     Kind = "index-membership"
	KindRebin               Kind = "rebin"
	KindRegrid              Kind = "regrid"
	KindRegridCollocatedDataset Kind = "regrid-collocated-dataset"
	KindRegridCollocatedProduct Kind = "regrid-collocated-product"
	KindRename              Kind = "rename"
	KindSet                 Kind = "set"
	KindSmoothCollocatedDataset Kind = "smooth-collocated-dataset"
	KindSmoothCollocatedProduct Kind = "smooth-collocated-product"
	KindSort                Kind = "sort"
	KindSquash              Kind = "squash"
	KindWrap                Kind = "wrap"
)

// Operation is implemented by every concrete operation type.
type Operation interface {
	Kind() Kind
}

// ValueFilterOp is implemented by every operation that is a "value
// filter" in the fusion-rule sense of §4.9: comparison, string-comparison,
// membership, string-membership, bit-mask, valid-range, longitude-range,
// index-comparison, index-membership. The engine fuses every run of
// consecutive value filters, whichever variables they target, into one
// compaction pass.
type ValueFilterOp interface {
	Operation
	TargetVariable() string
}

// PointFilterOp marks point-distance/point-in-area, fused when consecutive.
type PointFilterOp interface {
	Operation
	isPointFilter()
}

// PolygonFilterOp marks the area-* operations, fused when consecutive.
type PolygonFilterOp interface {
	Operation
	isPolygonFilter()
}

// Side selects which collocated product/dataset an operation targets.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Unit is a unit string attached to an operation argument ("" if none).
type Unit string

// LatLonUnit is an inline point or polygon vertex with its own units.
type LatLonUnit struct {
	Lat, Lon   float64
	LatU, LonU Unit
}

// PolygonArg is either a named polygon file or an inline ring.
type PolygonArg struct {
	File    string       // non-empty if loading from a polygon file
	Inline  []LatLonUnit // non-empty if given inline
}

// ---- area / point operations ----

type AreaCoversAreaOp struct {
	Polygon     PolygonArg
	MinFraction *float64
}

func (AreaCoversAreaOp) Kind() Kind         { return KindAreaCoversArea }
func (AreaCoversAreaOp) isPolygonFilter()   {}

type AreaInsideAreaOp struct{ Polygon PolygonArg }

func (AreaInsideAreaOp) Kind() Kind       { return KindAreaInsideArea }
func (AreaInsideAreaOp) isPolygonFilter() {}

type AreaIntersectsAreaOp struct {
	Polygon     PolygonArg
	MinFraction *float64
}

func (AreaIntersectsAreaOp) Kind() Kind       { return KindAreaIntersectsArea }
func (AreaIntersectsAreaOp) isPolygonFilter() {}

type AreaCoversPointOp struct{ Point LatLonUnit }

func (AreaCoversPointOp) Kind() Kind       { return KindAreaCoversPoint }
func (AreaCoversPointOp) isPolygonFilter() {}

type PointInAreaOp struct{ Polygon PolygonArg }

func (PointInAreaOp) Kind() Kind     { return KindPointInArea }
func (PointInAreaOp) isPointFilter() {}

type PointDistanceOp struct {
	Center LatLonUnit
	Radius float64
	RadiusUnit Unit
}

func (PointDistanceOp) Kind() Kind     { return KindPointDistance }
func (PointDistanceOp) isPointFilter() {}

// ---- binning ----

type BinCollocatedOp struct {
	CollocationResult string
	Side              Side
}

func (BinCollocatedOp) Kind() Kind { return KindBinCollocated }

type BinFullOp struct{}

func (BinFullOp) Kind() Kind { return KindBinFull }

type BinSpatialOp struct {
	LatEdges []float64
	LonEdges []float64
}

func (BinSpatialOp) Kind() Kind { return KindBinSpatial }

type BinWithVariablesOp struct{ Variables []string }

func (BinWithVariablesOp) Kind() Kind { return KindBinWithVariables }

// ---- value filters ----

type BitMaskOp struct {
	Variable string
	Mode     string // all/any/none
	Mask     uint32
}

func (o BitMaskOp) Kind() Kind             { return KindBitMask }
func (o BitMaskOp) TargetVariable() string { return o.Variable }

type ComparisonOp struct {
	Variable string
	Op       string
	Value    float64
	Unit     Unit
}

func (o ComparisonOp) Kind() Kind             { return KindComparison }
func (o ComparisonOp) TargetVariable() string { return o.Variable }

type StringComparisonOp struct {
	Variable string
	Op       string
	Value    string
}

func (o StringComparisonOp) Kind() Kind             { return KindStringComparison }
func (o StringComparisonOp) TargetVariable() string { return o.Variable }

type MembershipOp struct {
	Variable string
	Mode     string // in/not_in
	Values   []float64
	Unit     Unit
}

func (o MembershipOp) Kind() Kind             { return KindMembership }
func (o MembershipOp) TargetVariable() string { return o.Variable }

type StringMembershipOp struct {
	Variable string
	Mode     string
	Values   []string
}

func (o StringMembershipOp) Kind() Kind             { return KindStringMembership }
func (o StringMembershipOp) TargetVariable() string { return o.Variable }

type ValidRangeOp struct {
	Variable string
	Min, Max float64
}

func (o ValidRangeOp) Kind() Kind             { return KindValidRange }
func (o ValidRangeOp) TargetVariable() string { return o.Variable }

type LongitudeRangeOp struct {
	Variable string
	Min, Max float64
}

func (o LongitudeRangeOp) Kind() Kind             { return KindLongitudeRange }
func (o LongitudeRangeOp) TargetVariable() string { return o.Variable }

type IndexComparisonOp struct {
	Dimension product.DimensionType
	Op        string
	Value     int64
}

func (o IndexComparisonOp) Kind() Kind             { return KindIndexComparison }
func (o IndexComparisonOp) TargetVariable() string { return string(o.Dimension) }

type IndexMembershipOp struct {
	Dimension product.DimensionType
	Mode      string
	Values    []int64
}

func (o IndexMembershipOp) Kind() Kind             { return KindIndexMembership }
func (o IndexMembershipOp) TargetVariable() string { return string(o.Dimension) }

// ---- collocation ----

type CollocationFilterOp struct {
	File   string
	Side   Side
	Window *[2]int64 // [min,max], nil if unbounded
}

func (CollocationFilterOp) Kind() Kind { return KindCollocationFilter }

// ---- shape/variable management ----

type ClampOp struct {
	Dimension product.DimensionType
	AxisVariable string
	AxisUnit     Unit
	Lower, Upper float64
}

func (ClampOp) Kind() Kind { return KindClamp }

type DeriveVariableOp struct {
	Name     string
	DataType *product.DataType
	Dims     []product.DimensionType
	Unit     *Unit
}

func (DeriveVariableOp) Kind() Kind { return KindDeriveVariable }

type CollocatedDatasetArgs struct {
	Name              string
	Dims              []product.DimensionType
	Unit              Unit
	AxisName          string
	AxisUnit          Unit
	CollocationResult string // mutually exclusive with ProductFile
	ProductFile       string
	Side              Side
	DatasetDir        string
}

type DeriveSmoothedColumnCollocatedDatasetOp struct{ Args CollocatedDatasetArgs }

func (DeriveSmoothedColumnCollocatedDatasetOp) Kind() Kind {
	return KindDeriveSmoothedColumnCollocatedDataset
}

type DeriveSmoothedColumnCollocatedProductOp struct{ Args CollocatedDatasetArgs }

func (DeriveSmoothedColumnCollocatedProductOp) Kind() Kind {
	return KindDeriveSmoothedColumnCollocatedProduct
}

type ExcludeVariableOp struct{ Names []string }

func (ExcludeVariableOp) Kind() Kind { return KindExcludeVariable }

type KeepVariableOp struct{ Names []string }

func (KeepVariableOp) Kind() Kind { return KindKeepVariable }

type FlattenOp struct{ Dimension product.DimensionType }

func (FlattenOp) Kind() Kind { return KindFlatten }

type RebinOp struct{ AxisBoundsVariable string }

func (RebinOp) Kind() Kind { return KindRebin }

type RegridOp struct {
	TargetAxisVariable string
	BoundsVariable     string // optional, "" if absent
}

func (RegridOp) Kind() Kind { return KindRegrid }

type RegridCollocatedDatasetOp struct {
	Dimension product.DimensionType
	AxisName  string
	AxisUnit  Unit
	CollocationResult string
	ProductFile       string
	Side              Side
	DatasetDir        string
}

func (RegridCollocatedDatasetOp) Kind() Kind { return KindRegridCollocatedDataset }

type RegridCollocatedProductOp struct {
	Dimension product.DimensionType
	AxisName  string
	AxisUnit  Unit
	CollocationResult string
	ProductFile       string
	Side              Side
	DatasetDir        string
}

func (RegridCollocatedProductOp) Kind() Kind { return KindRegridCollocatedProduct }

type RenameOp struct{ OldName, NewName string }

func (RenameOp) Kind() Kind { return KindRename }

type SetOp struct{ Option, Value string }

func (SetOp) Kind() Kind { return KindSet }

type SmoothCollocatedDatasetOp struct {
	Variables []string
	Dimension product.DimensionType // must be Vertical
	AxisName  string
	AxisUnit  Unit
	CollocationResult string
	ProductFile       string
	Side              Side
	DatasetDir        string
}

func (SmoothCollocatedDatasetOp) Kind() Kind { return KindSmoothCollocatedDataset }

type SmoothCollocatedProductOp struct {
	Variables []string
	Dimension product.DimensionType
	AxisName  string
	AxisUnit  Unit
	CollocationResult string
	ProductFile       string
	Side              Side
	DatasetDir        string
}

func (SmoothCollocatedProductOp) Kind() Kind { return KindSmoothCollocatedProduct }

type SortOp struct{ Variables []string }

func (SortOp) Kind() Kind { return KindSort }

type SquashOp struct {
	Dimension product.DimensionType
	Variables []string
}

func (SquashOp) Kind() Kind { return KindSquash }

type WrapOp struct {
	Variable string
	Unit     Unit
	Min, Max float64
}

func (WrapOp) Kind() Kind { return KindWrap }
