package oplang

import (
	"atmoseng/internal/harperr"
	"atmoseng/internal/operation"
	"atmoseng/internal/product"
)

// Build converts a parsed call list into an operation.List. Only argument
// *shape* is validated here (arity, kind); variable existence and
// dimension compatibility are deferred to the engine, per §4.8.
func Build(calls []Call) (operation.List, error) {
	out := make(operation.List, 0, len(calls))
	for _, c := range calls {
		op, err := buildOne(c)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func buildOne(c Call) (operation.Operation, error) {
	b, ok := builders[c.Name]
	if !ok {
		return nil, harperr.ScriptErr(c.Line, c.Column, "unknown operation %q", c.Name)
	}
	return b(c)
}

type builderFunc func(Call) (operation.Operation, error)

var builders map[string]builderFunc

func init() {
	builders = map[string]builderFunc{
		"area-covers-area":     buildAreaCoversArea,
		"area-inside-area":     buildAreaInsideArea,
		"area-intersects-area": buildAreaIntersectsArea,
		"area-covers-point":    buildAreaCoversPoint,
		"point-in-area":        buildPointInArea,
		"point-distance":       buildPointDistance,
		"bin-collocated":       buildBinCollocated,
		"bin-full":             buildBinFull,
		"bin-spatial":          buildBinSpatial,
		"bin-with-variables":   buildBinWithVariables,
		"bit-mask":             buildBitMask,
		"comparison":           buildComparison,
		"string-comparison":    buildStringComparison,
		"membership":           buildMembership,
		"string-membership":    buildStringMembership,
		"valid-range":          buildValidRange,
		"longitude-range":      buildLongitudeRange,
		"collocation-filter":   buildCollocationFilter,
		"clamp":                buildClamp,
		"derive-variable":      buildDeriveVariable,
		"derive-smoothed-column-collocated-dataset": buildDeriveSmoothedDataset,
		"derive-smoothed-column-collocated-product": buildDeriveSmoothedProduct,
		"exclude-variable": buildExcludeVariable,
		"keep-variable":    buildKeepVariable,
		"flatten":          buildFlatten,
		"index-comparison": buildIndexComparison,
		"index-membership": buildIndexMembership,
		"rebin":            buildRebin,
		"regrid":           buildRegrid,
		"regrid-collocated-dataset": buildRegridCollocatedDataset,
		"regrid-collocated-product": buildRegridCollocatedProduct,
		"rename":                    buildRename,
		"set":                       buildSet,
		"smooth-collocated-dataset": buildSmoothCollocatedDataset,
		"smooth-collocated-product": buildSmoothCollocatedProduct,
		"sort":                      buildSort,
		"squash":                    buildSquash,
		"wrap":                     buildWrap,
	}
}

func argErr(c Call, format string, args ...interface{}) error {
	return harperr.ScriptErr(c.Line, c.Column, format, args...)
}

func wantArgs(c Call, n int) error {
	if len(c.Args) < n {
		return argErr(c, "%s expects at least %d argument(s), got %d", c.Name, n, len(c.Args))
	}
	return nil
}

func ident(c Call, i int) (string, error) {
	if i >= len(c.Args) || c.Args[i].Kind != ArgIdent {
		return "", argErr(c, "%s: argument %d must be an identifier", c.Name, i)
	}
	return c.Args[i].Str, nil
}

func str(c Call, i int) (string, error) {
	if i >= len(c.Args) || c.Args[i].Kind != ArgString {
		return "", argErr(c, "%s: argument %d must be a string literal", c.Name, i)
	}
	return c.Args[i].Str, nil
}

func dim(c Call, i int) (product.DimensionType, error) {
	if i >= len(c.Args) || c.Args[i].Kind != ArgDimension {
		return "", argErr(c, "%s: argument %d must be a {dimension}", c.Name, i)
	}
	return product.DimensionType(c.Args[i].Str), nil
}

func num(c Call, i int) (float64, error) {
	if i >= len(c.Args) || c.Args[i].Kind != ArgNumber {
		return 0, argErr(c, "%s: argument %d must be a number", c.Name, i)
	}
	return c.Args[i].Num, nil
}

func opArg(c Call, i int) (string, error) {
	if i >= len(c.Args) || c.Args[i].Kind != ArgOperator {
		return "", argErr(c, "%s: argument %d must be a comparison or membership operator", c.Name, i)
	}
	return c.Args[i].Str, nil
}

func unitOf(c Call, i int) operation.Unit {
	if i < len(c.Args) {
		return operation.Unit(c.Args[i].Unit)
	}
	return ""
}

func buildComparison(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	op, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	value, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.ComparisonOp{Variable: v, Op: op, Value: value, Unit: unitOf(c, 2)}, nil
}

func buildStringComparison(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	op, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	value, err := str(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.StringComparisonOp{Variable: v, Op: op, Value: value}, nil
}

func buildMembership(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	mode, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	var values []float64
	unit := unitOf(c, 2)
	for i := 2; i < len(c.Args); i++ {
		n, err := num(c, i)
		if err != nil {
			return nil, err
		}
		values = append(values, n)
	}
	return operation.MembershipOp{Variable: v, Mode: mode, Values: values, Unit: unit}, nil
}

func buildStringMembership(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	mode, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	var values []string
	for i := 2; i < len(c.Args); i++ {
		s, err := str(c, i)
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return operation.StringMembershipOp{Variable: v, Mode: mode, Values: values}, nil
}

func buildBitMask(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	mode, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	n, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.BitMaskOp{Variable: v, Mode: mode, Mask: uint32(n)}, nil
}

func buildValidRange(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	min, err := num(c, 1)
	if err != nil {
		return nil, err
	}
	max, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.ValidRangeOp{Variable: v, Min: min, Max: max}, nil
}

func buildLongitudeRange(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	min, err := num(c, 1)
	if err != nil {
		return nil, err
	}
	max, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.LongitudeRangeOp{Variable: v, Min: min, Max: max}, nil
}

func buildIndexComparison(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	op, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	n, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.IndexComparisonOp{Dimension: d, Op: op, Value: int64(n)}, nil
}

func buildIndexMembership(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	mode, err := opArg(c, 1)
	if err != nil {
		return nil, err
	}
	var values []int64
	for i := 2; i < len(c.Args); i++ {
		n, err := num(c, i)
		if err != nil {
			return nil, err
		}
		values = append(values, int64(n))
	}
	return operation.IndexMembershipOp{Dimension: d, Mode: mode, Values: values}, nil
}

func buildCollocationFilter(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	file, err := str(c, 0)
	if err != nil {
		return nil, err
	}
	side, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	op := operation.CollocationFilterOp{File: file, Side: operation.Side(side)}
	if len(c.Args) >= 4 {
		min, err := num(c, 2)
		if err != nil {
			return nil, err
		}
		max, err := num(c, 3)
		if err != nil {
			return nil, err
		}
		op.Window = &[2]int64{int64(min), int64(max)}
	}
	return op, nil
}

func buildClamp(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 4); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	axisVar, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	lower, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	upper, err := num(c, 3)
	if err != nil {
		return nil, err
	}
	return operation.ClampOp{Dimension: d, AxisVariable: axisVar, AxisUnit: unitOf(c, 1), Lower: lower, Upper: upper}, nil
}

func dataTypeFromIdent(s string) (product.DataType, bool) {
	switch product.DataType(s) {
	case product.Int8, product.Int16, product.Int32, product.Float32, product.Float64, product.String:
		return product.DataType(s), true
	}
	return "", false
}

func buildDeriveVariable(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	name, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	op := operation.DeriveVariableOp{Name: name}
	for i := 1; i < len(c.Args); i++ {
		a := c.Args[i]
		switch a.Kind {
		case ArgDimension:
			op.Dims = append(op.Dims, product.DimensionType(a.Str))
		case ArgIdent:
			if dt, ok := dataTypeFromIdent(a.Str); ok {
				op.DataType = &dt
			} else {
				u := operation.Unit(a.Str)
				op.Unit = &u
			}
		}
		if a.Unit != "" {
			u := operation.Unit(a.Unit)
			op.Unit = &u
		}
	}
	return op, nil
}

func buildCollocatedDatasetArgs(c Call, startAfterName int) (operation.CollocatedDatasetArgs, error) {
	var args operation.CollocatedDatasetArgs
	if len(c.Args) <= startAfterName {
		return args, argErr(c, "%s: missing arguments", c.Name)
	}
	name, err := ident(c, 0)
	if err != nil {
		return args, err
	}
	args.Name = name
	idx := 1
	for idx < len(c.Args) && c.Args[idx].Kind == ArgDimension {
		args.Dims = append(args.Dims, product.DimensionType(c.Args[idx].Str))
		idx++
	}
	if idx < len(c.Args) && c.Args[idx].Unit != "" {
		args.Unit = operation.Unit(c.Args[idx].Unit)
	}
	if idx < len(c.Args) {
		axisName, err := ident(c, idx)
		if err != nil {
			return args, err
		}
		args.AxisName = axisName
		args.AxisUnit = unitOf(c, idx)
		idx++
	}
	if idx < len(c.Args) {
		if c.Args[idx].Kind == ArgString {
			args.ProductFile = c.Args[idx].Str
		} else {
			args.CollocationResult, _ = ident(c, idx)
		}
		idx++
	}
	if idx < len(c.Args) {
		side, err := ident(c, idx)
		if err != nil {
			return args, err
		}
		args.Side = operation.Side(side)
		idx++
	}
	if idx < len(c.Args) {
		dir, err := str(c, idx)
		if err == nil {
			args.DatasetDir = dir
		}
	}
	return args, nil
}

func buildDeriveSmoothedDataset(c Call) (operation.Operation, error) {
	args, err := buildCollocatedDatasetArgs(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.DeriveSmoothedColumnCollocatedDatasetOp{Args: args}, nil
}

func buildDeriveSmoothedProduct(c Call) (operation.Operation, error) {
	args, err := buildCollocatedDatasetArgs(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.DeriveSmoothedColumnCollocatedProductOp{Args: args}, nil
}

func names(c Call) []string {
	var out []string
	for _, a := range c.Args {
		if a.Kind == ArgIdent || a.Kind == ArgString {
			out = append(out, a.Str)
		}
	}
	return out
}

func buildExcludeVariable(c Call) (operation.Operation, error) {
	return operation.ExcludeVariableOp{Names: names(c)}, nil
}

func buildKeepVariable(c Call) (operation.Operation, error) {
	return operation.KeepVariableOp{Names: names(c)}, nil
}

func buildFlatten(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	return operation.FlattenOp{Dimension: d}, nil
}

func buildRebin(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	return operation.RebinOp{AxisBoundsVariable: v}, nil
}

func buildRegrid(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	op := operation.RegridOp{TargetAxisVariable: v}
	if len(c.Args) > 1 {
		b, err := ident(c, 1)
		if err == nil {
			op.BoundsVariable = b
		}
	}
	return op, nil
}

func buildRegridCollocatedDataset(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	rest := Call{Name: c.Name, Args: append([]Arg{{Kind: ArgIdent, Str: ""}}, c.Args[1:]...), Line: c.Line, Column: c.Column}
	args, err := buildCollocatedDatasetArgs(rest, 1)
	if err != nil {
		return nil, err
	}
	return operation.RegridCollocatedDatasetOp{
		Dimension: d, AxisName: args.AxisName, AxisUnit: args.AxisUnit,
		CollocationResult: args.CollocationResult, ProductFile: args.ProductFile,
		Side: args.Side, DatasetDir: args.DatasetDir,
	}, nil
}

func buildRegridCollocatedProduct(c Call) (operation.Operation, error) {
	op, err := buildRegridCollocatedDataset(c)
	if err != nil {
		return nil, err
	}
	d := op.(operation.RegridCollocatedDatasetOp)
	return operation.RegridCollocatedProductOp(d), nil
}

func buildRename(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	oldName, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	newName, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.RenameOp{OldName: oldName, NewName: newName}, nil
}

func buildSet(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	opt, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	val, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.SetOp{Option: opt, Value: val}, nil
}

func buildSmoothCollocatedDataset(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	var vars []string
	idx := 0
	for idx < len(c.Args) && c.Args[idx].Kind == ArgIdent {
		vars = append(vars, c.Args[idx].Str)
		idx++
		if idx < len(c.Args) && c.Args[idx].Kind == ArgDimension {
			break
		}
	}
	rest := Call{Name: c.Name, Args: append([]Arg{{Kind: ArgIdent, Str: ""}}, c.Args[idx:]...), Line: c.Line, Column: c.Column}
	args, err := buildCollocatedDatasetArgs(rest, 1)
	if err != nil {
		return nil, err
	}
	if len(args.Dims) == 0 {
		return nil, argErr(c, "%s: missing vertical dimension argument", c.Name)
	}
	return operation.SmoothCollocatedDatasetOp{
		Variables: vars, Dimension: args.Dims[0], AxisName: args.AxisName, AxisUnit: args.AxisUnit,
		CollocationResult: args.CollocationResult, ProductFile: args.ProductFile,
		Side: args.Side, DatasetDir: args.DatasetDir,
	}, nil
}

func buildSmoothCollocatedProduct(c Call) (operation.Operation, error) {
	op, err := buildSmoothCollocatedDataset(c)
	if err != nil {
		return nil, err
	}
	d := op.(operation.SmoothCollocatedDatasetOp)
	return operation.SmoothCollocatedProductOp(d), nil
}

func buildSort(c Call) (operation.Operation, error) {
	return operation.SortOp{Variables: names(c)}, nil
}

func buildSquash(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 1); err != nil {
		return nil, err
	}
	d, err := dim(c, 0)
	if err != nil {
		return nil, err
	}
	var vars []string
	for i := 1; i < len(c.Args); i++ {
		if c.Args[i].Kind == ArgIdent {
			vars = append(vars, c.Args[i].Str)
		}
	}
	return operation.SquashOp{Dimension: d, Variables: vars}, nil
}

func buildWrap(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	v, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	min, err := num(c, 1)
	if err != nil {
		return nil, err
	}
	max, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.WrapOp{Variable: v, Unit: unitOf(c, 1), Min: min, Max: max}, nil
}

func buildBinFull(c Call) (operation.Operation, error) { return operation.BinFullOp{}, nil }

func buildBinCollocated(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	name, err := ident(c, 0)
	if err != nil {
		return nil, err
	}
	side, err := ident(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.BinCollocatedOp{CollocationResult: name, Side: operation.Side(side)}, nil
}

func buildBinSpatial(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	var lat, lon []float64
	mid := len(c.Args) / 2
	for i := 0; i < mid; i++ {
		n, err := num(c, i)
		if err != nil {
			return nil, err
		}
		lat = append(lat, n)
	}
	for i := mid; i < len(c.Args); i++ {
		n, err := num(c, i)
		if err != nil {
			return nil, err
		}
		lon = append(lon, n)
	}
	return operation.BinSpatialOp{LatEdges: lat, LonEdges: lon}, nil
}

func buildBinWithVariables(c Call) (operation.Operation, error) {
	return operation.BinWithVariablesOp{Variables: names(c)}, nil
}

func polygonArgFrom(c Call, startIdx int) operation.PolygonArg {
	if startIdx < len(c.Args) && c.Args[startIdx].Kind == ArgString {
		return operation.PolygonArg{File: c.Args[startIdx].Str}
	}
	var ring []operation.LatLonUnit
	for i := startIdx; i+1 < len(c.Args); i += 2 {
		if c.Args[i].Kind != ArgNumber || c.Args[i+1].Kind != ArgNumber {
			break
		}
		ring = append(ring, operation.LatLonUnit{
			Lat: c.Args[i].Num, LatU: operation.Unit(c.Args[i].Unit),
			Lon: c.Args[i+1].Num, LonU: operation.Unit(c.Args[i+1].Unit),
		})
	}
	return operation.PolygonArg{Inline: ring}
}

func buildAreaCoversArea(c Call) (operation.Operation, error) {
	return operation.AreaCoversAreaOp{Polygon: polygonArgFrom(c, 0)}, nil
}

func buildAreaInsideArea(c Call) (operation.Operation, error) {
	return operation.AreaInsideAreaOp{Polygon: polygonArgFrom(c, 0)}, nil
}

func buildAreaIntersectsArea(c Call) (operation.Operation, error) {
	op := operation.AreaIntersectsAreaOp{Polygon: polygonArgFrom(c, 0)}
	if last := len(c.Args) - 1; last >= 0 && c.Args[last].Kind == ArgNumber {
		f := c.Args[last].Num
		op.MinFraction = &f
	}
	return op, nil
}

func buildAreaCoversPoint(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 2); err != nil {
		return nil, err
	}
	lat, err := num(c, 0)
	if err != nil {
		return nil, err
	}
	lon, err := num(c, 1)
	if err != nil {
		return nil, err
	}
	return operation.AreaCoversPointOp{Point: operation.LatLonUnit{
		Lat: lat, LatU: unitOf(c, 0), Lon: lon, LonU: unitOf(c, 1),
	}}, nil
}

func buildPointInArea(c Call) (operation.Operation, error) {
	return operation.PointInAreaOp{Polygon: polygonArgFrom(c, 0)}, nil
}

func buildPointDistance(c Call) (operation.Operation, error) {
	if err := wantArgs(c, 3); err != nil {
		return nil, err
	}
	lat, err := num(c, 0)
	if err != nil {
		return nil, err
	}
	lon, err := num(c, 1)
	if err != nil {
		return nil, err
	}
	radius, err := num(c, 2)
	if err != nil {
		return nil, err
	}
	return operation.PointDistanceOp{
		Center: operation.LatLonUnit{Lat: lat, LatU: unitOf(c, 0), Lon: lon, LonU: unitOf(c, 1)},
		Radius: radius, RadiusUnit: unitOf(c, 2),
	}, nil
}
