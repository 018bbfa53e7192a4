// Package predicate implements the per-element and per-row boolean tests
// used by the dimension-mask filter engine: comparisons, membership,
// valid-range, bit-mask, longitude-range, index, and spatial predicates.
package predicate

import (
	"math"
	"sort"

	"atmoseng/internal/external"
	"atmoseng/internal/harperr"
	"atmoseng/internal/product"
)

// Predicate is a single-value test with captured state, the Go analogue
// of the original's closure-with-destructor: a Predicate here owns no
// finalizable resources, so there is no explicit Close, but the eval entry
// point is the same single-method contract.
type Predicate interface {
	// Eval tests the scalar at index i of buf.
	Eval(buf product.Buffer, i int) bool
}

// Comparison operators shared by ComparisonFilter and StringComparisonFilter.
type Op string

const (
	OpEQ Op = "=="
	OpNE Op = "!="
	OpLT Op = "<"
	OpLE Op = "<="
	OpGT Op = ">"
	OpGE Op = ">="
)

func compareFloat(op Op, a, b float64) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	}
	return false
}

func compareString(op Op, a, b string) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	}
	return false
}

// ComparisonFilter compares a numeric value against a constant, with an
// optional unit converter applied before comparison.
type ComparisonFilter struct {
	Op        Op
	Value     float64
	Converter external.Converter // nil if no unit conversion is needed
}

// NewComparisonFilter validates that t is numeric (construction fails for
// string variables, per the data model).
func NewComparisonFilter(t product.DataType, op Op, value float64, conv external.Converter) (*ComparisonFilter, error) {
	if !t.IsNumeric() {
		return nil, harperr.InvalidArg("comparison filter cannot be applied to string-typed variable")
	}
	return &ComparisonFilter{Op: op, Value: value, Converter: conv}, nil
}

func (f *ComparisonFilter) Eval(buf product.Buffer, i int) bool {
	v := buf.Float64At(i)
	if f.Converter != nil {
		v = f.Converter.Apply(v)
	}
	return compareFloat(f.Op, v, f.Value)
}

// StringComparisonFilter compares a string value against a constant. Only
// ==/!= are contractually meaningful, but ordering operators are honored
// via lexicographic order when they appear, per §4.1.
type StringComparisonFilter struct {
	Op    Op
	Value string
}

func (f *StringComparisonFilter) Eval(buf product.Buffer, i int) bool {
	v, ok := buf.StringAt(i)
	if !ok {
		return false
	}
	return compareString(f.Op, v, f.Value)
}

// MembershipMode selects in/not_in semantics, shared by numeric and string
// membership filters.
type MembershipMode string

const (
	In    MembershipMode = "in"
	NotIn MembershipMode = "not_in"
)

// MembershipFilter tests numeric membership in a sorted value set.
type MembershipFilter struct {
	Mode      MembershipMode
	Values    []float64 // must be sorted ascending
	Converter external.Converter
}

// NewMembershipFilter sorts a copy of values so binary search is safe
// regardless of caller-supplied order.
func NewMembershipFilter(mode MembershipMode, values []float64, conv external.Converter) *MembershipFilter {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return &MembershipFilter{Mode: mode, Values: sorted, Converter: conv}
}

func (f *MembershipFilter) Eval(buf product.Buffer, i int) bool {
	v := buf.Float64At(i)
	if f.Converter != nil {
		v = f.Converter.Apply(v)
	}
	idx := sort.SearchFloat64s(f.Values, v)
	found := idx < len(f.Values) && f.Values[idx] == v
	if f.Mode == In {
		return found
	}
	return !found
}

// StringMembershipFilter tests string membership in a value set.
type StringMembershipFilter struct {
	Mode   MembershipMode
	Values map[string]bool
}

func NewStringMembershipFilter(mode MembershipMode, values []string) *StringMembershipFilter {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return &StringMembershipFilter{Mode: mode, Values: m}
}

func (f *StringMembershipFilter) Eval(buf product.Buffer, i int) bool {
	v, ok := buf.StringAt(i)
	if !ok {
		return f.Mode == NotIn
	}
	found := f.Values[v]
	if f.Mode == In {
		return found
	}
	return !found
}

// BitMaskMode selects all/any/none bit-test semantics.
type BitMaskMode string

const (
	All  BitMaskMode = "all"
	Any  BitMaskMode = "any"
	None BitMaskMode = "none"
)

// BitMaskFilter is legal only for integer-typed variables; the raw value
// is cast to u32 before testing.
type BitMaskFilter struct {
	Mode BitMaskMode
	Mask uint32
}

func NewBitMaskFilter(t product.DataType, mode BitMaskMode, mask uint32) (*BitMaskFilter, error) {
	if !t.IsInteger() {
		return nil, harperr.InvalidArg("bit-mask filter requires an integer-typed variable")
	}
	return &BitMaskFilter{Mode: mode, Mask: mask}, nil
}

func (f *BitMaskFilter) Eval(buf product.Buffer, i int) bool {
	v := uint32(buf.IntAt(i))
	switch f.Mode {
	case All:
		return v&f.Mask == f.Mask
	case Any:
		return v&f.Mask != 0
	case None:
		return v&f.Mask == 0
	}
	return false
}

// ValidRangeFilter rejects NaN and values outside [Min,Max].
type ValidRangeFilter struct {
	Min, Max float64
}

func (f *ValidRangeFilter) Eval(buf product.Buffer, i int) bool {
	v := buf.Float64At(i)
	if math.IsNaN(v) {
		return false
	}
	return v >= f.Min && v <= f.Max
}

// LongitudeRangeFilter keeps longitudes in a wrap-aware [min,max] window.
// Max is normalized so 0 <= max-min <= 360 at construction time.
type LongitudeRangeFilter struct {
	Min, Max float64 // Max already normalized relative to Min
}

// NewLongitudeRangeFilter normalizes max into [min, min+360].
func NewLongitudeRangeFilter(min, max float64) *LongitudeRangeFilter {
	span := math.Mod(max-min, 360)
	if span < 0 {
		span += 360
	}
	if span == 0 && max != min {
		span = 360
	}
	return &LongitudeRangeFilter{Min: min, Max: min + span}
}

func (f *LongitudeRangeFilter) Eval(buf product.Buffer, i int) bool {
	x := buf.Float64At(i)
	wrapped := math.Mod(x-f.Min, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	wrapped += f.Min
	return wrapped <= f.Max
}

// IndexComparisonFilter tests the positional index along a dimension, not
// a variable value.
type IndexComparisonFilter struct {
	Op    Op
	Value int64
}

func (f *IndexComparisonFilter) Eval(_ product.Buffer, i int) bool {
	return compareFloat(f.Op, float64(i), float64(f.Value))
}

// IndexMembershipFilter tests whether a positional index is among a set.
type IndexMembershipFilter struct {
	Mode   MembershipMode
	Values map[int64]bool
}

func NewIndexMembershipFilter(mode MembershipMode, values []int64) *IndexMembershipFilter {
	m := make(map[int64]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return &IndexMembershipFilter{Mode: mode, Values: m}
}

func (f *IndexMembershipFilter) Eval(_ product.Buffer, i int) bool {
	found := f.Values[int64(i)]
	if f.Mode == In {
		return found
	}
	return !found
}
