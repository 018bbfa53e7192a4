package product

import "atmoseng/internal/harperr"

// Variable is a typed, shaped, named array inside a Product.
type Variable struct {
	Name        string
	DataType    DataType
	Dims        []Dimension
	Data        Buffer
	Unit        string
	ValidMin    *float64
	ValidMax    *float64
	Enum        []string // ordered value->name map; nil if not enumerated
	Description string
}

// NewScalar builds a rank-0 (scalar) variable.
func NewScalar(name string, t DataType) *Variable {
	return &Variable{Name: name, DataType: t, Dims: nil, Data: NewBuffer(t, 1)}
}

// NewVariable builds a variable with the given dimensions, allocating a
// zero-valued buffer of the right length.
func NewVariable(name string, t DataType, dims []Dimension) (*Variable, error) {
	if len(dims) > MaxDims {
		return nil, harperr.InvalidArg("variable %q declares %d dimensions, exceeding the maximum of %d", name, len(dims), MaxDims)
	}
	n := numElements(dims)
	return &Variable{Name: name, DataType: t, Dims: append([]Dimension(nil), dims...), Data: NewBuffer(t, n)}, nil
}

func numElements(dims []Dimension) int {
	n := 1
	for _, d := range dims {
		n *= d.Length
	}
	return n
}

// NumElements returns the product of this variable's dimension lengths (1
// for a rank-0 variable).
func (v *Variable) NumElements() int { return numElements(v.Dims) }

// Rank returns the number of dimensions.
func (v *Variable) Rank() int { return len(v.Dims) }

// DimIndex returns the position of dt in v's dimension list, or -1.
func (v *Variable) DimIndex(dt DimensionType) int {
	for i, d := range v.Dims {
		if d.Type == dt {
			return i
		}
	}
	return -1
}

// DependsOn reports whether v uses dimension dt anywhere in its shape.
func (v *Variable) DependsOn(dt DimensionType) bool { return v.DimIndex(dt) >= 0 }

// HasTimeAxis0 reports whether v's first dimension is Time, the shape the
// per-time-step (rank-2 mask) filter path requires.
func (v *Variable) HasTimeAxis0() bool { return len(v.Dims) > 0 && v.Dims[0].Type == Time }

// CheckInvariants validates the buffer-length and rank-0 invariants from
// the data model.
func (v *Variable) CheckInvariants() error {
	n := v.NumElements()
	if v.Data.Len() != n {
		return harperr.New(harperr.Product, "variable %q: data length %d does not match shape product %d", v.Name, v.Data.Len(), n)
	}
	if len(v.Dims) == 0 && n != 1 {
		return harperr.New(harperr.Product, "variable %q: rank-0 variable must have exactly one element", v.Name)
	}
	return nil
}

// Clone deep-copies a Variable, including string slot contents (shared
// string pointers are fine since strings are immutable in Go; only slice
// ownership needs to be distinct so a clone's compaction cannot stomp the
// original).
func (v *Variable) Clone() *Variable {
	out := *v
	out.Dims = append([]Dimension(nil), v.Dims...)
	if v.Data.Type == String {
		out.Data = NewBuffer(String, v.Data.Len())
		copy(out.Data.Str, v.Data.Str)
	} else {
		out.Data = v.Data.Slice(identity(v.Data.Len()))
	}
	if v.Enum != nil {
		out.Enum = append([]string(nil), v.Enum...)
	}
	if v.ValidMin != nil {
		m := *v.ValidMin
		out.ValidMin = &m
	}
	if v.ValidMax != nil {
		m := *v.ValidMax
		out.ValidMax = &m
	}
	return &out
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// EnumName resolves an enumerated integer value to its name, or ("", false)
// if v is not enumerated or the value is out of range.
func (v *Variable) EnumName(value int64) (string, bool) {
	if v.Enum == nil || value < 0 || int(value) >= len(v.Enum) {
		return "", false
	}
	return v.Enum[value], true
}
