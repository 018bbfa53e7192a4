package product

import (
	"math"

	"atmoseng/internal/harperr"
)

// Buffer is a flat, row-major, typed data buffer. Exactly one of the
// typed slices is populated, selected by Type. String slots are
// individually owned (nullable) pointers so that filter compaction can
// transfer ownership by move without double-freeing, per the data model's
// string-ownership invariant.
type Buffer struct {
	Type DataType
	I8   []int8
	I16  []int16
	I32  []int32
	F32  []float32
	F64  []float64
	Str  []*string
}

// NewBuffer allocates a zero-valued buffer of the given type and length.
func NewBuffer(t DataType, n int) Buffer {
	b := Buffer{Type: t}
	switch t {
	case Int8:
		b.I8 = make([]int8, n)
	case Int16:
		b.I16 = make([]int16, n)
	case Int32:
		b.I32 = make([]int32, n)
	case Float32:
		b.F32 = make([]float32, n)
	case Float64:
		b.F64 = make([]float64, n)
	case String:
		b.Str = make([]*string, n)
	}
	return b
}

// Len returns the number of elements currently stored.
func (b Buffer) Len() int {
	switch b.Type {
	case Int8:
		return len(b.I8)
	case Int16:
		return len(b.I16)
	case Int32:
		return len(b.I32)
	case Float32:
		return len(b.F32)
	case Float64:
		return len(b.F64)
	case String:
		return len(b.Str)
	}
	return 0
}

// Float64At promotes the i-th element to float64. String buffers panic;
// callers must route string variables through StringAt instead.
func (b Buffer) Float64At(i int) float64 {
	switch b.Type {
	case Int8:
		return float64(b.I8[i])
	case Int16:
		return float64(b.I16[i])
	case Int32:
		return float64(b.I32[i])
	case Float32:
		return float64(b.F32[i])
	case Float64:
		return b.F64[i]
	}
	panic("product: Float64At on non-numeric buffer")
}

// SetFloat64At stores v at index i, narrowing to the buffer's native type.
func (b Buffer) SetFloat64At(i int, v float64) {
	switch b.Type {
	case Int8:
		b.I8[i] = int8(v)
	case Int16:
		b.I16[i] = int16(v)
	case Int32:
		b.I32[i] = int32(v)
	case Float32:
		b.F32[i] = float32(v)
	case Float64:
		b.F64[i] = v
	default:
		panic("product: SetFloat64At on non-numeric buffer")
	}
}

// IntAt returns the i-th element as an int64, for index/bitmask predicates
// that must not lose integer precision through a float64 promotion.
func (b Buffer) IntAt(i int) int64 {
	switch b.Type {
	case Int8:
		return int64(b.I8[i])
	case Int16:
		return int64(b.I16[i])
	case Int32:
		return int64(b.I32[i])
	}
	panic("product: IntAt on non-integer buffer")
}

// StringAt returns the i-th string element, or "" with ok=false for a null
// slot.
func (b Buffer) StringAt(i int) (string, bool) {
	p := b.Str[i]
	if p == nil {
		return "", false
	}
	return *p, true
}

// NullValue returns this type's compaction filler: 0 for integers, NaN for
// floats, nil for strings.
func (t DataType) NullValue() interface{} {
	switch t {
	case Float32:
		return float32(math.NaN())
	case Float64:
		return math.NaN()
	case String:
		return (*string)(nil)
	default:
		return int64(0)
	}
}

// Slice returns a new Buffer containing only the elements at the given
// indices, in order, copying (not aliasing) backing arrays for numeric
// types and transferring string ownership by move for string buffers.
func (b Buffer) Slice(indices []int) Buffer {
	out := NewBuffer(b.Type, len(indices))
	for dst, src := range indices {
		switch b.Type {
		case Int8:
			out.I8[dst] = b.I8[src]
		case Int16:
			out.I16[dst] = b.I16[src]
		case Int32:
			out.I32[dst] = b.I32[src]
		case Float32:
			out.F32[dst] = b.F32[src]
		case Float64:
			out.F64[dst] = b.F64[src]
		case String:
			out.Str[dst] = b.Str[src]
			b.Str[src] = nil
		}
	}
	return out
}

// FillNull overwrites every element with this buffer's type-specific null
// value (0 for integers, NaN for floats, nil for strings). String slots
// that held an owned pointer are dropped without being copied anywhere,
// so callers must only call this on destination buffers before any
// values have been transferred into them.
func (b Buffer) FillNull() {
	switch b.Type {
	case Int8:
		for i := range b.I8 {
			b.I8[i] = 0
		}
	case Int16:
		for i := range b.I16 {
			b.I16[i] = 0
		}
	case Int32:
		for i := range b.I32 {
			b.I32[i] = 0
		}
	case Float32:
		for i := range b.F32 {
			b.F32[i] = float32(math.NaN())
		}
	case Float64:
		for i := range b.F64 {
			b.F64[i] = math.NaN()
		}
	case String:
		for i := range b.Str {
			b.Str[i] = nil
		}
	}
}

// CopyElem copies the value at src[si] into dst[di], transferring string
// ownership by move (and nulling the source slot) rather than aliasing.
func CopyElem(dst, src Buffer, di, si int) {
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
		dst.Str[di] = src.Str[si]
		src.Str[si] = nil
	}
}

// CheckRank validates that a buffer's Len matches an expected element
// count, returning a *harperr.Error (Kind Product) otherwise.
func (b Buffer) CheckRank(expected int) error {
	if b.Len() != expected {
		return harperr.New(harperr.Product, "buffer length %d does not match expected element count %d", b.Len(), expected)
	}
	return nil
}
