package external

import "atmoseng/internal/product"

// SliceReader is an in-memory Reader backed by already-materialized
// buffers, used by tests and by any caller that has fully loaded a product
// before handing it to the ingestion optimizer.
type SliceReader struct {
	dims      map[product.DimensionType]int
	variables []VariableDescriptor
	data      map[string]product.Buffer
	excluded  map[string]bool
}

// NewSliceReader builds a SliceReader over dims and the given variables.
// data must contain one entry per descriptor name.
func NewSliceReader(dims map[product.DimensionType]int, variables []VariableDescriptor, data map[string]product.Buffer) *SliceReader {
	return &SliceReader{
		dims:      dims,
		variables: variables,
		data:      data,
		excluded:  make(map[string]bool),
	}
}

// SetExcluded marks a variable hidden from Variables() and unreadable, used by
// tests simulating a reader that omits a variable based on option state.
func (r *SliceReader) SetExcluded(name string, excluded bool) {
	r.excluded[name] = excluded
}

func (r *SliceReader) Dimensions() map[product.DimensionType]int {
	out := make(map[product.DimensionType]int, len(r.dims))
	for k, v := range r.dims {
		out[k] = v
	}
	return out
}

func (r *SliceReader) Variables() []VariableDescriptor {
	out := make([]VariableDescriptor, 0, len(r.variables))
	for _, v := range r.variables {
		if r.excluded[v.Name] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (r *SliceReader) buffer(name string) (product.Buffer, error) {
	b, ok := r.data[name]
	if !ok {
		return product.Buffer{}, notFound(name)
	}
	return b, nil
}

func (r *SliceReader) ReadWhole(name string, dst product.Buffer) error {
	src, err := r.buffer(name)
	if err != nil {
		return err
	}
	for i := 0; i < src.Len(); i++ {
		product.CopyElem(dst, src, i, i)
	}
	return nil
}

func (r *SliceReader) ReadBlock(name string, outerIndex int, dst product.Buffer) error {
	src, err := r.buffer(name)
	if err != nil {
		return err
	}
	inner := dst.Len()
	base := outerIndex * inner
	for i := 0; i < inner; i++ {
		product.CopyElem(dst, src, i, base+i)
	}
	return nil
}

func (r *SliceReader) ReadRange(name string, start, count int, dst product.Buffer) error {
	src, err := r.buffer(name)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		product.CopyElem(dst, src, i, start+i)
	}
	return nil
}

func (r *SliceReader) OptimalRangeLength(name string) int {
	b, ok := r.data[name]
	if !ok {
		return 1
	}
	return b.Len()
}

func (r *SliceReader) Exclude(name string) bool { return r.excluded[name] }

func notFound(name string) error {
	return &missingVariableError{name: name}
}

type missingVariableError struct{ name string }

func (e *missingVariableError) Error() string { return "external: no such variable " + e.name }
