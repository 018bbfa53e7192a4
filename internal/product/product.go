package product

import "atmoseng/internal/harperr"

// Product is a named collection of Variables sharing a dimension table.
type Product struct {
	Variables     []*Variable
	dims          map[DimensionType]int
	SourceProduct string
}

// New builds an empty Product.
func New() *Product {
	return &Product{dims: make(map[DimensionType]int)}
}

// DimensionLength returns a pinned dimension's shared length and whether it
// is set at all.
func (p *Product) DimensionLength(dt DimensionType) (int, bool) {
	n, ok := p.dims[dt]
	return n, ok
}

// DimensionTable returns a copy of the product's pinned dimension table.
func (p *Product) DimensionTable() map[DimensionType]int {
	out := make(map[DimensionType]int, len(p.dims))
	for k, v := range p.dims {
		out[k] = v
	}
	return out
}

// Variable looks up a variable by name.
func (p *Product) Variable(name string) (*Variable, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// IndexOf returns the position of the named variable, or -1.
func (p *Product) IndexOf(name string) int {
	for i, v := range p.Variables {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// AddVariable inserts v, validating that its dimension usage agrees with
// the product's existing dimension table (or extends the table if the
// dimension is unset). On error the product is left unchanged.
func (p *Product) AddVariable(v *Variable) error {
	if _, exists := p.Variable(v.Name); exists {
		return harperr.New(harperr.Product, "variable %q already exists in product", v.Name)
	}
	if err := v.CheckInvariants(); err != nil {
		return err
	}
	for _, d := range v.Dims {
		if !d.Type.Pinned() {
			continue
		}
		if existing, ok := p.dims[d.Type]; ok && existing != d.Length {
			return harperr.New(harperr.Product, "variable %q: dimension %s length %d conflicts with product length %d", v.Name, d.Type, d.Length, existing)
		}
	}
	// Commit: no partial updates before this point.
	for _, d := range v.Dims {
		if d.Type.Pinned() {
			p.dims[d.Type] = d.Length
		}
	}
	p.Variables = append(p.Variables, v)
	return nil
}

// DetachVariable removes and returns the named variable, transferring
// ownership to the caller. Removing the last variable that pins a
// DimensionType clears that entry from the dimension table.
func (p *Product) DetachVariable(name string) (*Variable, error) {
	idx := p.IndexOf(name)
	if idx < 0 {
		return nil, harperr.New(harperr.Operation, "no such variable %q", name)
	}
	v := p.Variables[idx]
	p.Variables = append(p.Variables[:idx], p.Variables[idx+1:]...)
	p.pruneUnusedDimensions()
	return v, nil
}

// RemoveVariable destroys the named variable (convenience over Detach when
// the caller doesn't need ownership back).
func (p *Product) RemoveVariable(name string) error {
	_, err := p.DetachVariable(name)
	return err
}

func (p *Product) pruneUnusedDimensions() {
	for dt := range p.dims {
		used := false
		for _, v := range p.Variables {
			if v.DependsOn(dt) {
				used = true
				break
			}
		}
		if !used {
			delete(p.dims, dt)
		}
	}
}

// RenameVariable renames oldName to newName. Per the engine's idempotence
// contract, this is a no-op success if oldName is absent but newName is
// already present.
func (p *Product) RenameVariable(oldName, newName string) error {
	if idx := p.IndexOf(oldName); idx >= 0 {
		if oldName == newName {
			return nil
		}
		if _, exists := p.Variable(newName); exists {
			return harperr.New(harperr.Operation, "cannot rename %q to %q: target name already exists", oldName, newName)
		}
		p.Variables[idx].Name = newName
		return nil
	}
	if _, exists := p.Variable(newName); exists {
		return nil
	}
	return harperr.New(harperr.Operation, "no such variable %q", oldName)
}

// IsEmpty reports whether the product has no variables, or some pinned
// dimension has length zero. Per the data model, this is a valid terminal
// state, not an error.
func (p *Product) IsEmpty() bool {
	if len(p.Variables) == 0 {
		return true
	}
	for _, n := range p.dims {
		if n == 0 {
			return true
		}
	}
	return false
}

// Clear removes every variable, making the product empty. Used when a
// filter's mask set retains zero rows on some dimension.
func (p *Product) Clear() {
	p.Variables = nil
	p.dims = make(map[DimensionType]int)
}

// Clone deep-copies the product and all its variables.
func (p *Product) Clone() *Product {
	out := New()
	out.SourceProduct = p.SourceProduct
	for k, v := range p.dims {
		out.dims[k] = v
	}
	for _, v := range p.Variables {
		out.Variables = append(out.Variables, v.Clone())
	}
	return out
}

// SetDimensionLength is used by filter passes to write back the new
// dimension table entries derived from a mask set's masked_length values.
func (p *Product) SetDimensionLength(dt DimensionType, n int) {
	if !dt.Pinned() {
		return
	}
	p.dims[dt] = n
}
