// Package units provides a minimal default UnitLibrary: a table of affine
// conversions (scale, offset) between commensurable unit names. Real unit
// handling (CF-style unit strings, arbitrary algebraic combinations) is an
// out-of-scope collaborator; this is a small, swappable stand-in so
// ComparisonFilter/MembershipFilter unit conversion is exercisable without
// a production unit library wired in.
package units

import "atmoseng/internal/external"

type affine struct {
	scale, offset float64
}

// Table is a registry of unit->canonical-unit affine conversions grouped
// by dimension. Two units convert against each other only if they share a
// canonical unit.
type Table struct {
	canonical map[string]string  // unit -> canonical unit name
	toCanon   map[string]affine  // unit -> (x*scale+offset) == canonical value
}

// NewTable returns a Table preloaded with the conversions this engine's
// filters actually need: degree_north/degree_east are identity; km/m and
// hPa/Pa are the common scalar pairs exercised by point-distance and
// pressure-based valid-range filters.
func NewTable() *Table {
	t := &Table{canonical: map[string]string{}, toCanon: map[string]affine{}}
	t.Register("degree_north", "degree_north", 1, 0)
	t.Register("degree_east", "degree_east", 1, 0)
	t.Register("m", "m", 1, 0)
	t.Register("km", "m", 1000, 0)
	t.Register("Pa", "Pa", 1, 0)
	t.Register("hPa", "Pa", 100, 0)
	t.Register("K", "K", 1, 0)
	t.Register("degC", "K", 1, 273.15)
	return t
}

// Register adds or replaces a unit's conversion to its canonical unit.
func (t *Table) Register(unit, canonicalUnit string, scale, offset float64) {
	t.canonical[unit] = canonicalUnit
	t.toCanon[unit] = affine{scale: scale, offset: offset}
}

func (t *Table) lookup(unit string) (affine, string, bool) {
	a, ok := t.toCanon[unit]
	if !ok {
		return affine{}, "", false
	}
	return a, t.canonical[unit], true
}

// Compare reports whether a and b are the same canonical unit: 0 if so,
// an error otherwise (there is no meaningful ordering between units).
func (t *Table) Compare(a, b string) (int, error) {
	_, ca, ok1 := t.lookup(a)
	_, cb, ok2 := t.lookup(b)
	if !ok1 || !ok2 {
		return 0, unknownUnit(a, b, ok1, ok2)
	}
	if ca == cb {
		return 0, nil
	}
	return -1, incommensurable(a, b)
}

// Convert converts values in place from unit from to unit to.
func (t *Table) Convert(from, to string, values []float64) error {
	conv, err := t.Converter(from, to)
	if err != nil {
		return err
	}
	for i, v := range values {
		values[i] = conv.Apply(v)
	}
	return nil
}

type converter struct {
	scale, offset float64
}

func (c converter) Apply(x float64) float64 { return x*c.scale + c.offset }

// Converter fabricates a reusable from->to converter, failing if either
// unit is unknown or they are not commensurable.
func (t *Table) Converter(from, to string) (external.Converter, error) {
	af, cf, ok1 := t.lookup(from)
	at, ct, ok2 := t.lookup(to)
	if !ok1 || !ok2 {
		return nil, unknownUnit(from, to, ok1, ok2)
	}
	if cf != ct {
		return nil, incommensurable(from, to)
	}
	// from -> canonical -> to: x*af.scale+af.offset is canonical; invert at.
	if at.scale == 0 {
		return nil, incommensurable(from, to)
	}
	// canonical -> to: (c - at.offset) / at.scale
	return converter{
		scale:  af.scale / at.scale,
		offset: (af.offset - at.offset) / at.scale,
	}, nil
}
