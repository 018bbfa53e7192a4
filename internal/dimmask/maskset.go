package dimmask

import (
	"atmoseng/internal/harperr"
	"atmoseng/internal/product"
)

// Set is a partial map from DimensionType to Mask. No mask may be keyed
// by Independent; a 2-D mask's axis-0 length must equal the product's
// time dimension.
type Set struct {
	masks map[product.DimensionType]*Mask
}

// NewSet builds an empty mask set.
func NewSet() *Set { return &Set{masks: make(map[product.DimensionType]*Mask)} }

// Get returns the mask for dt, or (nil, false) if unset.
func (s *Set) Get(dt product.DimensionType) (*Mask, bool) {
	m, ok := s.masks[dt]
	return m, ok
}

// Put installs a mask for dt, rejecting Independent per the invariant.
func (s *Set) Put(dt product.DimensionType, m *Mask) error {
	if dt == product.Independent {
		return harperr.Op("a dimension mask may not be keyed by independent")
	}
	s.masks[dt] = m
	return nil
}

// GetOrCreate1D returns the existing mask for dt, or installs and returns
// a fresh all-true rank-1 mask of length n.
func (s *Set) GetOrCreate1D(dt product.DimensionType, n int) (*Mask, error) {
	if m, ok := s.masks[dt]; ok {
		return m, nil
	}
	m := New1D(n, true)
	if err := s.Put(dt, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreate2D returns the existing mask for dt (promoting a rank-1 mask
// to rank-2 by prepending the time axis if needed), or installs a fresh
// all-true rank-2 mask of shape (timeLen, n).
func (s *Set) GetOrCreate2D(dt product.DimensionType, timeLen, n int) (*Mask, error) {
	if m, ok := s.masks[dt]; ok {
		if m.Rank() == 2 {
			return m, nil
		}
		promoted := m.PrependDimension(timeLen)
		s.masks[dt] = promoted
		return promoted, nil
	}
	m := New2D(timeLen, n, true)
	if err := s.Put(dt, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Dimensions returns the set of keys currently populated.
func (s *Set) Dimensions() []product.DimensionType {
	out := make([]product.DimensionType, 0, len(s.masks))
	for dt := range s.masks {
		out = append(out, dt)
	}
	return out
}

// Simplify collapses any rank-2 mask whose rows are identical into a
// rank-1 mask, and drops any trivially-all-true mask from the set
// entirely (an unset mask means "keep everything", so an all-true mask is
// equivalent and can be discarded).
//
// This also resolves the spec's open question about a 1-D mask promoted
// to 2-D interacting with a subsequent rank-1 filter on the same
// dimension: callers (see internal/engine) re-run Simplify after every
// rank-1 AND onto a promoted mask, so if every row ends up identical the
// set collapses back to rank 1 before the next filter is applied,
// matching this contract exactly rather than leaving an ambiguous
// still-2D mask around.
func (s *Set) Simplify() {
	for dt, m := range s.masks {
		if m.Rank() == 2 && m.RowsIdentical() {
			m = m.CollapseToRank1()
			s.masks[dt] = m
		}
		if m.AllTrue() {
			delete(s.masks, dt)
		}
	}
}

// HasEmpty reports whether any stored mask has MaskedLength 0 — callers
// treat this as "the product becomes empty".
func (s *Set) HasEmpty() bool {
	for _, m := range s.masks {
		if m.MaskedLength() == 0 {
			return true
		}
	}
	return false
}

// Clone deep-copies a mask set.
func (s *Set) Clone() *Set {
	out := NewSet()
	for dt, m := range s.masks {
		out.masks[dt] = m.Clone()
	}
	return out
}

// AndTimeRow ANDs bit i of the time mask (creating an all-true one if
// absent) with `keep`, used when a rank-2 filter finds an entire row
// empty and must also drop that time step from the scalar time mask.
func (s *Set) AndTimeRow(i int, keep bool, timeLen int) error {
	if keep {
		return nil
	}
	m, err := s.GetOrCreate1D(product.Time, timeLen)
	if err != nil {
		return err
	}
	m.Set(false, i)
	return nil
}
