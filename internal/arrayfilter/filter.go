// Package arrayfilter applies a DimensionMaskSet to a single variable's
// flat row-major array, producing a compacted array (§4.4 of the
// operation pipeline design).
package arrayfilter

import (
	"atmoseng/internal/dimmask"
	"atmoseng/internal/harperr"
	"atmoseng/internal/product"
)

// AxisMask is the per-dimension mask input to Apply: nil means keep-all,
// otherwise a rank-1 mask over exactly this axis, or (legal only for axis
// index > 0) a rank-2 mask whose axis-0 length must equal shape[0].
type AxisMask = *dimmask.Mask

// Result is the output of Apply: a compacted buffer plus its new shape.
type Result struct {
	Data  product.Buffer
	Shape []int
}

// Apply compacts buf (shaped by shape, row-major) according to masks
// (one entry per axis, nil meaning keep-all). At most one axis may carry
// a rank-2 mask, since a per-time-step selection only ever applies to one
// secondary dimension at a time in this engine.
func Apply(buf product.Buffer, shape []int, masks []AxisMask) (Result, error) {
	r := len(shape)
	if len(masks) != r {
		return Result{}, harperr.Op("arrayfilter: mask count %d does not match rank %d", len(masks), r)
	}
	rank2Axis := -1
	for k, m := range masks {
		if m == nil {
			continue
		}
		if m.Rank() == 2 {
			if k == 0 {
				return Result{}, harperr.Op("arrayfilter: axis 0 cannot carry a rank-2 mask")
			}
			if rank2Axis != -1 {
				return Result{}, harperr.Op("arrayfilter: at most one axis may carry a rank-2 mask")
			}
			if m.Dim0() != shape[0] {
				return Result{}, harperr.New(harperr.Product, "arrayfilter: rank-2 mask axis-0 length %d does not match array axis-0 length %d", m.Dim0(), shape[0])
			}
			rank2Axis = k
		} else if m.Dim0() != shape[k] {
			return Result{}, harperr.New(harperr.Product, "arrayfilter: mask length %d does not match axis %d length %d", m.Dim0(), k, shape[k])
		}
	}

	outShape := make([]int, r)
	for k, m := range masks {
		if m == nil {
			outShape[k] = shape[k]
		} else {
			outShape[k] = m.MaskedLength()
		}
	}

	// Precompute rank-1 src->dest column maps for every rank-1-masked axis.
	colMap := make([][]int, r) // colMap[k][srcIdx] = destIdx or -1
	for k, m := range masks {
		if m == nil || k == rank2Axis {
			continue
		}
		cm := make([]int, shape[k])
		d := 0
		for i := 0; i < shape[k]; i++ {
			if m.At(i) {
				cm[i] = d
				d++
			} else {
				cm[i] = -1
			}
		}
		colMap[k] = cm
	}

	// Precompute per-row (axis-0 index) column maps for the rank-2 axis.
	var rowColMap [][]int // rowColMap[i][srcJ] = destIdx or -1, only for kept rows
	if rank2Axis != -1 {
		m := masks[rank2Axis]
		rowColMap = make([][]int, shape[0])
		for i := 0; i < shape[0]; i++ {
			cm := make([]int, m.Dim1())
			d := 0
			for j := 0; j < m.Dim1(); j++ {
				if m.At(i, j) {
					cm[j] = d
					d++
				} else {
					cm[j] = -1
				}
			}
			rowColMap[i] = cm
		}
	}

	total := 1
	for _, n := range outShape {
		total *= n
	}
	dst := product.NewBuffer(buf.Type, total)
	dst.FillNull()

	srcStrides := strides(shape)
	dstStrides := strides(outShape)

	srcIdx := make([]int, r)
	destIdx := make([]int, r)
	walk(0, r, shape, masks, colMap, rowColMap, rank2Axis, srcIdx, destIdx, func(srcFlat, dstFlat int) {
		product.CopyElem(dst, buf, dstFlat, srcFlat)
	}, srcStrides, dstStrides)

	return Result{Data: dst, Shape: outShape}, nil
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// walk recursively enumerates every source multi-index, pruning axes as
// soon as an index is dropped by its mask, and invokes emit(srcFlat,
// dstFlat) for every retained element.
func walk(axis, r int, shape []int, masks []AxisMask, colMap, rowColMap [][]int, rank2Axis int,
	srcIdx, destIdx []int, emit func(srcFlat, dstFlat int), srcStrides, dstStrides []int) {
	if axis == r {
		srcFlat, dstFlat := 0, 0
		for k := 0; k < r; k++ {
			srcFlat += srcIdx[k] * srcStrides[k]
			dstFlat += destIdx[k] * dstStrides[k]
		}
		emit(srcFlat, dstFlat)
		return
	}
	m := masks[axis]
	for i := 0; i < shape[axis]; i++ {
		var destCol int
		if m == nil {
			destCol = i
		} else if axis == rank2Axis {
			destCol = rowColMap[srcIdx[0]][i]
			if destCol < 0 {
				continue
			}
		} else {
			destCol = colMap[axis][i]
			if destCol < 0 {
				continue
			}
		}
		srcIdx[axis] = i
		destIdx[axis] = destCol
		walk(axis+1, r, shape, masks, colMap, rowColMap, rank2Axis, srcIdx, destIdx, emit, srcStrides, dstStrides)
	}
}
