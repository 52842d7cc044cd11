package cpu

import "github.com/born-ml/curvature/internal/tensor"

// broadcastIndices maps every flat index of outShape to the flat index of
// the source element it reads when src is broadcast to outShape.
// Callers must have checked that src broadcasts to outShape.
func broadcastIndices(outShape, src tensor.Shape) []int {
	n := outShape.NumElements()
	idx := make([]int, n)
	if outShape.Equal(src) {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	outStrides := outShape.ComputeStrides()
	srcStrides := src.ComputeStrides()
	lead := len(outShape) - len(src)
	for i := 0; i < n; i++ {
		rem := i
		off := 0
		for d := range outShape {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			sd := d - lead
			if sd < 0 || src[sd] == 1 {
				continue
			}
			off += coord * srcStrides[sd]
		}
		idx[i] = off
	}
	return idx
}

// broadcastsTo reports whether src can be broadcast to dst.
func broadcastsTo(src, dst tensor.Shape) bool {
	if len(src) > len(dst) {
		return false
	}
	lead := len(dst) - len(src)
	for i, d := range src {
		if d != 1 && d != dst[lead+i] {
			return false
		}
	}
	return true
}
