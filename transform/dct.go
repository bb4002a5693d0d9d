// Package transform implements the numeric core of the collaborative
// filter (C2 and C5 in spec.md): a 2-D orthonormal DCT/iDCT on fixed-size
// square blocks, a 1-D Walsh-Hadamard transform across a stack of blocks, hard
// thresholding and per-coefficient Wiener shrinkage.
package transform

import "math"

// DCT2D is a precomputed orthonormal 2-D DCT-II / DCT-III transformer for
// a fixed block size B (spec.md §4.2). Building one amortizes the cosine
// table across many blocks of the same size, exactly the "implementers may
// precompute cosine tables" permission in the spec.
type DCT2D struct {
	b     int
	cos   [][]float64 // cos[k][n] = cos(pi*(2n+1)*k/(2B))
	alpha []float64   // per-frequency normalization, alpha[0]=1/sqrt(B), else sqrt(2/B)
}

// NewDCT2D builds a transformer for B x B blocks. B must be > 0; the
// pipeline driver only ever requests B in {4, 8} (spec.md §4.2) but the
// transform itself is not restricted to those sizes.
func NewDCT2D(b int) *DCT2D {
	t := &DCT2D{b: b}
	t.cos = make([][]float64, b)
	for k := 0; k < b; k++ {
		t.cos[k] = make([]float64, b)
		for n := 0; n < b; n++ {
			t.cos[k][n] = math.Cos(math.Pi * float64(2*n+1) * float64(k) / float64(2*b))
		}
	}
	t.alpha = make([]float64, b)
	for k := 0; k < b; k++ {
		if k == 0 {
			t.alpha[k] = math.Sqrt(1.0 / float64(b))
		} else {
			t.alpha[k] = math.Sqrt(2.0 / float64(b))
		}
	}
	return t
}

// BlockSize returns B.
func (t *DCT2D) BlockSize() int { return t.b }

// dct1D applies the orthonormal 1-D DCT-II to src (length B), writing into dst.
func (t *DCT2D) dct1D(src, dst []float64) {
	b := t.b
	for k := 0; k < b; k++ {
		var sum float64
		row := t.cos[k]
		for n := 0; n < b; n++ {
			sum += src[n] * row[n]
		}
		dst[k] = t.alpha[k] * sum
	}
}

// idct1D applies the orthonormal 1-D DCT-III (inverse) to src, writing
// into dst.
func (t *DCT2D) idct1D(src, dst []float64) {
	b := t.b
	for n := 0; n < b; n++ {
		var sum float64
		for k := 0; k < b; k++ {
			sum += t.alpha[k] * src[k] * t.cos[k][n]
		}
		dst[n] = sum
	}
}

// Forward applies the 2-D DCT-II to a B x B block (row-major, length B*B)
// in place: rows then columns (spec.md §4.2). Scratch buffers are
// allocated internally; use ForwardInto for hot loops that want to reuse
// buffers.
func (t *DCT2D) Forward(block []float64) {
	t.ForwardInto(block, block)
}

// ForwardInto computes the forward transform of src into dst. src and dst
// may be the same slice (in place) or distinct buffers, satisfying the
// "either direction must be computable either in-place ... or with
// explicit in/out buffers" contract in spec.md §4.2.
func (t *DCT2D) ForwardInto(src, dst []float64) {
	b := t.b
	tmp := make([]float64, b*b)
	row := make([]float64, b)
	out := make([]float64, b)
	// Rows.
	for y := 0; y < b; y++ {
		copy(row, src[y*b:y*b+b])
		t.dct1D(row, out)
		copy(tmp[y*b:y*b+b], out)
	}
	// Columns.
	col := make([]float64, b)
	for x := 0; x < b; x++ {
		for y := 0; y < b; y++ {
			col[y] = tmp[y*b+x]
		}
		t.dct1D(col, out)
		for y := 0; y < b; y++ {
			dst[y*b+x] = out[y]
		}
	}
}

// Inverse applies the 2-D iDCT (DCT-III) in place.
func (t *DCT2D) Inverse(block []float64) {
	t.InverseInto(block, block)
}

// InverseInto computes the inverse transform of src into dst.
func (t *DCT2D) InverseInto(src, dst []float64) {
	b := t.b
	tmp := make([]float64, b*b)
	col := make([]float64, b)
	out := make([]float64, b)
	// Columns first (inverse of forward's row-then-column order).
	for x := 0; x < b; x++ {
		for y := 0; y < b; y++ {
			col[y] = src[y*b+x]
		}
		t.idct1D(col, out)
		for y := 0; y < b; y++ {
			tmp[y*b+x] = out[y]
		}
	}
	// Rows.
	row := make([]float64, b)
	for y := 0; y < b; y++ {
		copy(row, tmp[y*b:y*b+b])
		t.idct1D(row, out)
		copy(dst[y*b:y*b+b], out)
	}
}
