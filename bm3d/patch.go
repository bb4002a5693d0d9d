package bm3d

// Patch is a B x B window of one channel's samples, anchored at its
// top-left coordinate. Immutable after extraction (spec.md §3).
type Patch struct {
	X, Y int
	B    int
	Data []float32 // row-major, len == B*B
}

// ExtractPatch reads a B x B block from plane (stride width) at (x, y).
// The caller must ensure 0 <= x <= width-B and 0 <= y <= height-B; this is
// guaranteed by the block matcher's window clamping (spec.md §4.3) so the
// hot loop below stays index-driven rather than bounds-checked per sample.
func ExtractPatch(plane []float32, width, x, y, b int) Patch {
	data := make([]float32, b*b)
	for row := 0; row < b; row++ {
		src := plane[(y+row)*width+x : (y+row)*width+x+b]
		copy(data[row*b:row*b+b], src)
	}
	return Patch{X: x, Y: y, B: b, Data: data}
}
