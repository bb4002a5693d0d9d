package bm3d

import "github.com/mrjoshuak/go-bm3d/transform"

// Accumulator holds the numerator/denominator pair used for weighted
// overlap-add aggregation (spec.md §3 "Accumulator", §4.6). It is
// writer-exclusive per region; the driver gives each worker its own
// shadow Accumulator and reduces them at the end of a pass (spec.md §5).
type Accumulator struct {
	width, height int
	num, den      []float64
}

// NewAccumulator allocates a zeroed accumulator for a width x height plane.
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{width: width, height: height, num: make([]float64, width*height), den: make([]float64, width*height)}
}

// Add folds one reconstructed B x B patch at anchor (x, y) into the
// accumulator with group weight w and a B*B Kaiser taper k (spec.md §4.6).
// A nil kaiser is treated as the all-ones window (the "Implementers may
// omit Kaiser weighting" baseline).
func (a *Accumulator) Add(x, y, b int, patch []float64, w float64, kaiser []float64) {
	for i := 0; i < b; i++ {
		rowOff := (y + i) * a.width
		for j := 0; j < b; j++ {
			k := 1.0
			if kaiser != nil {
				k = kaiser[i*b+j]
			}
			idx := rowOff + x + j
			v := patch[i*b+j]
			a.num[idx] += w * k * v
			a.den[idx] += w * k
		}
	}
}

// Merge adds other's numerator/denominator into a. Used to reduce
// per-thread shadow accumulators at the end of a pass (spec.md §5).
func (a *Accumulator) Merge(other *Accumulator) {
	for i := range a.num {
		a.num[i] += other.num[i]
		a.den[i] += other.den[i]
	}
}

// Finalize divides numerator by denominator wherever denominator > 0,
// clamps to [0, 255], and writes the result into out (row-major,
// width*height). Positions with zero denominator are left at out's
// existing value (the caller should pre-seed out with the noisy input so
// uncovered pixels pass through unchanged). spec.md §3's aggregation
// invariant requires every pixel covered by a reference block to have
// denominator > 0 whenever step <= block_size; anchorGrid (denoise.go)
// is what actually guarantees that by including the right/bottom
// boundary anchors the stride might otherwise skip.
func (a *Accumulator) Finalize(out []float32) {
	for i := range a.num {
		if a.den[i] > 0 {
			out[i] = clamp255(float32(a.num[i] / a.den[i]))
		}
	}
}

// kaiserWindowFor returns the B*B Kaiser taper for the given block size
// and beta, or nil if beta is zero (the "omit Kaiser weighting" baseline
// permitted by spec.md §4.6).
func kaiserWindowFor(b int, beta float64) []float64 {
	if beta <= 0 {
		return nil
	}
	return transform.KaiserWindow2D(b, beta)
}
