package bm3d

import (
	"sync"

	"github.com/mrjoshuak/go-bm3d/blockmatch"
	"github.com/mrjoshuak/go-bm3d/transform"
)

// Denoise is the library entry point (spec.md §6): given an 8-bit RGB
// image and a noise estimate, it runs the two-pass BM3D pipeline (C1-C7)
// and returns a denoised image of the same dimensions.
func Denoise(input *ImageRGB8, sigma float64, params Params) (*ImageRGB8, error) {
	return DenoiseCancellable(input, sigma, params, nil)
}

// DenoiseCancellable is Denoise with an optional cooperative cancellation
// token (spec.md §5). If cancel fires between reference anchors, the
// accumulators for the in-flight pass are discarded and a
// *CancellationError is returned; no output is produced.
func DenoiseCancellable(input *ImageRGB8, sigma float64, params Params, cancel *CancelToken) (*ImageRGB8, error) {
	return DenoiseTraced(input, sigma, params, cancel, nil)
}

// DenoiseTraced is DenoiseCancellable with an optional diagnostic sink: if
// trace is non-nil, every reference anchor's group size and aggregation
// weight is recorded for both passes (see TraceWriter).
func DenoiseTraced(input *ImageRGB8, sigma float64, params Params, cancel *CancelToken, trace *TraceWriter) (*ImageRGB8, error) {
	_, final, err := denoisePlanar(input, sigma, params, cancel, trace)
	if err != nil {
		return nil, err
	}
	return FromYCbCr(final), nil
}

// denoisePlanar runs the full two-pass pipeline and returns the working
// (Y/Cb/Cr) input alongside the final Y/Cb/Cr estimate, before either is
// quantized back to 8-bit RGB. Exposed internally so that planar-level
// invariants (e.g. "luminance_only leaves chroma untouched") can be
// checked exactly, without the rounding FromYCbCr/uint8 conversion
// introduces.
func denoisePlanar(input *ImageRGB8, sigma float64, params Params, cancel *CancelToken, trace *TraceWriter) (working, final *PlanarImage, err error) {
	params.Sigma = sigma
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	working = ToYCbCr(input)
	width, height := working.Dimensions()

	if minDim := min(width, height); params.WindowSize > minDim {
		return nil, nil, &ConfigurationError{Param: "window_size", Reason: "must not exceed the smaller image dimension"}
	}

	activeChannels := []int{0}
	if !params.LuminanceOnly {
		activeChannels = append(activeChannels, 1, 2)
	}

	dct := transform.NewDCT2D(params.BlockSize)
	kaiser := kaiserWindowFor(params.BlockSize, params.KaiserBeta)

	anchors := anchorGrid(width, height, params.BlockSize, params.Step)

	var traceMu sync.Mutex
	emitTrace := func(pass, x, y, groupSize int, weight float64) {
		if trace == nil {
			return
		}
		traceMu.Lock()
		defer traceMu.Unlock()
		_ = trace.Write(TraceEvent{Pass: pass, X: x, Y: y, GroupSize: groupSize, Weight: weight})
	}

	// Pass 1: hard thresholding against the noisy image itself.
	basic := working.Clone()
	pass1Accs, err := runPass(anchors, cancel, 1, func(a anchorXY, acc map[int]*Accumulator) {
		refPlane := working.Plane(0)
		neighbors, nerr := blockmatch.FindNeighbors(refPlane, width, height, a.x, a.y,
			params.BlockSize, params.WindowSize, params.MaxMatch, params.matchThreshold1())
		if nerr != nil {
			return
		}
		var lastWeight float64
		for _, c := range activeChannels {
			group := formGroup(working.Plane(c), width, params.BlockSize, neighbors)
			recon, weight := transform.HardThreshold3D(dct, group.Patches, params.Sigma, params.Lambda3D)
			for i, anch := range neighbors {
				acc[c].Add(anch.X, anch.Y, params.BlockSize, recon[i], weight, kaiser)
			}
			if c == 0 {
				lastWeight = weight
			}
		}
		emitTrace(1, a.x, a.y, len(neighbors), lastWeight)
	}, activeChannels, width, height)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range activeChannels {
		pass1Accs[c].Finalize(basic.Plane(c))
	}

	// Pass 2: Wiener filtering guided by the basic estimate.
	final = working.Clone()
	pass2Accs, err := runPass(anchors, cancel, 2, func(a anchorXY, acc map[int]*Accumulator) {
		refPlane := basic.Plane(0)
		neighbors, nerr := blockmatch.FindNeighbors(refPlane, width, height, a.x, a.y,
			params.BlockSize, params.WindowSize, params.MaxMatch, params.matchThreshold2())
		if nerr != nil {
			return
		}
		var lastWeight float64
		for _, c := range activeChannels {
			noisyGroup := formGroup(working.Plane(c), width, params.BlockSize, neighbors)
			basicGroup := formGroup(basic.Plane(c), width, params.BlockSize, neighbors)
			recon, weight := transform.Wiener3D(dct, noisyGroup.Patches, basicGroup.Patches, params.Sigma)
			for i, anch := range neighbors {
				acc[c].Add(anch.X, anch.Y, params.BlockSize, recon[i], weight, kaiser)
			}
			if c == 0 {
				lastWeight = weight
			}
		}
		emitTrace(2, a.x, a.y, len(neighbors), lastWeight)
	}, activeChannels, width, height)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range activeChannels {
		pass2Accs[c].Finalize(final.Plane(c))
	}

	applyMix(working, final, params.Mix)

	return working, final, nil
}

// anchorXY is one reference position on the stride grid.
type anchorXY struct{ x, y int }

// anchorGrid builds the raster stride grid of reference anchors (spec.md
// §4.7 step 2a: "x ∈ 0, step, 2·step, … ≤ W−B; y similarly"), plus the
// right/bottom boundary anchors at W−B and H−B whenever the stride doesn't
// already land on them. Without those boundary anchors, the last strip of
// columns/rows (width (W−B) mod step wide) is reachable only incidentally
// through neighbor matches from interior reference blocks, which does not
// guarantee the "every output pixel has denominator > 0" invariant
// (spec.md §8) when step <= block_size.
func anchorGrid(width, height, b, step int) []anchorXY {
	xs := strideCoords(width, b, step)
	ys := strideCoords(height, b, step)
	out := make([]anchorXY, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			out = append(out, anchorXY{x, y})
		}
	}
	return out
}

// strideCoords returns 0, step, 2*step, ... up to and including extent-b,
// always including extent-b itself even when the stride doesn't land on it.
func strideCoords(extent, b, step int) []int {
	last := extent - b
	if last < 0 {
		return nil
	}
	var coords []int
	for c := 0; c <= last; c += step {
		coords = append(coords, c)
	}
	if coords[len(coords)-1] != last {
		coords = append(coords, last)
	}
	return coords
}

// runPass partitions the anchor list across a work-stealing-sized worker
// pool (spec.md §5) via ParallelForWorkers, giving each worker its own
// shadow accumulators (indexed by the worker id ParallelForWorkers assigns
// it) and merging them in worker-index order at the end — the "per-thread
// shadow buffers reduced once" discipline spec.md §5 recommends for
// reproducibility. Cancellation is polled between anchors; if it fires,
// the in-flight pass's accumulators are discarded and a *CancellationError
// is returned.
func runPass(anchors []anchorXY, cancel *CancelToken, passNum int,
	work func(a anchorXY, acc map[int]*Accumulator), channels []int, width, height int) (map[int]*Accumulator, error) {

	numWorkers := effectiveWorkers(GetParallelConfig())
	if numWorkers > len(anchors) {
		numWorkers = len(anchors)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	shadows := make([]map[int]*Accumulator, numWorkers)
	for w := range shadows {
		shadows[w] = newAccumulatorSet(channels, width, height)
	}

	ok := ParallelForWorkers(len(anchors), cancel, func(worker, i int) {
		work(anchors[i], shadows[worker])
	})
	if !ok {
		return nil, &CancellationError{Pass: passNum}
	}

	merged := newAccumulatorSet(channels, width, height)
	for _, shadow := range shadows {
		for _, c := range channels {
			merged[c].Merge(shadow[c])
		}
	}
	return merged, nil
}

func newAccumulatorSet(channels []int, width, height int) map[int]*Accumulator {
	m := make(map[int]*Accumulator, len(channels))
	for _, c := range channels {
		m[c] = NewAccumulator(width, height)
	}
	return m
}

// applyMix blends final toward noisy by (1-mix), per spec.md §4.7
// "mix: blend factor in [0,1] ... out = (1-mix)·noisy + mix·denoised".
// Channels that were never denoised already equal noisy, so blending them
// is a no-op; this still satisfies the "Luminance-only pass-through" law
// exactly since (1-mix)*v + mix*v == v regardless of mix.
func applyMix(noisy, final *PlanarImage, mix float64) {
	if mix == 1 {
		return
	}
	for c := 0; c < final.NumChannels(); c++ {
		nf, ff := noisy.Plane(c), final.Plane(c)
		for i := range ff {
			ff[i] = float32((1-mix)*float64(nf[i]) + mix*float64(ff[i]))
		}
	}
}
