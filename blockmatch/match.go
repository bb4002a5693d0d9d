// Package blockmatch implements the block matcher (C3 in spec.md §4.3):
// for a reference anchor, find its K nearest neighbor patches inside a
// bounded search window under sum-of-squared-differences distance.
package blockmatch

import (
	"errors"
	"sort"
)

// ErrInvalidParameters is returned when the block size, window size or
// match limit make the search ill-defined (spec.md §4.3 "Failure").
var ErrInvalidParameters = errors.New("blockmatch: invalid parameters")

// Window is the clamped, axis-aligned search rectangle a reference anchor
// is matched within. Right/Bottom are the first out-of-range coordinate
// (exclusive), so a candidate top-left (x, y) is valid when
// x+B <= Right && y+B <= Bottom.
type Window struct {
	Left, Top, Right, Bottom int
}

// SearchWindow computes the Ws x Ws window centered on (rx, ry), clamped
// so it lies entirely inside [0, width) x [0, height). Clamping shifts the
// window rather than shrinking it, per spec.md §4.3 step 1.
func SearchWindow(width, height, rx, ry, ws int) (Window, error) {
	if ws > width || ws > height {
		return Window{}, ErrInvalidParameters
	}
	half := ws / 2
	left := rx - half
	top := ry - half
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	if left+ws > width {
		left = width - ws
	}
	if top+ws > height {
		top = height - ws
	}
	return Window{Left: left, Top: top, Right: left + ws, Bottom: top + ws}, nil
}

// Anchor is a matched patch location and its SSD distance to the
// reference. The reference itself always appears at distance 0.
type Anchor struct {
	X, Y int
	Dist float64
}

// FindNeighbors runs the block matcher for one reference anchor against a
// single channel plane (the luminance plane, per spec.md §4.3 step 2).
// Anchors are returned sorted by non-decreasing distance, reference first,
// with length rounded down to the nearest power of two not exceeding
// maxMatch (spec.md §4.3 steps 3-5).
func FindNeighbors(plane []float32, width, height, rx, ry, b, ws, maxMatch int, threshold float64) ([]Anchor, error) {
	if b >= ws || maxMatch < 1 {
		return nil, ErrInvalidParameters
	}
	win, err := SearchWindow(width, height, rx, ry, ws)
	if err != nil {
		return nil, err
	}

	ref := extract(plane, width, rx, ry, b)

	var candidates []Anchor
	for y := win.Top; y+b <= win.Bottom; y++ {
		for x := win.Left; x+b <= win.Right; x++ {
			if x == rx && y == ry {
				candidates = append(candidates, Anchor{X: x, Y: y, Dist: 0})
				continue
			}
			cand := extract(plane, width, x, y, b)
			d := ssd(ref, cand)
			if d < threshold {
				candidates = append(candidates, Anchor{X: x, Y: y, Dist: d})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, bb := candidates[i], candidates[j]
		if a.Dist != bb.Dist {
			return a.Dist < bb.Dist
		}
		if a.Y != bb.Y {
			return a.Y < bb.Y
		}
		return a.X < bb.X
	})

	// The reference must lead. Other candidates at distance 0 that come
	// earlier in raster order sort ahead of it, so move it to the front.
	refIdx := -1
	for i, a := range candidates {
		if a.X == rx && a.Y == ry {
			refIdx = i
			break
		}
	}
	if refIdx > 0 {
		candidates[0], candidates[refIdx] = candidates[refIdx], candidates[0]
		// Re-sort the remainder, keeping index 0 fixed.
		rest := candidates[1:]
		sort.SliceStable(rest, func(i, j int) bool {
			a, bb := rest[i], rest[j]
			if a.Dist != bb.Dist {
				return a.Dist < bb.Dist
			}
			if a.Y != bb.Y {
				return a.Y < bb.Y
			}
			return a.X < bb.X
		})
	}
	if refIdx == -1 {
		// Reference window candidate always valid; defensive fallback.
		candidates = append([]Anchor{{X: rx, Y: ry, Dist: 0}}, candidates...)
	}

	if len(candidates) > maxMatch {
		candidates = candidates[:maxMatch]
	}

	n := floorPowerOfTwo(len(candidates))
	if n < 1 {
		n = 1
	}
	return padToLength(candidates, n), nil
}

// padToLength truncates or duplicates the last element so the result has
// exactly n entries, never growing past len(candidates) unless padding
// (the reference is never moved by padding since it's always index 0 and
// n <= len(candidates) whenever len(candidates) is already a power of two).
func padToLength(candidates []Anchor, n int) []Anchor {
	if n <= len(candidates) {
		return candidates[:n]
	}
	out := make([]Anchor, n)
	copy(out, candidates)
	last := candidates[len(candidates)-1]
	for i := len(candidates); i < n; i++ {
		out[i] = last
	}
	return out
}

// floorPowerOfTwo returns the largest power of two <= n (n >= 1). With the
// nominal maxMatch of 16 this yields N in {1,2,4,8,16} per spec.md §4.3
// step 4; a larger maxMatch simply allows a larger power of two.
func floorPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

func extract(plane []float32, width, x, y, b int) []float32 {
	out := make([]float32, b*b)
	for row := 0; row < b; row++ {
		copy(out[row*b:row*b+b], plane[(y+row)*width+x:(y+row)*width+x+b])
	}
	return out
}
