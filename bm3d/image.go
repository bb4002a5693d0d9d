// Package bm3d implements Block-Matching and 3D Filtering, a collaborative
// image denoiser, following the pipeline in spec.md: a hard-thresholding
// pass producing a basic estimate, then a Wiener pass refining it.
package bm3d

// PlanarImage is a planar float32 image buffer (C1). Each channel is held
// as an independent contiguous row-major plane so that block extraction
// never has to stride across interleaved samples.
type PlanarImage struct {
	width, height int
	planes        [][]float32
}

// NewPlanarImage allocates a zeroed image with the given number of
// channels, width and height.
func NewPlanarImage(numChannels, width, height int) *PlanarImage {
	planes := make([][]float32, numChannels)
	for i := range planes {
		planes[i] = make([]float32, width*height)
	}
	return &PlanarImage{width: width, height: height, planes: planes}
}

// Dimensions returns (width, height).
func (img *PlanarImage) Dimensions() (int, int) {
	return img.width, img.height
}

// Channels returns the planar float arrays backing each channel. Callers
// may read and write them directly; the slice header itself is not a copy.
func (img *PlanarImage) Channels() [][]float32 {
	return img.planes
}

// Plane returns the c-th channel plane.
func (img *PlanarImage) Plane(c int) []float32 {
	return img.planes[c]
}

// Get returns the sample at (c, x, y). There is no separate bounds check
// beyond Go's own slice indexing; callers in hot loops index planes
// directly (see patch.go) and this accessor exists for convenience/tests.
func (img *PlanarImage) Get(c, x, y int) float32 {
	return img.planes[c][y*img.width+x]
}

// Set stores v at (c, x, y).
func (img *PlanarImage) Set(c, x, y int, v float32) {
	img.planes[c][y*img.width+x] = v
}

// NumChannels returns the number of planes.
func (img *PlanarImage) NumChannels() int {
	return len(img.planes)
}

// Clone returns a deep copy of the image.
func (img *PlanarImage) Clone() *PlanarImage {
	out := NewPlanarImage(len(img.planes), img.width, img.height)
	for i, p := range img.planes {
		copy(out.planes[i], p)
	}
	return out
}
