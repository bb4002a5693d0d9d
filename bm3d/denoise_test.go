package bm3d

import (
	"io"
	"math/rand"
	"testing"
)

func solidGray(size int, v uint8) *ImageRGB8 {
	img := NewImageRGB8(size, size)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestDenoiseConstantImageIsUnchanged(t *testing.T) {
	img := solidGray(48, 128)

	out, err := Denoise(img, 15, DefaultParams())
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}

	for i, v := range out.Pix {
		if diff := int(v) - int(img.Pix[i]); diff > 1 || diff < -1 {
			t.Errorf("Pix[%d] = %d, want ~%d on a constant image", i, v, img.Pix[i])
		}
	}
}

func TestDenoiseReducesNoiseOnGradient(t *testing.T) {
	size := 64
	clean := NewImageRGB8(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(x * 255 / size)
			i := (y*size + x) * 3
			clean.Pix[i+0], clean.Pix[i+1], clean.Pix[i+2] = v, v, v
		}
	}

	rng := rand.New(rand.NewSource(1))
	sigma := 20.0
	noisy := NewImageRGB8(size, size)
	for i, v := range clean.Pix {
		n := rng.NormFloat64() * sigma
		noisy.Pix[i] = uint8(clamp255(float32(float64(v) + n)))
	}

	out, err := Denoise(noisy, sigma, DefaultParams())
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}

	if mse(out.Pix, clean.Pix) >= mse(noisy.Pix, clean.Pix) {
		t.Errorf("denoised MSE (%v) should be lower than noisy MSE (%v)",
			mse(out.Pix, clean.Pix), mse(noisy.Pix, clean.Pix))
	}
}

func mse(a, b []uint8) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum / float64(len(a))
}

func TestDenoiseMixZeroReturnsInputUnchanged(t *testing.T) {
	img := solidGray(32, 200)
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 7) % 256)
	}

	params := DefaultParams()
	params.Mix = 0
	params.WindowSize = 21 // the default 39 exceeds this 32x32 image

	out, err := Denoise(img, 25, params)
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}
	for i, v := range out.Pix {
		if v != img.Pix[i] {
			t.Errorf("Pix[%d] = %d, want %d unchanged at mix=0", i, v, img.Pix[i])
		}
	}
}

func TestDenoiseLuminanceOnlyLeavesChromaUnchanged(t *testing.T) {
	size := 32
	img := NewImageRGB8(size, size)
	rng := rand.New(rand.NewSource(2))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}

	params := DefaultParams()
	params.LuminanceOnly = true
	params.WindowSize = 21 // the default 39 exceeds this 32x32 image

	// Compare chroma at the Y/Cb/Cr plane level, before FromYCbCr quantizes
	// back to 8-bit RGB: once Y is denoised, re-deriving Cb/Cr from the
	// rounded RGB8 output perturbs them even though the planar chroma the
	// pipeline actually produced was left untouched.
	working, final, err := denoisePlanar(img, 10, params, nil, nil)
	if err != nil {
		t.Fatalf("denoisePlanar() error = %v", err)
	}

	for i := range working.Plane(1) {
		if working.Plane(1)[i] != final.Plane(1)[i] {
			t.Fatalf("Cb changed at %d despite luminance_only", i)
		}
		if working.Plane(2)[i] != final.Plane(2)[i] {
			t.Fatalf("Cr changed at %d despite luminance_only", i)
		}
	}
}

func TestDenoiseRejectsWindowLargerThanImage(t *testing.T) {
	img := solidGray(16, 128)
	params := DefaultParams()
	params.WindowSize = 39 // exceeds the 16x16 image

	_, err := Denoise(img, 10, params)
	var cfgErr *ConfigurationError
	if err == nil {
		t.Fatal("Denoise() error = nil, want ConfigurationError")
	}
	if ok := errorsAsConfig(err, &cfgErr); !ok {
		t.Errorf("Denoise() error = %v, want *ConfigurationError", err)
	}
}

func TestDenoiseRejectsInvalidSigma(t *testing.T) {
	img := solidGray(16, 128)
	_, err := Denoise(img, 0, DefaultParams())
	if err == nil {
		t.Fatal("Denoise() error = nil, want error for sigma = 0")
	}
}

func TestDenoiseCancellationReturnsCancellationError(t *testing.T) {
	img := solidGray(64, 128)
	cancel := &CancelToken{}
	cancel.Cancel()

	_, err := DenoiseCancellable(img, 15, DefaultParams(), cancel)
	var cancelErr *CancellationError
	if err == nil {
		t.Fatal("DenoiseCancellable() error = nil, want CancellationError")
	}
	if ok := errorsAsCancellation(err, &cancelErr); !ok {
		t.Errorf("DenoiseCancellable() error = %v, want *CancellationError", err)
	}
}

func TestAnchorGridCoversRasterStride(t *testing.T) {
	anchors := anchorGrid(10, 10, 4, 3)
	if len(anchors) == 0 {
		t.Fatal("anchorGrid() returned no anchors")
	}
	for _, a := range anchors {
		if a.x+4 > 10 || a.y+4 > 10 {
			t.Errorf("anchor %+v exceeds image bounds", a)
		}
	}
	// The stride 3 lands on 0, 3, 6 and 6 == 10-4, so those are the grid.
	seen := make(map[anchorXY]bool, len(anchors))
	for _, a := range anchors {
		seen[a] = true
	}
	for _, y := range []int{0, 3, 6} {
		for _, x := range []int{0, 3, 6} {
			if !seen[anchorXY{x, y}] {
				t.Errorf("anchorGrid() is missing stride anchor (%d,%d)", x, y)
			}
		}
	}
}

// anchorGrid must reach every reference block whose top-left coordinate is
// a multiple of step, plus the right/bottom boundary block, so that every
// pixel, including the edge strip the stride alone would skip, is covered
// by at least one reference block (spec.md §8: "every output pixel has
// denominator > 0" whenever step <= block_size).
func TestAnchorGridCoversImageBoundary(t *testing.T) {
	width, height, b, step := 64, 64, 8, 3
	anchors := anchorGrid(width, height, b, step)

	covered := make([]bool, width*height)
	for _, a := range anchors {
		for dy := 0; dy < b; dy++ {
			for dx := 0; dx < b; dx++ {
				covered[(a.y+dy)*width+(a.x+dx)] = true
			}
		}
	}
	for i, c := range covered {
		if !c {
			t.Fatalf("pixel %d (x=%d y=%d) is covered by no reference block; "+
				"64x64/step=3/block=8 leaves a gap unless anchorGrid adds the boundary anchors",
				i, i%width, i/width)
		}
	}

	lastX, lastY := width-b, height-b
	var sawLastX, sawLastY bool
	for _, a := range anchors {
		if a.x == lastX {
			sawLastX = true
		}
		if a.y == lastY {
			sawLastY = true
		}
	}
	if !sawLastX {
		t.Errorf("anchorGrid() never emits the right-boundary anchor x=%d", lastX)
	}
	if !sawLastY {
		t.Errorf("anchorGrid() never emits the bottom-boundary anchor y=%d", lastY)
	}
}

func errorsAsConfig(err error, target **ConfigurationError) bool {
	for err != nil {
		if ce, ok := err.(*ConfigurationError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func errorsAsCancellation(err error, target **CancellationError) bool {
	for err != nil {
		if ce, ok := err.(*CancellationError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestDenoiseTracedEmitsEvents(t *testing.T) {
	img := solidGray(24, 128)
	var buf tracedBuffer

	params := DefaultParams()
	params.WindowSize = 21 // the default 39 exceeds this 24x24 image

	trace := NewTraceWriter(&buf)
	if _, err := DenoiseTraced(img, 15, params, nil, trace); err != nil {
		t.Fatalf("DenoiseTraced() error = %v", err)
	}
	if err := trace.Close(); err != nil {
		t.Fatalf("trace.Close() error = %v", err)
	}

	events, err := ReadTraceEvents(&buf)
	if err != nil {
		t.Fatalf("ReadTraceEvents() error = %v", err)
	}
	if len(events) == 0 {
		t.Fatal("ReadTraceEvents() returned no events")
	}
	for _, ev := range events {
		if ev.Pass != 1 && ev.Pass != 2 {
			t.Errorf("event pass = %d, want 1 or 2", ev.Pass)
		}
		if ev.GroupSize < 1 {
			t.Errorf("event group size = %d, want >= 1", ev.GroupSize)
		}
	}
}

// tracedBuffer is a minimal in-memory io.ReadWriter, since bytes.Buffer
// would pull in a package not otherwise exercised by this file.
type tracedBuffer struct {
	data []byte
	pos  int
}

func (b *tracedBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *tracedBuffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
