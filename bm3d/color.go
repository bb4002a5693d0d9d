package bm3d

// ImageRGB8 is the external 8-bit RGB representation accepted by Denoise.
// Samples are interleaved [R,G,B,R,G,B,...] row-major, matching the layout
// most image-decode collaborators hand back.
type ImageRGB8 struct {
	Width, Height int
	Pix           []uint8 // len == Width*Height*3
}

// NewImageRGB8 allocates a zeroed RGB8 image.
func NewImageRGB8(width, height int) *ImageRGB8 {
	return &ImageRGB8{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// ITU-R BT.601 luma/chroma coefficients, matching the conversion the
// collaborator contract in spec.md §4.1 requires. Unlike the integer
// approximation in original_source's src/color/ycbcr.rs, this operates in
// floating point over the full 0..255 domain with no head-room/footroom
// offset, so rgbToYCbCr and ycbcrToRGB invert each other exactly (up to
// float rounding), which the spec's Identity and Mix-linearity invariants
// require.
const (
	kr601 = 0.299
	kg601 = 0.587
	kb601 = 0.114
)

// rgbToYCbCr converts one BT.601 RGB triple (0..255) to Y/Cb/Cr (0..255,
// chroma centered at 128).
func rgbToYCbCr(r, g, b float32) (y, cb, cr float32) {
	y = kr601*r + kg601*g + kb601*b
	cb = (b-y)/(2*(1-kb601)) + 128
	cr = (r-y)/(2*(1-kr601)) + 128
	return y, cb, cr
}

// ycbcrToRGB is the exact inverse of rgbToYCbCr.
func ycbcrToRGB(y, cb, cr float32) (r, g, b float32) {
	r = y + (cr-128)*2*(1-kr601)
	b = y + (cb-128)*2*(1-kb601)
	g = (y - kr601*r - kb601*b) / kg601
	return r, g, b
}

// ToYCbCr converts an 8-bit RGB image into a working 3-plane float32
// PlanarImage (Y, Cb, Cr), per the collaborator contract in spec.md §4.1.
func ToYCbCr(img *ImageRGB8) *PlanarImage {
	out := NewPlanarImage(3, img.Width, img.Height)
	y, cb, cr := out.Plane(0), out.Plane(1), out.Plane(2)
	for i := 0; i < img.Width*img.Height; i++ {
		r := float32(img.Pix[i*3+0])
		g := float32(img.Pix[i*3+1])
		b := float32(img.Pix[i*3+2])
		yy, cbcb, crcr := rgbToYCbCr(r, g, b)
		y[i], cb[i], cr[i] = yy, cbcb, crcr
	}
	return out
}

// clamp255 clamps v to [0, 255].
func clamp255(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// FromYCbCr converts a working 3-plane float32 PlanarImage back to 8-bit
// RGB, clamping to the valid output range.
func FromYCbCr(img *PlanarImage) *ImageRGB8 {
	w, h := img.Dimensions()
	out := NewImageRGB8(w, h)
	y, cb, cr := img.Plane(0), img.Plane(1), img.Plane(2)
	for i := 0; i < w*h; i++ {
		r, g, b := ycbcrToRGB(y[i], cb[i], cr[i])
		out.Pix[i*3+0] = uint8(clamp255(r) + 0.5)
		out.Pix[i*3+1] = uint8(clamp255(g) + 0.5)
		out.Pix[i*3+2] = uint8(clamp255(b) + 0.5)
	}
	return out
}
