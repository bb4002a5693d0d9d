package transform

// epsilon guards against division by zero when a group's retained
// coefficient count, or its summed Wiener gain, is zero (spec.md §4.5).
const epsilon = 1e-10

// HardThreshold3D applies the pass-1 collaborative filter (spec.md §4.5
// "Hard-thresholding mode") to a stack of N same-size patches: 2-D DCT per
// layer, a 1-D orthonormal transform across the stack, hard thresholding
// at T = lambda3D*sigma, then the inverse of both transforms. It returns
// the N reconstructed layers (row-major, length B*B each) and the scalar
// aggregation weight w = 1/max(R,1) * 1/sigma^2, where R is the number of
// retained (non-zeroed) coefficients.
func HardThreshold3D(dct *DCT2D, group [][]float32, sigma, lambda3D float64) ([][]float64, float64) {
	n := len(group)
	b := dct.BlockSize()
	b2 := b * b

	coeffs := make([][]float64, n)
	for i, patch := range group {
		src := make([]float64, b2)
		for j, v := range patch {
			src[j] = float64(v)
		}
		dct.Forward(src)
		coeffs[i] = src
	}

	threshold := lambda3D * sigma
	retained := 0
	stack := make([]float64, n)
	for pos := 0; pos < b2; pos++ {
		for i := 0; i < n; i++ {
			stack[i] = coeffs[i][pos]
		}
		StackTransform(stack)
		for i := 0; i < n; i++ {
			if abs(stack[i]) < threshold {
				stack[i] = 0
			} else {
				retained++
			}
		}
		InverseStackTransform(stack)
		for i := 0; i < n; i++ {
			coeffs[i][pos] = stack[i]
		}
	}

	out := make([][]float64, n)
	for i, c := range coeffs {
		dct.Inverse(c)
		out[i] = c
	}

	weight := epsilon
	if retained > 0 {
		weight = 1 / float64(retained) / (sigma * sigma)
	}
	return out, weight
}

// Wiener3D applies the pass-2 collaborative filter (spec.md §4.5 "Wiener
// mode") to two aligned groups — one from the noisy image, one from the
// basic estimate — returning the N reconstructed noisy-image layers and
// the aggregation weight w = 1/(sigma^2 * sum(g^2)).
func Wiener3D(dct *DCT2D, noisyGroup, basicGroup [][]float32, sigma float64) ([][]float64, float64) {
	n := len(noisyGroup)
	b := dct.BlockSize()
	b2 := b * b

	noisyCoeffs := transformGroup(dct, noisyGroup)
	basicCoeffs := transformGroup(dct, basicGroup)

	stackNoisy := make([]float64, n)
	stackBasic := make([]float64, n)
	sigma2 := sigma * sigma
	var sumG2 float64
	for pos := 0; pos < b2; pos++ {
		for i := 0; i < n; i++ {
			stackNoisy[i] = noisyCoeffs[i][pos]
			stackBasic[i] = basicCoeffs[i][pos]
		}
		StackTransform(stackNoisy)
		StackTransform(stackBasic)
		for i := 0; i < n; i++ {
			c2 := stackBasic[i] * stackBasic[i]
			g := c2 / (c2 + sigma2)
			stackNoisy[i] *= g
			sumG2 += g * g
		}
		InverseStackTransform(stackNoisy)
		for i := 0; i < n; i++ {
			noisyCoeffs[i][pos] = stackNoisy[i]
		}
	}

	out := make([][]float64, n)
	for i, c := range noisyCoeffs {
		dct.Inverse(c)
		out[i] = c
	}

	weight := epsilon
	if sumG2 > 0 {
		weight = 1 / (sigma2 * sumG2)
	}
	return out, weight
}

func transformGroup(dct *DCT2D, group [][]float32) [][]float64 {
	b2 := dct.BlockSize() * dct.BlockSize()
	out := make([][]float64, len(group))
	for i, patch := range group {
		src := make([]float64, b2)
		for j, v := range patch {
			src[j] = float64(v)
		}
		dct.Forward(src)
		out[i] = src
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
