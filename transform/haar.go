package transform

import "math"

// StackTransform applies the orthonormal 1-D transform across the group
// axis (spec.md §4.5: "Apply a 1-D orthonormal Haar (or Walsh-Hadamard)
// transform across the N-axis"). The fast Walsh-Hadamard butterfly is used
// here; it is orthonormal and, once normalized by 1/sqrt(N), exactly
// self-inverse, so the same function serves both directions — applying it
// twice returns the original values up to floating-point rounding. This is
// the equivalence the spec calls out: "Hadamard is acceptable and
// equivalent up to coefficient ordering for our purposes."
//
// values must have power-of-two length; the block matcher (blockmatch
// package) guarantees this for every group it returns.
func StackTransform(values []float64) {
	n := len(values)
	if n <= 1 {
		return
	}
	for h := 1; h < n; h *= 2 {
		for i := 0; i < n; i += h * 2 {
			for j := i; j < i+h; j++ {
				x, y := values[j], values[j+h]
				values[j] = x + y
				values[j+h] = x - y
			}
		}
	}
	scale := 1 / math.Sqrt(float64(n))
	for i := range values {
		values[i] *= scale
	}
}

// InverseStackTransform undoes StackTransform. The transform is
// self-inverse, so this is provided as a named alias for readability at
// call sites rather than because the math differs.
func InverseStackTransform(values []float64) {
	StackTransform(values)
}
