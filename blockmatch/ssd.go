package blockmatch

// ssd computes the sum of squared differences between two equal-length
// patches (spec.md §4.3 step 2, Glossary "SSD"). The per-architecture
// kernel below is loop-unrolled for throughput, matching the batch-processing
// style of internal/predictor in the teacher repo.
func ssd(a, b []float32) float64 {
	return ssdKernel(a, b)
}
