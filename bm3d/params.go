package bm3d

// Params is the typed configuration record for a denoise run. It replaces
// the tagged dynamic parameter map described in the source material (see
// spec.md Design Notes §9): one field per parameter, defaults supplied by
// DefaultParams, validated once at the start of Denoise.
type Params struct {
	// Sigma is the estimated noise standard deviation, in the same units
	// as pixel samples (nominally 0..255). Must be > 0.
	Sigma float64

	// BlockSize is the square patch side B. Must be 4 or 8.
	BlockSize int

	// WindowSize is the search window side Ws. Must be odd and > BlockSize.
	WindowSize int

	// Step is the raster stride between reference anchors, 1 <= Step <= BlockSize.
	Step int

	// MaxMatch is the hard limit on group size K, rounded down to a power
	// of two by the block matcher.
	MaxMatch int

	// Lambda2D is reserved for a per-layer 2-D hard-threshold pass. The
	// mandated algorithm (spec.md §4.5) only defines the 3-D threshold;
	// Lambda2D is plumbed through for forward compatibility with
	// implementations that add an early 2-D shrinkage step, but the
	// collaborative filter in this package does not apply it.
	Lambda2D float64

	// Lambda3D scales Sigma to produce the hard-threshold cutoff T = Lambda3D * Sigma.
	Lambda3D float64

	// KaiserBeta parameterizes the aggregation window (spec.md §4.6).
	KaiserBeta float64

	// LuminanceOnly, when true, denoises only the Y channel and copies
	// chroma through unmodified.
	LuminanceOnly bool

	// Mix blends the final output with the original noisy input:
	// out = (1-Mix)*noisy + Mix*denoised. Must be in [0, 1].
	Mix float64
}

// DefaultParams returns the nominal parameter set from spec.md §4.
func DefaultParams() Params {
	return Params{
		Sigma:         25,
		BlockSize:     8,
		WindowSize:    39,
		Step:          3,
		MaxMatch:      16,
		Lambda2D:      0,
		Lambda3D:      2.7,
		KaiserBeta:    2.0,
		LuminanceOnly: false,
		Mix:           1.0,
	}
}

// Validate checks every parameter before any work begins, per the
// "detect at entry" propagation policy in spec.md §7. The first violation
// found is returned as a *ConfigurationError.
func (p Params) Validate() error {
	if p.Sigma <= 0 {
		return &ConfigurationError{Param: "sigma", Reason: "must be > 0"}
	}
	if p.BlockSize != 4 && p.BlockSize != 8 {
		return &ConfigurationError{Param: "block_size", Reason: "must be 4 or 8"}
	}
	if p.WindowSize <= p.BlockSize {
		return &ConfigurationError{Param: "window_size", Reason: "must be greater than block_size"}
	}
	if p.WindowSize%2 == 0 {
		return &ConfigurationError{Param: "window_size", Reason: "must be odd"}
	}
	if p.Step < 1 || p.Step > p.BlockSize {
		return &ConfigurationError{Param: "step", Reason: "must be in [1, block_size]"}
	}
	if p.MaxMatch < 1 {
		return &ConfigurationError{Param: "max_match", Reason: "must be >= 1"}
	}
	if p.Lambda3D <= 0 {
		return &ConfigurationError{Param: "lambda_3d", Reason: "must be > 0"}
	}
	if p.KaiserBeta < 0 {
		return &ConfigurationError{Param: "kaiser_beta", Reason: "must be >= 0"}
	}
	if p.Mix < 0 || p.Mix > 1 {
		return &ConfigurationError{Param: "mix", Reason: "must be in [0, 1]"}
	}
	return nil
}

// matchThreshold1 returns the pass-1 (hard-thresholding) SSD match
// threshold τ1, nominally 2500*B²/64 (spec.md §4.3).
func (p Params) matchThreshold1() float64 {
	b2 := float64(p.BlockSize * p.BlockSize)
	return 2500 * b2 / 64
}

// matchThreshold2 returns the pass-2 (Wiener) SSD match threshold τ2,
// nominally 400*B²/64 (spec.md §4.3).
func (p Params) matchThreshold2() float64 {
	b2 := float64(p.BlockSize * p.BlockSize)
	return 400 * b2 / 64
}
