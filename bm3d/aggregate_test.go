package bm3d

import "testing"

func TestAccumulatorAddAndFinalize(t *testing.T) {
	acc := NewAccumulator(4, 4)
	patch := []float64{10, 20, 30, 40}
	acc.Add(0, 0, 2, patch, 1.0, nil)

	out := make([]float32, 16)
	acc.Finalize(out)

	want := []float32{10, 20, 0, 0, 30, 40, 0, 0}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %v, want %v", i, out[i], w)
		}
	}
}

func TestAccumulatorUncoveredPixelsUnchanged(t *testing.T) {
	acc := NewAccumulator(2, 2)
	out := []float32{9, 9, 9, 9}
	acc.Finalize(out)

	for i, v := range out {
		if v != 9 {
			t.Errorf("out[%d] = %v, want unchanged 9 (zero denominator)", i, v)
		}
	}
}

func TestAccumulatorMergesWeightedAverage(t *testing.T) {
	a := NewAccumulator(1, 1)
	b := NewAccumulator(1, 1)
	a.Add(0, 0, 1, []float64{10}, 1.0, nil)
	b.Add(0, 0, 1, []float64{30}, 1.0, nil)
	a.Merge(b)

	out := make([]float32, 1)
	a.Finalize(out)
	if out[0] != 20 {
		t.Errorf("out[0] = %v, want 20 (average of 10 and 30)", out[0])
	}
}

func TestKaiserWindowForZeroBetaIsFlat(t *testing.T) {
	if w := kaiserWindowFor(8, 0); w != nil {
		t.Errorf("kaiserWindowFor(8, 0) = %v, want nil (flat window)", w)
	}
}

func TestKaiserWindowForPositiveBetaHasPeakAtCenter(t *testing.T) {
	w := kaiserWindowFor(9, 2.0)
	if w == nil {
		t.Fatal("kaiserWindowFor(9, 2.0) = nil, want a window")
	}
	center := w[4*9+4]
	corner := w[0]
	if center <= corner {
		t.Errorf("center weight %v should exceed corner weight %v", center, corner)
	}
}
