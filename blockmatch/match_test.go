package blockmatch

import "testing"

func constantPlane(width, height int, v float32) []float32 {
	plane := make([]float32, width*height)
	for i := range plane {
		plane[i] = v
	}
	return plane
}

func TestFindNeighborsReferenceLeadsAtZeroDistance(t *testing.T) {
	plane := constantPlane(32, 32, 100)
	neighbors, err := FindNeighbors(plane, 32, 32, 16, 16, 8, 21, 16, 2500)
	if err != nil {
		t.Fatalf("FindNeighbors() error = %v", err)
	}
	if len(neighbors) == 0 {
		t.Fatal("FindNeighbors() returned no matches")
	}
	if neighbors[0].X != 16 || neighbors[0].Y != 16 || neighbors[0].Dist != 0 {
		t.Errorf("neighbors[0] = %+v, want reference at (16,16) distance 0", neighbors[0])
	}
}

func TestFindNeighborsSortedNonDecreasing(t *testing.T) {
	plane := make([]float32, 32*32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			plane[y*32+x] = float32((x + y) % 13)
		}
	}
	neighbors, err := FindNeighbors(plane, 32, 32, 16, 16, 8, 21, 16, 1e6)
	if err != nil {
		t.Fatalf("FindNeighbors() error = %v", err)
	}
	for i := 1; i < len(neighbors); i++ {
		if neighbors[i].Dist < neighbors[i-1].Dist {
			t.Errorf("neighbors[%d].Dist = %v < neighbors[%d].Dist = %v, want non-decreasing",
				i, neighbors[i].Dist, i-1, neighbors[i-1].Dist)
		}
	}
}

func TestFindNeighborsLengthIsPowerOfTwo(t *testing.T) {
	plane := constantPlane(32, 32, 50)
	neighbors, err := FindNeighbors(plane, 32, 32, 16, 16, 8, 21, 16, 2500)
	if err != nil {
		t.Fatalf("FindNeighbors() error = %v", err)
	}
	n := len(neighbors)
	if n == 0 || n&(n-1) != 0 {
		t.Errorf("len(neighbors) = %d, want a power of two", n)
	}
}

func TestFindNeighborsRespectsMaxMatch(t *testing.T) {
	plane := constantPlane(48, 48, 50)
	neighbors, err := FindNeighbors(plane, 48, 48, 24, 24, 8, 39, 4, 1e6)
	if err != nil {
		t.Fatalf("FindNeighbors() error = %v", err)
	}
	if len(neighbors) > 4 {
		t.Errorf("len(neighbors) = %d, want <= 4", len(neighbors))
	}
}

func TestFindNeighborsRejectsBlockNotSmallerThanWindow(t *testing.T) {
	plane := constantPlane(32, 32, 50)
	_, err := FindNeighbors(plane, 32, 32, 16, 16, 21, 21, 16, 2500)
	if err != ErrInvalidParameters {
		t.Errorf("FindNeighbors() error = %v, want ErrInvalidParameters", err)
	}
}

func TestSearchWindowClampsNearBorder(t *testing.T) {
	win, err := SearchWindow(32, 32, 0, 0, 21)
	if err != nil {
		t.Fatalf("SearchWindow() error = %v", err)
	}
	if win.Left != 0 || win.Top != 0 {
		t.Errorf("SearchWindow() near origin = %+v, want Left=Top=0", win)
	}
	if win.Right-win.Left != 21 || win.Bottom-win.Top != 21 {
		t.Errorf("SearchWindow() size = %dx%d, want 21x21", win.Right-win.Left, win.Bottom-win.Top)
	}
}

func TestSearchWindowRejectsOversizedWindow(t *testing.T) {
	_, err := SearchWindow(16, 16, 8, 8, 39)
	if err != ErrInvalidParameters {
		t.Errorf("SearchWindow() error = %v, want ErrInvalidParameters", err)
	}
}

func TestSSDZeroForIdenticalPatches(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	b := append([]float32(nil), a...)
	if d := ssd(a, b); d != 0 {
		t.Errorf("ssd(a, a) = %v, want 0", d)
	}
}

func TestSSDPositiveForDifferentPatches(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{5, 6, 7, 8}
	if d := ssd(a, b); d <= 0 {
		t.Errorf("ssd(a, b) = %v, want > 0", d)
	}
}
