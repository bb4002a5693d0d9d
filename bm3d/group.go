package bm3d

import "github.com/mrjoshuak/go-bm3d/blockmatch"

// Group is an ordered stack of patches sharing the same reference anchor,
// drawn from a single channel plane. The reference patch occupies index 0
// (spec.md §3, §4.4).
type Group struct {
	Anchors []blockmatch.Anchor
	Patches [][]float32 // Patches[i] has length B*B
}

// formGroup extracts the patches named by anchors from plane (C4, "Group
// former"). Anchors are assumed already sorted with the reference first,
// as returned by blockmatch.FindNeighbors.
func formGroup(plane []float32, width, b int, anchors []blockmatch.Anchor) Group {
	patches := make([][]float32, len(anchors))
	for i, a := range anchors {
		patches[i] = ExtractPatch(plane, width, a.X, a.Y, b).Data
	}
	return Group{Anchors: anchors, Patches: patches}
}
