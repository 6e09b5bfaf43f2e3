// Package permutation implements demand grouping, bounded permutation
// generation, and the throttled worker spawner.
package permutation

import (
	"github.com/cutlistopt/engine/pkg/model"
)

// groupSplitThreshold computes max(n/100, 1), or 1 when the optimization is
// one-dimensional.
func groupSplitThreshold(n int, oneDimensional bool) int {
	if oneDimensional {
		return 1
	}
	t := n / 100
	if t < 1 {
		t = 1
	}
	return t
}

// IsOneDimensional reports whether the optimization is one-dimensional: the
// set {width, height} of the first demand panel, intersected across every
// demand and stock panel's own {width, height} set, is non-empty.
func IsOneDimensional(demand, stock []model.TileDimensions) bool {
	if len(demand) == 0 {
		return false
	}
	candidates := map[int]struct{}{
		demand[0].Width:  {},
		demand[0].Height: {},
	}
	intersect := func(sides map[int]struct{}, w, h int) {
		for v := range sides {
			if v != w && v != h {
				delete(sides, v)
			}
		}
	}
	for _, d := range demand {
		intersect(candidates, d.Width, d.Height)
		if len(candidates) == 0 {
			return false
		}
	}
	for _, s := range stock {
		intersect(candidates, s.Width, s.Height)
		if len(candidates) == 0 {
			return false
		}
	}
	return len(candidates) > 0
}

// Group assigns each demand panel a group tag, splitting a dimension key
// into at most two groups once it grows frequent:
// a key's panels stay in group 0 until the running count of that key
// exceeds the threshold and the key's total count also exceeds it, at which
// point every subsequent panel of that key moves permanently to group 1.
func Group(demand, stock []model.TileDimensions) []model.GroupedTileDimensions {
	oneDim := IsOneDimensional(demand, stock)
	threshold := groupSplitThreshold(len(demand), oneDim)

	totalCount := make(map[[2]int]int, len(demand))
	for _, d := range demand {
		totalCount[d.DimensionKey()]++
	}

	running := make(map[[2]int]int, len(demand))
	exceeded := make(map[[2]int]bool, len(demand))

	out := make([]model.GroupedTileDimensions, len(demand))
	for i, d := range demand {
		key := d.DimensionKey()
		running[key]++
		if !exceeded[key] && running[key] > threshold && totalCount[key] > threshold {
			exceeded[key] = true
		}
		group := 0
		if exceeded[key] {
			group = 1
		}
		out[i] = model.GroupedTileDimensions{TileDimensions: d, Group: group}
	}
	return out
}
