// Package ranking implements the nine named rank keys as a tagged-variant
// enum plus lexicographic comparator composition, replacing an
// inheritance-based comparator chain with explicit composition.
package ranking

import "github.com/cutlistopt/engine/pkg/mosaic"

// Key names one of the nine total orders over Solutions.
type Key int

const (
	MostTiles Key = iota
	LeastWastedArea
	LeastNbrCuts
	LeastNbrMosaics
	BiggestUnusedTileArea
	MostHVDiscrepancy
	SmallestCenterOfMassDistToOrigin
	LeastNbrUnusedTiles
	MostUnusedPanelArea
)

var names = map[Key]string{
	MostTiles:                        "MOST_TILES",
	LeastWastedArea:                  "LEAST_WASTED_AREA",
	LeastNbrCuts:                     "LEAST_NBR_CUTS",
	LeastNbrMosaics:                  "LEAST_NBR_MOSAICS",
	BiggestUnusedTileArea:            "BIGGEST_UNUSED_TILE_AREA",
	MostHVDiscrepancy:                "MOST_HV_DISCREPANCY",
	SmallestCenterOfMassDistToOrigin: "SMALLEST_CENTER_OF_MASS_DIST_TO_ORIGIN",
	LeastNbrUnusedTiles:              "LEAST_NBR_UNUSED_TILES",
	MostUnusedPanelArea:              "MOST_UNUSED_PANEL_AREA",
}

// String returns the key's canonical name, as used by configuration and
// logs.
func (k Key) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParseKey resolves a canonical name back to a Key. Unknown names are
// reported via ok=false so PriorityListFactory can skip them silently.
func ParseKey(name string) (k Key, ok bool) {
	for key, n := range names {
		if n == name {
			return key, true
		}
	}
	return 0, false
}

// compare returns -1/0/1 for a vs b under key k, with "best" sorting first
// (i.e. negative means a ranks better than b).
func compare(k Key, a, b *mosaic.Solution) int {
	switch k {
	case MostTiles:
		return cmpDesc(int64(a.TotalFinalPanels()), int64(b.TotalFinalPanels()))
	case LeastWastedArea:
		return cmpAsc(a.TotalUnusedArea(), b.TotalUnusedArea())
	case LeastNbrCuts:
		return cmpAsc(int64(a.TotalCuts()), int64(b.TotalCuts()))
	case LeastNbrMosaics:
		return cmpAsc(int64(len(a.Mosaics)), int64(len(b.Mosaics)))
	case BiggestUnusedTileArea:
		return cmpDesc(a.BiggestUnusedArea(), b.BiggestUnusedArea())
	case MostHVDiscrepancy:
		return cmpAsc(int64(a.MaxDistinctTileSetSize()), int64(b.MaxDistinctTileSetSize()))
	case SmallestCenterOfMassDistToOrigin:
		return cmpAscFloat(a.AvgCenterOfMassDistance(), b.AvgCenterOfMassDistance())
	case LeastNbrUnusedTiles:
		return cmpAsc(int64(a.TotalUnusedPanels()), int64(b.TotalUnusedPanels()))
	case MostUnusedPanelArea:
		return cmpDesc(a.MaxPerMosaicUnusedArea(), b.MaxPerMosaicUnusedArea())
	default:
		return 0
	}
}

func cmpAsc(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDesc(a, b int64) int { return -cmpAsc(a, b) }

func cmpAscFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Chain is an ordered comparator list; Less implements sort.Interface-style
// lexicographic comparison for two Solutions.
type Chain []Key

// Less reports whether a ranks strictly better than b under the chain: the
// first key with a non-zero comparison decides.
func (c Chain) Less(a, b *mosaic.Solution) bool {
	return c.Compare(a, b) < 0
}

// Compare returns the chain's lexicographic comparison of a against b:
// negative when a is better, positive when b is better, zero on a full tie.
func (c Chain) Compare(a, b *mosaic.Solution) int {
	for _, k := range c {
		if r := compare(k, a, b); r != 0 {
			return r
		}
	}
	return 0
}

// Sort orders sols best-first according to c.
func (c Chain) Sort(sols []*mosaic.Solution) {
	insertionSort(sols, c)
}

// insertionSort is used instead of sort.Slice so the chain's comparator is
// exercised through a single, easily-inspected loop; beam sizes are small
// enough that O(n^2) is not a concern.
func insertionSort(sols []*mosaic.Solution, c Chain) {
	for i := 1; i < len(sols); i++ {
		for j := i; j > 0 && c.Less(sols[j], sols[j-1]); j-- {
			sols[j], sols[j-1] = sols[j-1], sols[j]
		}
	}
}

// PriorityListFactory builds the per-thread and final comparator chain from
// the request's optimizationPriority flag.
func PriorityListFactory(optimizationPriority int) Chain {
	if optimizationPriority == 0 {
		return Chain{
			MostTiles, LeastWastedArea, LeastNbrCuts, LeastNbrMosaics,
			BiggestUnusedTileArea, MostHVDiscrepancy,
		}
	}
	return Chain{
		MostTiles, LeastNbrCuts, LeastWastedArea, LeastNbrMosaics,
		BiggestUnusedTileArea, MostHVDiscrepancy,
	}
}

// ParseChain builds a Chain from a list of canonical key names, silently
// skipping unknown names.
func ParseChain(names []string) Chain {
	c := make(Chain, 0, len(names))
	for _, n := range names {
		if k, ok := ParseKey(n); ok {
			c = append(c, k)
		}
	}
	return c
}
