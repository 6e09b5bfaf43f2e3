// Package stockpicker implements the lazy stock-bundle enumerator: a
// Generator producing minimal multisets of stock sheets big enough to
// hold the demand, and a Sorter goroutine that keeps a growing,
// ascending-by-area list of bundles for workers to poll.
package stockpicker

import (
	"math"
	"sort"

	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
)

// defaultMaxBundles bounds how many bundles Generator emits after the
// all-panel bundle, unless a caller-supplied hint overrides it.
const defaultMaxBundles = 1000

// Generator lazily enumerates candidate stock bundles by increasing size.
// After the first (all-panel) bundle, each is at least as large as the
// demand requires.
type Generator struct {
	stock          []model.TileDimensions // sorted ascending by area
	requiredArea   int64
	requiredMaxDim int
	maxBundles     int

	excluded map[string]struct{}

	allPanelEmitted bool
	uniformStock    bool
	exhausted       bool

	size    int
	indices []int // current combination, strictly increasing indices into stock

	emitted int
}

// NewGenerator builds a Generator for one material's demand/stock split.
// maxBundlesHint, when > 0, overrides defaultMaxBundles.
func NewGenerator(demand, stock []model.TileDimensions, maxBundlesHint int) *Generator {
	sorted := append([]model.TileDimensions(nil), stock...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Area() < sorted[j].Area() })

	var requiredArea int64
	requiredMaxDim := 0
	for _, d := range demand {
		requiredArea += d.Area()
		if d.Width > requiredMaxDim {
			requiredMaxDim = d.Width
		}
		if d.Height > requiredMaxDim {
			requiredMaxDim = d.Height
		}
	}

	maxBundles := defaultMaxBundles
	if maxBundlesHint > 0 {
		maxBundles = maxBundlesHint
	}

	g := &Generator{
		stock:          sorted,
		requiredArea:   requiredArea,
		requiredMaxDim: requiredMaxDim,
		maxBundles:     maxBundles,
		excluded:       make(map[string]struct{}),
		uniformStock:   isUniformStock(sorted),
	}
	g.size = g.startingSize()
	g.indices = firstCombination(g.size)
	return g
}

func isUniformStock(stock []model.TileDimensions) bool {
	if len(stock) == 0 {
		return true
	}
	id := stock[0].ID
	for _, t := range stock[1:] {
		if t.ID != id {
			return false
		}
	}
	return true
}

func (g *Generator) startingSize() int {
	if len(g.stock) == 0 {
		return 1
	}
	biggest := g.stock[len(g.stock)-1].Area()
	if biggest <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(g.requiredArea) / float64(biggest)))
	if n < 1 {
		n = 1
	}
	return n
}

func firstCombination(size int) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Next produces the next not-yet-returned bundle, or ok=false once the
// generator is exhausted. The first call returns the whole stock pool as
// one bundle without checking it; every later bundle meets the area and
// max-dimension requirements.
func (g *Generator) Next() (bundle *mosaic.StockBundle, ok bool) {
	if g.exhausted {
		return nil, false
	}

	if !g.allPanelEmitted {
		g.allPanelEmitted = true
		b := mosaic.NewStockBundle(g.stock)
		g.excluded[b.Key()] = struct{}{}
		if g.uniformStock {
			g.exhausted = true
		}
		return b, true
	}

	if g.uniformStock {
		g.exhausted = true
		return nil, false
	}

	for {
		if g.emitted >= g.maxBundles {
			g.exhausted = true
			return nil, false
		}
		if g.size > len(g.stock) {
			g.exhausted = true
			return nil, false
		}

		tiles := make([]model.TileDimensions, len(g.indices))
		for i, idx := range g.indices {
			tiles[i] = g.stock[idx]
		}
		candidate := mosaic.NewStockBundle(tiles)

		advanced := g.advance()
		if !advanced {
			g.size++
			g.indices = firstCombination(g.size)
		}

		if !g.meetsRequirement(candidate) {
			continue
		}
		key := candidate.Key()
		if _, dup := g.excluded[key]; dup {
			continue
		}
		g.excluded[key] = struct{}{}
		g.emitted++
		return candidate, true
	}
}

func (g *Generator) meetsRequirement(b *mosaic.StockBundle) bool {
	if b.TotalArea < g.requiredArea {
		return false
	}
	if g.requiredMaxDim > 0 && b.MaxDimension() < g.requiredMaxDim {
		return false
	}
	return true
}

// advance moves g.indices to the lexicographically next strictly-increasing
// combination of the current size: the rightmost index that can still grow
// moves to the next stock entry in ascending-area order, and the indices
// after it follow consecutively. Entries with equal dimensions are not
// skipped here; Next drops the duplicate bundles through its exclusion set.
// Returns false when the current size is exhausted.
func (g *Generator) advance() bool {
	n := len(g.stock)
	k := len(g.indices)
	if k == 0 {
		return false
	}
	i := k - 1
	for i >= 0 && g.indices[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	g.indices[i]++
	for j := i + 1; j < k; j++ {
		g.indices[j] = g.indices[j-1] + 1
	}
	return true
}
