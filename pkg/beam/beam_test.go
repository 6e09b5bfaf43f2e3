package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutlistopt/engine/pkg/geometry"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
	"github.com/cutlistopt/engine/pkg/ranking"
)

func solutionWithPanels(n int, noFit int) *mosaic.Solution {
	bundle := mosaic.NewStockBundle([]model.TileDimensions{{Width: 1000, Height: 1000}})
	s := mosaic.NewSolution(bundle, "g")
	node := s.Mosaics[0].Root
	for i := 0; i < n; i++ {
		c1, c2, _ := geometry.SplitHorizontally(node, 10, 0)
		c1.Final = true
		if c2 == nil {
			break
		}
		node = c2
	}
	for i := 0; i < noFit; i++ {
		s.NoFitPanels = append(s.NoFitPanels, model.TileDimensions{Width: 5, Height: 5})
	}
	return s
}

func TestBeamMergeSortsAndTruncates(t *testing.T) {
	b := New()
	chain := ranking.Chain{ranking.MostTiles}

	low := solutionWithPanels(1, 0)
	high := solutionWithPanels(3, 0)

	top := b.Merge([]*mosaic.Solution{low, high}, chain, 1)
	require.Len(t, top, 1)
	assert.Same(t, high, top[0])
	assert.Len(t, b.Snapshot(), 1, "merge truncates the shared beam itself to k")
}

func TestBeamMergeReturnsAtMostFive(t *testing.T) {
	b := New()
	chain := ranking.Chain{ranking.MostTiles}

	var sols []*mosaic.Solution
	for i := 0; i < 8; i++ {
		sols = append(sols, solutionWithPanels(i, 0))
	}

	top := b.Merge(sols, chain, 0)
	assert.Len(t, top, 5, "Merge caps its returned slice at 5 regardless of k")
	assert.Len(t, b.Snapshot(), 8, "k<=0 means no truncation of the shared beam itself")
}

func TestBeamBestReturnsNilWhenEmpty(t *testing.T) {
	b := New()
	assert.Nil(t, b.Best())
}

func TestBeamBestReturnsTopSolution(t *testing.T) {
	b := New()
	chain := ranking.Chain{ranking.MostTiles}
	low := solutionWithPanels(1, 0)
	high := solutionWithPanels(3, 0)
	b.Merge([]*mosaic.Solution{low, high}, chain, 0)

	assert.Same(t, high, b.Best())
}

func TestBeamHasAllFit(t *testing.T) {
	b := New()
	chain := ranking.Chain{ranking.MostTiles}

	assert.False(t, b.HasAllFit())

	withNoFit := solutionWithPanels(1, 2)
	allFit := solutionWithPanels(1, 0)
	b.Merge([]*mosaic.Solution{withNoFit, allFit}, chain, 0)
	assert.True(t, b.HasAllFit())
}

func TestBeamSmallestAllFitArea(t *testing.T) {
	b := New()
	chain := ranking.Chain{ranking.MostTiles}

	_, ok := b.SmallestAllFitArea()
	assert.False(t, ok)

	allFit := solutionWithPanels(1, 0)
	withNoFit := solutionWithPanels(1, 1)
	b.Merge([]*mosaic.Solution{allFit, withNoFit}, chain, 0)

	area, ok := b.SmallestAllFitArea()
	require.True(t, ok)
	assert.Equal(t, allFit.Mosaics[0].Root.Area(), area)
}
