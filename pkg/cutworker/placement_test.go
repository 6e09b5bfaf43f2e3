package cutworker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
)

func newTestWorker(firstCut model.CutOrientationPreference, minTrim int) *Worker {
	return New(Config{FirstCut: firstCut, MinTrimDimension: minTrim, Accuracy: 10}, nil)
}

func TestProcessSolutionExactFit(t *testing.T) {
	w := newTestWorker(model.CutOrientationBoth, 0)
	bundle := mosaic.NewStockBundle([]model.TileDimensions{{Width: 50, Height: 50}})
	s := mosaic.NewSolution(bundle, "g")

	children := w.processSolution(s, model.TileDimensions{ID: 1, Width: 50, Height: 50})
	require.Len(t, children, 1)
	assert.Equal(t, 1, children[0].TotalFinalPanels())
	assert.Empty(t, children[0].NoFitPanels)
}

func TestProcessSolutionFallsBackToUnusedStock(t *testing.T) {
	w := newTestWorker(model.CutOrientationBoth, 0)
	bundle := mosaic.NewStockBundle([]model.TileDimensions{{Width: 10, Height: 10}})
	s := mosaic.NewSolution(bundle, "g")
	s.UnusedStockPanels = []model.TileDimensions{{Width: 30, Height: 30}}

	children := w.processSolution(s, model.TileDimensions{ID: 1, Width: 30, Height: 30})
	require.Len(t, children, 1)
	assert.Len(t, children[0].Mosaics, 2, "placement from the unused-stock queue appends a new mosaic")
	assert.Empty(t, children[0].UnusedStockPanels, "the consumed stock sheet leaves the unused queue")
}

func TestProcessSolutionNoFitAppendsToNoFitList(t *testing.T) {
	w := newTestWorker(model.CutOrientationBoth, 0)
	bundle := mosaic.NewStockBundle([]model.TileDimensions{{Width: 10, Height: 10}})
	s := mosaic.NewSolution(bundle, "g")

	children := w.processSolution(s, model.TileDimensions{ID: 1, Width: 500, Height: 500})
	require.Len(t, children, 1)
	assert.Same(t, s, children[0])
	assert.Len(t, children[0].NoFitPanels, 1)
}

func TestCandidateLeavesRejectsNarrowTrimAndSetsFlag(t *testing.T) {
	w := newTestWorker(model.CutOrientationBoth, 10)
	bundle := mosaic.NewStockBundle([]model.TileDimensions{{Width: 45, Height: 100}})
	s := mosaic.NewSolution(bundle, "g")

	// A panel leaving a sliver under the min-trim dimension must be rejected.
	children := w.processSolution(s, model.TileDimensions{ID: 1, Width: 40, Height: 100})
	assert.True(t, w.MinTrimDimensionInfluenced())
	require.Len(t, children, 1)
	assert.Equal(t, 0, children[0].TotalFinalPanels(), "the only candidate leaf is rejected by the min-trim rule")
}

func TestFitsEitherAcceptsRotatedFit(t *testing.T) {
	assert.True(t, fitsEither(model.TileDimensions{Width: 50, Height: 20}, model.TileDimensions{Width: 20, Height: 50}))
	assert.False(t, fitsEither(model.TileDimensions{Width: 10, Height: 10}, model.TileDimensions{Width: 20, Height: 20}))
}
