package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutlistopt/engine/pkg/geometry"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
	"github.com/cutlistopt/engine/pkg/task"
)

// buildPlacedMosaic splits a 100x100 stock sheet into a 40x100 final panel
// (external id 1) and a 60x100 leftover leaf, mirroring what cutworker
// placement would have produced.
func buildPlacedMosaic() *mosaic.Mosaic {
	m := mosaic.NewMosaic(model.TileDimensions{ID: 9, Width: 100, Height: 100})
	child1, child2, cut := geometry.SplitHorizontally(m.Root, 40, 0)
	child1.Final = true
	child1.ExternalID = 1
	m.Root.Child1 = child1
	m.Root.Child2 = child2
	m.Cuts = append(m.Cuts, cut)
	return m
}

func buildTestTask() *task.Task {
	req := &task.CalculationRequest{
		Panels:      []task.Panel{{ID: 1, Width: 40, Height: 100, Count: 1, Label: "door"}},
		StockPanels: []task.Panel{{ID: 9, Width: 100, Height: 100, Count: 1, Label: "sheet"}},
	}
	tk := task.New("t1", req, 1, task.ClientInfo{ID: "c1"})
	tk.SetStatus(task.StatusRunning)

	sol := mosaic.NewSolution(&mosaic.StockBundle{Tiles: []model.TileDimensions{{ID: 9, Width: 100, Height: 100}}}, "g")
	sol.Mosaics = []*mosaic.Mosaic{buildPlacedMosaic()}

	beamFor := tk.BeamFor(model.DefaultMaterial)
	beamFor.Merge([]*mosaic.Solution{sol}, nil, 10)
	tk.SetStatus(task.StatusFinished)
	return tk
}

func TestBuildAggregatesUsedAndWastedArea(t *testing.T) {
	tk := buildTestTask()
	resp := Build(tk)

	require.Len(t, resp.Mosaics, 1)
	assert.Equal(t, float64(4000), resp.TotalUsedArea)
	assert.Equal(t, float64(6000), resp.TotalWastedArea)
	assert.InDelta(t, 0.4, resp.TotalUsedAreaRatio, 1e-9)
}

func TestBuildLabelsPanelsFromRequest(t *testing.T) {
	tk := buildTestTask()
	resp := Build(tk)

	require.Len(t, resp.Panels, 1)
	assert.Equal(t, "door", resp.Panels[0].Label)
	assert.Equal(t, 1, resp.Panels[0].Count)
}

func TestBuildFlattensTilesPreOrderWithHasChildren(t *testing.T) {
	tk := buildTestTask()
	resp := Build(tk)

	tiles := resp.Mosaics[0].Tiles
	require.NotEmpty(t, tiles)
	assert.True(t, tiles[0].HasChildren, "root must report it has children after the split")
	var sawFinal bool
	for _, tile := range tiles {
		if tile.Final {
			sawFinal = true
			assert.Equal(t, 1, tile.ExternalID)
		}
	}
	assert.True(t, sawFinal)
}

func TestBuildRecordsOneCutWithVerticalAxis(t *testing.T) {
	tk := buildTestTask()
	resp := Build(tk)

	require.Len(t, resp.Mosaics[0].Cuts, 1)
	assert.Equal(t, "V", resp.Mosaics[0].Cuts[0].Axis)
}

func TestBuildWithNoSolutionsProducesEmptyResponse(t *testing.T) {
	tk := task.New("t2", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusFinished)

	resp := Build(tk)
	assert.Empty(t, resp.Mosaics)
	assert.Equal(t, float64(0), resp.TotalUsedArea)
}

func TestBuildAccumulatesEdgeBands(t *testing.T) {
	req := &task.CalculationRequest{
		Panels: []task.Panel{{
			ID: 1, Width: 40, Height: 100, Count: 1,
			Edge: model.EdgeSpec{Top: "PVC2mm"},
		}},
		StockPanels: []task.Panel{{ID: 9, Width: 100, Height: 100, Count: 1}},
	}
	tk := task.New("t3", req, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)

	sol := mosaic.NewSolution(&mosaic.StockBundle{Tiles: []model.TileDimensions{{ID: 9, Width: 100, Height: 100}}}, "g")
	sol.Mosaics = []*mosaic.Mosaic{buildPlacedMosaic()}
	tk.BeamFor(model.DefaultMaterial).Merge([]*mosaic.Solution{sol}, nil, 10)
	tk.SetStatus(task.StatusFinished)

	resp := Build(tk)
	assert.Greater(t, resp.EdgeBands["PVC2mm"], 0.0)
}
