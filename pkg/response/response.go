// Package response builds the client-facing CalculationResponse from a
// finished task's per-material beams: panel/stock aggregation, tile
// flattening, and edge-band accumulation, without the HTML output path
// a full reporting surface would also carry.
package response

import (
	"fmt"
	"time"

	"github.com/cutlistopt/engine/pkg/geometry"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
	"github.com/cutlistopt/engine/pkg/task"
)

// Version is the response schema version.
const Version = "1.2"

// Cut is one flattened guillotine cut, scaled to input units.
type Cut struct {
	X1, Y1, X2, Y2 float64
	Axis           string
}

// Tile is one pre-order-flattened node of a mosaic's tree.
type Tile struct {
	ID          int64
	X1, Y1, X2, Y2 float64
	Label       string
	HasChildren bool
	Final       bool
	ExternalID  int
	Rotated     bool
}

// PanelAggregate groups placed/no-fit/stock panels by id.
type PanelAggregate struct {
	ID     int
	Width  float64
	Height float64
	Count  int
	Label  string
}

// Mosaic is one response-level sheet record.
type Mosaic struct {
	StockLabel      string
	UsedArea        float64
	WastedArea      float64
	UsedAreaRatio   float64
	NbrFinalPanels  int
	NbrWastedPanels int
	CutLength       float64
	Material        string
	Panels          []PanelAggregate
	Tiles           []Tile
	Cuts            []Cut
	EdgeBands       map[string]float64
}

// CalculationResponse is the full client-facing result.
type CalculationResponse struct {
	Version             string
	ID                  string
	TaskID              string
	ElapsedTime         time.Duration
	SolutionElapsedTime time.Duration

	TotalUsedArea      float64
	TotalWastedArea    float64
	TotalUsedAreaRatio float64
	TotalNbrCuts       int
	TotalCutLength     float64

	Panels          []PanelAggregate
	UsedStockPanels []PanelAggregate
	Mosaics         []Mosaic
	NoFitPanels     []PanelAggregate
	EdgeBands       map[string]float64
}

// materialWritten returns material, writing an empty string for the
// implicit default material.
func materialWritten(material string) string {
	if material == model.DefaultMaterial {
		return ""
	}
	return material
}

// Build assembles a CalculationResponse from t's per-material beams,
// taking each material's current best solution and unioning their
// mosaics into one aggregate response.
func Build(t *task.Task) *CalculationResponse {
	factor := t.Factor
	if factor <= 0 {
		factor = 1
	}
	unscale := func(v int) float64 { return float64(v) / float64(factor) }
	unscale64 := func(v int64) float64 { return float64(v) / float64(factor) }

	panelInfo := make(map[int]task.Panel)
	if t.Request != nil {
		for _, p := range t.Request.Panels {
			panelInfo[p.ID] = p
		}
	}
	stockInfo := make(map[int]task.Panel)
	if t.Request != nil {
		for _, p := range t.Request.StockPanels {
			stockInfo[p.ID] = p
		}
	}

	resp := &CalculationResponse{
		Version:   Version,
		TaskID:    t.ID,
		EdgeBands: make(map[string]float64),
	}

	var idParts []byte
	var solutionEarliest int64
	materials := t.Materials()
	for _, material := range materials {
		beam := t.BeamFor(material)
		best := beam.Best()
		if best == nil {
			continue
		}
		idParts = appendInt64(idParts, best.ID)
		if solutionEarliest == 0 || best.Timestamp < solutionEarliest {
			solutionEarliest = best.Timestamp
		}

		for _, m := range best.Mosaics {
			resp.Mosaics = append(resp.Mosaics, buildMosaic(m, panelInfo, unscale, unscale64))
		}
		for _, nf := range best.NoFitPanels {
			resp.NoFitPanels = accumulatePanel(resp.NoFitPanels, nf, panelInfo, unscale)
		}
		for _, used := range usedStockOf(best) {
			resp.UsedStockPanels = accumulatePanel(resp.UsedStockPanels, used, stockInfo, unscale)
		}
	}

	for _, m := range resp.Mosaics {
		resp.TotalUsedArea += m.UsedArea
		resp.TotalWastedArea += m.WastedArea
		resp.TotalCutLength += m.CutLength
		resp.TotalNbrCuts += len(m.Cuts)
		resp.Panels = mergePanels(resp.Panels, m.Panels)
		for tag, length := range m.EdgeBands {
			resp.EdgeBands[tag] += length
		}
	}
	if total := resp.TotalUsedArea + resp.TotalWastedArea; total > 0 {
		resp.TotalUsedAreaRatio = resp.TotalUsedArea / total
	}

	resp.ID = fmt.Sprintf("%x", idParts)
	elapsed := time.Since(t.StartTime)
	if !t.EndTime.IsZero() {
		elapsed = t.EndTime.Sub(t.StartTime)
	}
	resp.ElapsedTime = elapsed
	if solutionEarliest > 0 {
		resp.SolutionElapsedTime = time.Unix(0, solutionEarliest).Sub(t.StartTime)
	}

	return resp
}

// usedStockOf returns the stock tile for every mosaic actually used in the
// solution (i.e. every mosaic present, since a worker's finalize drops
// empty ones before merging into the shared beam).
func usedStockOf(s *mosaic.Solution) []model.TileDimensions {
	out := make([]model.TileDimensions, 0, len(s.Mosaics))
	for _, m := range s.Mosaics {
		out = append(out, model.TileDimensions{
			ID: m.StockID, Width: m.Root.Width(), Height: m.Root.Height(), Material: m.Material,
		})
	}
	return out
}

func buildMosaic(m *mosaic.Mosaic, panelInfo map[int]task.Panel, unscale func(int) float64, unscale64 func(int64) float64) Mosaic {
	used := unscaleArea(m.UsedArea(), unscale64)
	wasted := unscaleArea(m.UnusedArea(), unscale64)
	out := Mosaic{
		UsedArea:        used,
		WastedArea:      wasted,
		NbrFinalPanels:  m.FinalLeafCount(),
		NbrWastedPanels: m.UnusedLeafCount(),
		CutLength:       unscaleLength(m.CutLength(), unscale64),
		Material:        materialWritten(m.Material),
		EdgeBands:       make(map[string]float64),
	}
	if used+wasted > 0 {
		out.UsedAreaRatio = used / (used + wasted)
	}

	for _, l := range m.Root.FinalLeaves() {
		out.Panels = accumulatePanelLeaf(out.Panels, l, panelInfo, unscale)
		accumulateEdgeBands(out.EdgeBands, l, panelInfo, unscale)
	}

	out.Tiles = flattenTiles(m.Root, panelInfo, unscale)

	for _, c := range m.Cuts {
		axis := "H"
		if c.Axis == geometry.AxisVertical {
			axis = "V"
		}
		out.Cuts = append(out.Cuts, Cut{
			X1: unscale(c.X1), Y1: unscale(c.Y1), X2: unscale(c.X2), Y2: unscale(c.Y2), Axis: axis,
		})
	}
	return out
}

func unscaleArea(area int64, unscale64 func(int64) float64) float64 {
	return unscale64(area)
}

func unscaleLength(length int64, unscale64 func(int64) float64) float64 {
	return unscale64(length)
}

// flattenTiles pre-order flattens n's tree into Tile records annotated
// with a hasChildren flag.
func flattenTiles(n *geometry.TileNode, panelInfo map[int]task.Panel, unscale func(int) float64) []Tile {
	if n == nil {
		return nil
	}
	label := ""
	if n.Final {
		if p, ok := panelInfo[n.ExternalID]; ok {
			label = p.Label
		}
	}
	t := Tile{
		ID: n.ID, X1: unscale(n.X1), Y1: unscale(n.Y1), X2: unscale(n.X2), Y2: unscale(n.Y2),
		Label: label, HasChildren: !n.IsLeaf(), Final: n.Final, ExternalID: n.ExternalID, Rotated: n.Rotated,
	}
	out := []Tile{t}
	out = append(out, flattenTiles(n.Child1, panelInfo, unscale)...)
	out = append(out, flattenTiles(n.Child2, panelInfo, unscale)...)
	return out
}

func accumulatePanelLeaf(agg []PanelAggregate, leaf *geometry.TileNode, panelInfo map[int]task.Panel, unscale func(int) float64) []PanelAggregate {
	width, height := leaf.Width(), leaf.Height()
	if leaf.Rotated {
		width, height = height, width
	}
	t := model.TileDimensions{ID: leaf.ExternalID, Width: width, Height: height}
	return accumulatePanel(agg, t, panelInfo, unscale)
}

func accumulatePanel(agg []PanelAggregate, t model.TileDimensions, info map[int]task.Panel, unscale func(int) float64) []PanelAggregate {
	label := ""
	if p, ok := info[t.ID]; ok {
		label = p.Label
	}
	for i := range agg {
		if agg[i].ID == t.ID {
			agg[i].Count++
			return agg
		}
	}
	return append(agg, PanelAggregate{ID: t.ID, Width: unscale(t.Width), Height: unscale(t.Height), Count: 1, Label: label})
}

func mergePanels(into []PanelAggregate, from []PanelAggregate) []PanelAggregate {
	for _, p := range from {
		found := false
		for i := range into {
			if into[i].ID == p.ID {
				into[i].Count += p.Count
				found = true
				break
			}
		}
		if !found {
			into = append(into, p)
		}
	}
	return into
}

// accumulateEdgeBands adds leaf's edge-band lengths into bands, keyed by
// tag, scaled the same way panel dimensions are.
func accumulateEdgeBands(bands map[string]float64, leaf *geometry.TileNode, panelInfo map[int]task.Panel, unscale func(int) float64) {
	p, ok := panelInfo[leaf.ExternalID]
	if !ok || p.Edge.IsZero() {
		return
	}
	width, height := unscale(leaf.Width()), unscale(leaf.Height())
	horizontal, vertical := width, height
	if leaf.Rotated {
		horizontal, vertical = height, width
	}
	if p.Edge.Top != "" {
		bands[p.Edge.Top] += horizontal
	}
	if p.Edge.Bottom != "" {
		bands[p.Edge.Bottom] += horizontal
	}
	if p.Edge.Left != "" {
		bands[p.Edge.Left] += vertical
	}
	if p.Edge.Right != "" {
		bands[p.Edge.Right] += vertical
	}
}

func appendInt64(out []byte, v int64) []byte {
	return append(out, []byte(fmt.Sprintf("%d-", v))...)
}
