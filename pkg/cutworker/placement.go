package cutworker

import (
	"sync/atomic"

	"github.com/cutlistopt/engine/pkg/geometry"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
)

// processSolution applies one demand panel to one beam solution. If at
// least one mosaic accepts a placement, the parent solution s is
// superseded by its children; the outer loop never scans further mosaics
// for s once a placement succeeds. Otherwise s persists unchanged except
// for t being appended to its no-fit list.
func (w *Worker) processSolution(s *mosaic.Solution, t model.TileDimensions) []*mosaic.Solution {
	for idx, m := range s.Mosaics {
		if m.Material != t.Material {
			continue
		}
		newMosaics := w.placement(t, m)
		if len(newMosaics) == 0 {
			continue
		}
		children := make([]*mosaic.Solution, 0, len(newMosaics))
		for _, nm := range newMosaics {
			children = append(children, s.Copy(idx, nm))
		}
		return children
	}

	for fitIdx, stock := range s.UnusedStockPanels {
		if stock.Material != t.Material || !fitsEither(stock, t) {
			continue
		}
		fresh := mosaic.NewMosaic(stock)
		newMosaics := w.placement(t, fresh)
		if len(newMosaics) == 0 {
			continue
		}
		children := make([]*mosaic.Solution, 0, len(newMosaics))
		for _, nm := range newMosaics {
			child := s.Copy(len(s.Mosaics), nm)
			child.UnusedStockPanels = removeAt(child.UnusedStockPanels, fitIdx)
			children = append(children, child)
		}
		return children
	}

	s.NoFitPanels = append(s.NoFitPanels, t)
	return []*mosaic.Solution{s}
}

func fitsEither(stock, t model.TileDimensions) bool {
	if stock.Width >= t.Width && stock.Height >= t.Height {
		return true
	}
	return stock.Width >= t.Height && stock.Height >= t.Width
}

func removeAt(tiles []model.TileDimensions, idx int) []model.TileDimensions {
	out := make([]model.TileDimensions, 0, len(tiles)-1)
	out = append(out, tiles[:idx]...)
	out = append(out, tiles[idx+1:]...)
	return out
}

// placement is the placement primitive: for each orientation variant of
// t, it finds candidate leaves in m's tree and emits one new mosaic per
// exact or inexact fit.
func (w *Worker) placement(t model.TileDimensions, m *mosaic.Mosaic) []*mosaic.Mosaic {
	var out []*mosaic.Mosaic
	for _, variant := range w.orientationVariants(t, m) {
		for _, leaf := range w.candidateLeaves(m.Root, variant) {
			if leaf.Width() == variant.Width && leaf.Height() == variant.Height {
				nm := m.Copy()
				copied := nm.Root.FindByID(leaf.ID)
				copied.Final = true
				copied.ExternalID = t.ID
				copied.Rotated = variant.IsRotated
				out = append(out, nm)
				continue
			}

			if w.cfg.FirstCut == model.CutOrientationBoth || w.cfg.FirstCut == model.CutOrientationHorizontal {
				nm := m.Copy()
				copied := nm.Root.FindByID(leaf.ID)
				nm.Cuts = append(nm.Cuts, w.placeHorizontalFirst(copied, variant, t)...)
				out = append(out, nm)
			}
			if w.cfg.FirstCut == model.CutOrientationBoth || w.cfg.FirstCut == model.CutOrientationVertical {
				nm := m.Copy()
				copied := nm.Root.FindByID(leaf.ID)
				nm.Cuts = append(nm.Cuts, w.placeVerticalFirst(copied, variant, t)...)
				out = append(out, nm)
			}
		}
	}
	return out
}

// orientationVariants returns the t orientations worth trying against m.
func (w *Worker) orientationVariants(t model.TileDimensions, m *mosaic.Mosaic) []model.TileDimensions {
	if w.cfg.ConsiderGrain && m.Orientation != model.OrientationAny && t.Orientation != model.OrientationAny {
		if t.Orientation != m.Orientation {
			return []model.TileDimensions{t.Rotate90()}
		}
		return []model.TileDimensions{t}
	}
	variants := []model.TileDimensions{t}
	if !t.IsSquare() {
		variants = append(variants, t.Rotate90())
	}
	return variants
}

// candidateLeaves finds non-final leaves big enough for variant, subject
// to the min-trim constraint. Leaves rejected only by the min-trim rule
// set the worker's min-trim-influenced latch.
func (w *Worker) candidateLeaves(root *geometry.TileNode, variant model.TileDimensions) []*geometry.TileNode {
	var out []*geometry.TileNode
	for _, l := range root.UnusedLeaves() {
		if l.Width() < variant.Width || l.Height() < variant.Height {
			continue
		}
		widthOK := l.Width() == variant.Width || l.Width() >= variant.Width+w.cfg.MinTrimDimension
		heightOK := l.Height() == variant.Height || l.Height() >= variant.Height+w.cfg.MinTrimDimension
		if widthOK && heightOK {
			out = append(out, l)
			continue
		}
		atomic.StoreInt32(&w.minTrimFlag, 1)
	}
	return out
}

// placeHorizontalFirst splits leaf at x=variant.Width first, then, if the
// remaining height still exceeds variant's, splits the inner piece
// vertically.
func (w *Worker) placeHorizontalFirst(leaf *geometry.TileNode, variant, original model.TileDimensions) []geometry.Cut {
	child1, _, cut := geometry.SplitHorizontally(leaf, variant.Width, w.cfg.CutThickness)
	cuts := []geometry.Cut{cut}

	target := child1
	if child1.Height() > variant.Height {
		inner, _, cut2 := geometry.SplitVertically(child1, variant.Height, w.cfg.CutThickness)
		cuts = append(cuts, cut2)
		target = inner
	}
	target.Final = true
	target.ExternalID = original.ID
	target.Rotated = variant.IsRotated
	return cuts
}

// placeVerticalFirst is the symmetric counterpart: splits at y=variant.Height
// first, then splits the inner piece horizontally if needed.
func (w *Worker) placeVerticalFirst(leaf *geometry.TileNode, variant, original model.TileDimensions) []geometry.Cut {
	child1, _, cut := geometry.SplitVertically(leaf, variant.Height, w.cfg.CutThickness)
	cuts := []geometry.Cut{cut}

	target := child1
	if child1.Width() > variant.Width {
		inner, _, cut2 := geometry.SplitHorizontally(child1, variant.Width, w.cfg.CutThickness)
		cuts = append(cuts, cut2)
		target = inner
	}
	target.Final = true
	target.ExternalID = original.ID
	target.Rotated = variant.IsRotated
	return cuts
}
