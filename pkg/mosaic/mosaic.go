// Package mosaic implements the Mosaic, Solution, and StockBundle
// aggregates: one stock sheet's split tree plus its cuts, a full
// candidate layout across sheets, and a candidate multiset of stock
// panels to try placements against.
package mosaic

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/cutlistopt/engine/pkg/geometry"
	"github.com/cutlistopt/engine/pkg/model"
)

var solutionIDSeq int64

// NextSolutionID returns a process-wide monotonic id for a new Solution.
func NextSolutionID() int64 {
	return atomic.AddInt64(&solutionIDSeq, 1)
}

// Mosaic is one stock sheet instance: its guillotine tree, the cuts applied
// to build it, and the material/orientation/stock identity it was cut from.
type Mosaic struct {
	Root        *geometry.TileNode
	Cuts        []geometry.Cut
	Material    string
	Orientation model.Orientation
	StockID     int
}

// NewMosaic creates a mosaic from a single, not-yet-cut stock sheet.
func NewMosaic(stock model.TileDimensions) *Mosaic {
	return &Mosaic{
		Root:        geometry.NewRoot(stock.Width, stock.Height),
		Material:    stock.Material,
		Orientation: stock.Orientation,
		StockID:     stock.ID,
	}
}

// Copy deep-copies the mosaic, including its tree, so that mutating the
// copy never affects m.
func (m *Mosaic) Copy() *Mosaic {
	cuts := make([]geometry.Cut, len(m.Cuts))
	copy(cuts, m.Cuts)
	return &Mosaic{
		Root:        m.Root.Copy(),
		Cuts:        cuts,
		Material:    m.Material,
		Orientation: m.Orientation,
		StockID:     m.StockID,
	}
}

// UsedArea sums the area claimed by placed demand panels.
func (m *Mosaic) UsedArea() int64 { return m.Root.UsedArea() }

// UnusedArea sums the area still free.
func (m *Mosaic) UnusedArea() int64 { return m.Root.UnusedArea() }

// FinalLeafCount returns how many demand panels are placed in m.
func (m *Mosaic) FinalLeafCount() int { return len(m.Root.FinalLeaves()) }

// UnusedLeafCount returns how many free-space leaves remain.
func (m *Mosaic) UnusedLeafCount() int { return len(m.Root.UnusedLeaves()) }

// CutLength sums every cut's length.
func (m *Mosaic) CutLength() int64 {
	var total int64
	for _, c := range m.Cuts {
		total += int64(c.Length())
	}
	return total
}

// Solution is one candidate final layout: an ordered set of mosaics plus
// the bundle's not-yet-instantiated sheets, the panels that could not be
// placed, and bookkeeping used by ranking and the group-eligibility gate.
type Solution struct {
	ID                 int64
	Mosaics            []*Mosaic
	UnusedStockPanels  []model.TileDimensions
	NoFitPanels        []model.TileDimensions
	CreatorThreadGroup string
	Timestamp          int64
	AuxInfo            string
}

// NewSolution creates a solution whose first mosaic is the bundle's first
// sheet, with the remainder held in the unused-stock queue.
func NewSolution(bundle *StockBundle, threadGroup string) *Solution {
	s := &Solution{ID: NextSolutionID(), CreatorThreadGroup: threadGroup, Timestamp: time.Now().UnixNano()}
	if len(bundle.Tiles) == 0 {
		return s
	}
	s.Mosaics = []*Mosaic{NewMosaic(bundle.Tiles[0])}
	s.UnusedStockPanels = append([]model.TileDimensions(nil), bundle.Tiles[1:]...)
	return s
}

// Copy deep-copies the solution except for the mosaic at skipIndex, which is
// replaced with replacement (already a fresh copy owned by the caller). Pass
// skipIndex -1 to deep-copy every mosaic unchanged.
func (s *Solution) Copy(skipIndex int, replacement *Mosaic) *Solution {
	c := &Solution{
		ID:                 NextSolutionID(),
		CreatorThreadGroup: s.CreatorThreadGroup,
		Timestamp:          time.Now().UnixNano(),
		AuxInfo:            s.AuxInfo,
	}
	c.Mosaics = make([]*Mosaic, 0, len(s.Mosaics))
	for i, m := range s.Mosaics {
		if i == skipIndex {
			c.Mosaics = append(c.Mosaics, replacement)
			continue
		}
		c.Mosaics = append(c.Mosaics, m.Copy())
	}
	if skipIndex == len(s.Mosaics) {
		c.Mosaics = append(c.Mosaics, replacement)
	}
	c.UnusedStockPanels = append([]model.TileDimensions(nil), s.UnusedStockPanels...)
	c.NoFitPanels = append([]model.TileDimensions(nil), s.NoFitPanels...)
	c.sortMosaics()
	return c
}

// sortMosaics keeps Mosaics ordered ascending by unused area.
func (s *Solution) sortMosaics() {
	sort.SliceStable(s.Mosaics, func(i, j int) bool {
		return s.Mosaics[i].UnusedArea() < s.Mosaics[j].UnusedArea()
	})
}

// TotalUsedArea sums used area across every mosaic.
func (s *Solution) TotalUsedArea() int64 {
	var total int64
	for _, m := range s.Mosaics {
		total += m.UsedArea()
	}
	return total
}

// TotalUnusedArea sums unused area across every mosaic.
func (s *Solution) TotalUnusedArea() int64 {
	var total int64
	for _, m := range s.Mosaics {
		total += m.UnusedArea()
	}
	return total
}

// TotalFinalPanels sums the placed-panel count across every mosaic.
func (s *Solution) TotalFinalPanels() int {
	var total int
	for _, m := range s.Mosaics {
		total += m.FinalLeafCount()
	}
	return total
}

// TotalUnusedPanels sums the free-leaf count across every mosaic.
func (s *Solution) TotalUnusedPanels() int {
	var total int
	for _, m := range s.Mosaics {
		total += m.UnusedLeafCount()
	}
	return total
}

// TotalCuts sums the cut count across every mosaic.
func (s *Solution) TotalCuts() int {
	var total int
	for _, m := range s.Mosaics {
		total += len(m.Cuts)
	}
	return total
}

// BiggestUnusedArea returns the largest single unused leaf area across all
// mosaics.
func (s *Solution) BiggestUnusedArea() int64 {
	var best int64
	for _, m := range s.Mosaics {
		if a := m.Root.BiggestUnusedArea(); a > best {
			best = a
		}
	}
	return best
}

// MaxDistinctTileSetSize returns the largest per-mosaic distinct-tile set
// size, used by the MOST_HV_DISCREPANCY ranking key.
func (s *Solution) MaxDistinctTileSetSize() int {
	best := 0
	for _, m := range s.Mosaics {
		if n := len(m.Root.DistinctTileKeys()); n > best {
			best = n
		}
	}
	return best
}

// AvgCenterOfMassDistance returns the average distance from each mosaic's
// center of mass to the mosaic's own origin, across mosaics that contain at
// least one placed panel.
func (s *Solution) AvgCenterOfMassDistance() float64 {
	var sum float64
	var n int
	for _, m := range s.Mosaics {
		x, y, area := m.Root.CenterOfMass()
		if area == 0 {
			continue
		}
		sum += distance(x, y)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func distance(x, y float64) float64 {
	return sqrt(x*x + y*y)
}

// sqrt avoids importing math solely for distance, its one call site; kept
// as a tiny Newton's-method helper.
func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	z := v
	for i := 0; i < 40; i++ {
		z -= (z*z - v) / (2 * z)
	}
	return z
}

// MaxPerMosaicUnusedArea returns the largest single mosaic's unused area
// (distinct from BiggestUnusedArea, which looks at individual leaves).
func (s *Solution) MaxPerMosaicUnusedArea() int64 {
	var best int64
	for _, m := range s.Mosaics {
		if a := m.UnusedArea(); a > best {
			best = a
		}
	}
	return best
}

// ShapeSignature concatenates every mosaic's ShapeSignature, used to
// deduplicate the beam.
func (s *Solution) ShapeSignature() string {
	var buf []byte
	for _, m := range s.Mosaics {
		buf = m.Root.ShapeSignature(buf)
		buf = append(buf, '|')
	}
	return string(buf)
}

// DropEmptyMosaics removes every mosaic whose root has zero used area.
func (s *Solution) DropEmptyMosaics() {
	kept := s.Mosaics[:0]
	for _, m := range s.Mosaics {
		if m.UsedArea() > 0 {
			kept = append(kept, m)
		}
	}
	s.Mosaics = kept
}
