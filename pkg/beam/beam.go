// Package beam holds the task-wide shared beam of Solutions that candidate
// workers merge their local beams into under one monitor.
package beam

import (
	"sync"

	"github.com/cutlistopt/engine/pkg/mosaic"
	"github.com/cutlistopt/engine/pkg/ranking"
)

// SharedBeam is one material's task-wide beam: every finishing worker
// merges its local beam in, sorts by the final comparator chain, and
// truncates to k.
type SharedBeam struct {
	mu        sync.Mutex
	solutions []*mosaic.Solution
}

// New creates an empty SharedBeam.
func New() *SharedBeam {
	return &SharedBeam{}
}

// Merge appends local to the shared beam, sorts by chain, truncates to k,
// and returns the top 5 solutions for the group-ranking update.
func (b *SharedBeam) Merge(local []*mosaic.Solution, chain ranking.Chain, k int) []*mosaic.Solution {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.solutions = append(b.solutions, local...)
	chain.Sort(b.solutions)
	if k > 0 && len(b.solutions) > k {
		b.solutions = b.solutions[:k]
	}

	top := b.solutions
	if len(top) > 5 {
		top = top[:5]
	}
	return append([]*mosaic.Solution(nil), top...)
}

// Snapshot returns a copy of the current beam contents.
func (b *SharedBeam) Snapshot() []*mosaic.Solution {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*mosaic.Solution(nil), b.solutions...)
}

// Best returns the beam's current top solution, or nil if empty.
func (b *SharedBeam) Best() *mosaic.Solution {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.solutions) == 0 {
		return nil
	}
	return b.solutions[0]
}

// HasAllFit reports whether any solution in the beam has an empty no-fit
// list, used by the stock picker and spawn loop to prune further search
// once a fully-placed layout exists.
func (b *SharedBeam) HasAllFit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.solutions {
		if len(s.NoFitPanels) == 0 {
			return true
		}
	}
	return false
}

// SmallestAllFitArea returns the smallest single-mosaic total used+unused
// area among all-fit solutions already in the beam, and ok=false if none
// exist. Used to skip stock bundles no smaller-area all-fit solution using
// a single mosaic could beat.
func (b *SharedBeam) SmallestAllFitArea() (area int64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.solutions {
		if len(s.NoFitPanels) != 0 || len(s.Mosaics) != 1 {
			continue
		}
		a := s.Mosaics[0].Root.Area()
		if !ok || a < area {
			area = a
			ok = true
		}
	}
	return area, ok
}
