// Package cutworker implements CutListWorker: given one permutation, one
// stock bundle, and a first-cut policy, it evolves a beam of partial
// Solutions by repeatedly placing the next demand panel into every
// existing mosaic via guillotine splits.
package cutworker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cutlistopt/engine/pkg/beam"
	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/mosaic"
	"github.com/cutlistopt/engine/pkg/ranking"
)

// Status is the worker's lifecycle state: QUEUED -> RUNNING ->
// FINISHED/TERMINATED/ERROR.
type Status int32

const (
	StatusQueued Status = iota
	StatusRunning
	StatusFinished
	StatusTerminated
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusRunning:
		return "RUNNING"
	case StatusFinished:
		return "FINISHED"
	case StatusTerminated:
		return "TERMINATED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Thread group labels (glossary: "a label identifying the worker's
// strategy used by the eligibility gate").
const (
	GroupArea          = "AREA"
	GroupAreaHCuts1st  = "AREA_HCUTS_1ST"
	GroupAreaVCuts1st  = "AREA_VCUTS_1ST"
)

// Config is a CutListWorker's fixed construction-time state.
type Config struct {
	Permutation         []model.TileDimensions
	Bundle              *mosaic.StockBundle
	FirstCut            model.CutOrientationPreference
	CutThickness        int
	MinTrimDimension    int
	ConsiderGrain       bool
	PerThreadComparator ranking.Chain
	FinalComparator     ranking.Chain
	SharedBeam          *beam.SharedBeam
	Accuracy            int
	GroupLabel          string
	Material            string
	Metrics             *metrics.Metrics
}

// Worker is one running CutListWorker instance.
type Worker struct {
	cfg    Config
	logger *logging.Logger

	status Status

	percentageDone int64 // atomic, fixed-point *100
	minTrimFlag    int32 // atomic bool

	// IsRunning lets the owning task cooperatively cancel the worker; it is
	// checked at every panel iteration.
	IsRunning func() bool

	// OnGroupRanked is invoked once per top-5 final solution with this
	// worker's material and group, mirroring a per-group ranking counter.
	OnGroupRanked func(material, group string)
}

// New creates a Worker in the QUEUED state.
func New(cfg Config, logger *logging.Logger) *Worker {
	return &Worker{cfg: cfg, logger: logger, status: StatusQueued}
}

// Status returns the worker's current lifecycle state.
func (w *Worker) Status() Status {
	return Status(atomic.LoadInt32((*int32)(&w.status)))
}

func (w *Worker) setStatus(s Status) {
	atomic.StoreInt32((*int32)(&w.status), int32(s))
}

// PercentageDone returns the worker's last-reported progress, 0-100.
func (w *Worker) PercentageDone() float64 {
	return float64(atomic.LoadInt64(&w.percentageDone)) / 100
}

// MinTrimDimensionInfluenced reports whether any candidate placement was
// rejected solely by the min-trim constraint.
func (w *Worker) MinTrimDimensionInfluenced() bool {
	return atomic.LoadInt32(&w.minTrimFlag) != 0
}

// Run executes the worker's full placement loop. Errors are caught and
// converted to StatusError without propagating, a best-effort error
// policy that keeps one panicking worker from taking down its task.
func (w *Worker) Run(ctx context.Context) {
	w.setStatus(StatusRunning)
	defer func() {
		if r := recover(); r != nil {
			if w.logger != nil {
				w.logger.Error("candidate worker panicked", "panic", r, "material", w.cfg.Material, "group", w.cfg.GroupLabel)
			}
			w.setStatus(StatusError)
		}
	}()

	local := []*mosaic.Solution{mosaic.NewSolution(w.cfg.Bundle, w.cfg.GroupLabel)}
	n := len(w.cfg.Permutation)

	for i, t := range w.cfg.Permutation {
		if i%3 == 0 {
			atomic.StoreInt64(&w.percentageDone, int64(100*i/max(n, 1))*100)
		}
		if w.IsRunning != nil && !w.IsRunning() {
			w.setStatus(StatusTerminated)
			return
		}

		start := time.Now()
		var next []*mosaic.Solution
		for _, s := range local {
			next = append(next, w.processSolution(s, t)...)
		}
		if w.cfg.Metrics != nil {
			w.cfg.Metrics.PlacementLatency.Observe(time.Since(start).Seconds())
		}

		next = dedupByShape(next)
		w.cfg.PerThreadComparator.Sort(next)
		next = truncateBeam(next, w.cfg.Accuracy)
		local = next
	}

	w.finalize(local)
	w.setStatus(StatusFinished)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// finalize merges the worker's local beam into the shared task beam under
// its monitor, sorts by the final comparator chain, truncates to accuracy,
// drops emptied mosaics, and updates thread-group rankings for the top 5
// solutions.
func (w *Worker) finalize(local []*mosaic.Solution) {
	for _, s := range local {
		s.DropEmptyMosaics()
	}
	top5 := w.cfg.SharedBeam.Merge(local, w.cfg.FinalComparator, w.cfg.Accuracy)
	if w.OnGroupRanked == nil {
		return
	}
	for range top5 {
		w.OnGroupRanked(w.cfg.Material, w.cfg.GroupLabel)
	}
}

// dedupByShape removes solutions whose concatenated tree-shape signature
// already appeared earlier in sols, keeping the first occurrence.
func dedupByShape(sols []*mosaic.Solution) []*mosaic.Solution {
	seen := make(map[string]struct{}, len(sols))
	out := sols[:0]
	for _, s := range sols {
		sig := s.ShapeSignature()
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, s)
	}
	return out
}

// truncateBeam keeps list[:min(len(list)-1, k)], which always drops the
// final element even when len(list)-1 < k. A version using
// min(len(list), k) would not drop an element unnecessarily, but this
// off-by-one is left in place rather than silently corrected.
func truncateBeam(list []*mosaic.Solution, k int) []*mosaic.Solution {
	size := len(list)
	if size == 0 {
		return list
	}
	limit := size - 1
	if k < limit {
		limit = k
	}
	if limit < 0 {
		limit = 0
	}
	return list[:limit]
}
