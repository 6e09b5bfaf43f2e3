package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cutlistopt/engine/pkg/cutworker"
	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/permutation"
	"github.com/cutlistopt/engine/pkg/ranking"
	"github.com/cutlistopt/engine/pkg/stockpicker"
)

// maxPermutationsWithSolution bounds how many workers may still be spawned
// once an all-fit solution exists.
const maxPermutationsWithSolution = 150

// maxStockBundlesPerWorker bounds the per-worker bundle loop to stock
// bundle indices 0..999.
const maxStockBundlesPerWorker = 1000

// Executor is the bounded worker pool a per-material driver submits
// CutListWorker runs to. Its concrete implementation, a fixed-size pool
// with a bounded FIFO queue, lives in pkg/service, which imports this
// package; Executor is declared here so the driver does not need to
// import service back.
type Executor interface {
	// Submit enqueues fn for execution and returns false if the queue is
	// full and fn was rejected.
	Submit(fn func(context.Context)) bool
}

// PerformanceSettings is the per-task tunable surface the driver reads,
// pulled either from the request's performanceThresholds or the service's
// configured defaults.
type PerformanceSettings struct {
	CutThickness             int
	MinTrimDimension         int
	ConsiderOrientation      bool
	OptimizationFactor       float64
	OptimizationPriority     int
	CutOrientationPreference model.CutOrientationPreference
	MaxSimultaneousThreads   int
	ThreadCheckInterval      time.Duration
}

// computeAccuracy derives the beam width from the optimization factor,
// scaled down for large demand counts.
func computeAccuracy(demandCount int, optimizationFactor float64) int {
	accuracy := 100 * optimizationFactor
	if demandCount > 100 {
		accuracy *= 0.5 / (float64(demandCount) / 100)
	}
	if accuracy < 1 {
		accuracy = 1
	}
	return int(accuracy)
}

// policyGroups pairs each first-cut policy with its thread-group label
// (glossary "Thread group").
var policyGroups = []struct {
	policy model.CutOrientationPreference
	group  string
}{
	{model.CutOrientationBoth, cutworker.GroupArea},
	{model.CutOrientationHorizontal, cutworker.GroupAreaHCuts1st},
	{model.CutOrientationVertical, cutworker.GroupAreaVCuts1st},
}

// RunMaterialDriver runs the per-material driver: it groups and permutes
// demand, starts the stock-bundle picker, then spawns a throttled worker
// per permutation, each of which submits up to three CutListWorker
// instances per stock bundle to executor.
func RunMaterialDriver(
	ctx context.Context,
	t *Task,
	material string,
	demand, stock []model.TileDimensions,
	perf PerformanceSettings,
	executor Executor,
	logger *logging.Logger,
	m *metrics.Metrics,
) {
	t.BeamFor(material) // ensure a beam exists even if demand is empty
	defer t.SetPercentageDone(material, 100)

	if len(demand) == 0 {
		return
	}

	grouped := permutation.Group(demand, stock)
	perms := permutation.Generate(grouped)
	if len(perms) == 0 {
		perms = [][]model.TileDimensions{demand}
	}

	gen := stockpicker.NewGenerator(demand, stock, 0)
	stopCh := make(chan struct{})
	go watchTaskStop(t, stopCh)

	sorter := stockpicker.NewSorter(gen, stopCh, logger)
	sorterCtx, cancelSorter := context.WithCancel(ctx)
	defer cancelSorter()
	go func() {
		_ = sorter.Run(sorterCtx, t.HasAllFitSolution)
	}()

	accuracy := computeAccuracy(len(demand), perf.OptimizationFactor)
	chain := ranking.PriorityListFactory(perf.OptimizationPriority)
	sharedBeam := t.BeamFor(material)

	spawner := permutation.NewSpawner(perf.MaxSimultaneousThreads, perf.ThreadCheckInterval)

	var spawnedWorkers int64
	for p, perm := range perms {
		if !t.IsRunning() {
			break
		}
		if t.HasAllFitSolution() && atomic.LoadInt64(&spawnedWorkers) > maxPermutationsWithSolution {
			break
		}

		perm := perm
		permIndex := p
		_ = spawner.Spawn(ctx, func(workerCtx context.Context) {
			n := runPermutationWorker(workerCtx, t, material, perm, perf, chain, accuracy, sharedBeam, sorter, executor, logger, m)
			atomic.AddInt64(&spawnedWorkers, int64(n))
			t.SetInitPercentage(material, 100*float64(permIndex+1)/float64(len(perms)))
		}, func() {
			t.SetPercentageDone(material, 100*float64(permIndex)/float64(len(perms)))
		})
	}

	spawner.Wait()

	// Per-material driver termination: poll until every submitted worker
	// handle for this material has finished.
	for {
		if !anyRunning(t, material) {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func anyRunning(t *Task, material string) bool {
	for _, h := range t.Workers() {
		if h.Material == material && !h.IsDone() {
			return true
		}
	}
	return false
}

// finishedWorkerCount counts material's worker handles already marked
// done, the scope cutworker.Eligible's warm-up/ranking-share gate expects.
func finishedWorkerCount(t *Task, material string) int {
	n := 0
	for _, h := range t.Workers() {
		if h.Material == material && h.IsDone() {
			n++
		}
	}
	return n
}

// watchTaskStop closes stopCh once the task is no longer RUNNING, polling
// the same way every other cooperative-cancellation loop in this engine
// does.
func watchTaskStop(t *Task, stopCh chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if !t.IsRunning() {
			close(stopCh)
			return
		}
	}
}

// runPermutationWorker iterates stock bundles for one permutation,
// submitting up to three CutListWorker instances per bundle subject to the
// cutOrientationPreference filter and group-eligibility gate. It returns
// the number of worker runs submitted.
func runPermutationWorker(
	ctx context.Context,
	t *Task,
	material string,
	perm []model.TileDimensions,
	perf PerformanceSettings,
	chain ranking.Chain,
	accuracy int,
	sharedBeam interface {
		HasAllFit() bool
		SmallestAllFitArea() (int64, bool)
	},
	sorter *stockpicker.Sorter,
	executor Executor,
	logger *logging.Logger,
	m *metrics.Metrics,
) int {
	submitted := 0
	for i := 0; i < maxStockBundlesPerWorker; i++ {
		if !t.IsRunning() {
			return submitted
		}
		bundle, ok := sorter.GetStockSolution(ctx, i)
		if !ok {
			break
		}
		if smallest, has := sharedBeam.SmallestAllFitArea(); has && bundle.TotalArea >= smallest {
			continue
		}

		finished := finishedWorkerCount(t, material)
		rankings := t.GroupRankings(material)

		for _, pg := range policyGroups {
			if perf.CutOrientationPreference != model.CutOrientationBoth && perf.CutOrientationPreference != pg.policy {
				continue
			}
			if !cutworker.Eligible(finished, rankings, pg.group) {
				continue
			}

			workerCtx, cancel := context.WithCancel(ctx)
			handle := NewWorkerHandle(material, pg.group, cancel)
			t.RegisterWorker(handle)

			w := cutworker.New(cutworker.Config{
				Permutation:         perm,
				Bundle:              bundle,
				FirstCut:            pg.policy,
				CutThickness:        perf.CutThickness,
				MinTrimDimension:    perf.MinTrimDimension,
				ConsiderGrain:       perf.ConsiderOrientation,
				PerThreadComparator: chain,
				FinalComparator:     chain,
				SharedBeam:          t.BeamFor(material),
				Accuracy:            accuracy,
				GroupLabel:          pg.group,
				Material:            material,
				Metrics:             m,
			}, logger)
			w.IsRunning = func() bool { return t.IsRunning() && workerCtx.Err() == nil }
			w.OnGroupRanked = t.IncrementGroupRanking

			ok := executor.Submit(func(runCtx context.Context) {
				defer handle.MarkDone()
				w.Run(workerCtx)
				if w.Status() == cutworker.StatusError {
					handle.MarkErrored()
				}
				if w.MinTrimDimensionInfluenced() {
					t.SetMinTrimDimensionInfluenced()
				}
			})
			if !ok {
				handle.MarkDone()
				if logger != nil {
					logger.Warn("candidate worker rejected by executor queue", "material", material, "group", pg.group)
				}
			}
			submitted++
		}
	}
	return submitted
}
