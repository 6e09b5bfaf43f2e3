// Package watchdog runs the periodic reporting and cleanup sweep over the
// running-tasks registry: a ticker-driven monitoring loop that reports
// task state and terminates stale or error-saturated tasks.
package watchdog

import (
	"context"
	"time"

	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/task"
)

// Config tunes the cleanup TTLs; defaults come from
// cutlistconfig.DefaultConfig's WatchdogConfig.
type Config struct {
	Interval             time.Duration
	TerminalTaskTTL      time.Duration
	AllFitSolutionTTL    time.Duration
	AbsoluteTaskTTL      time.Duration
	ClientSilenceTTL     time.Duration
	ErrorThreadThreshold int
}

// TaskReport is one task's snapshot emitted every sweep.
type TaskReport struct {
	ID              string
	ClientID        string
	Status          string
	RunningThreads  int
	QueuedThreads   int
	TotalThreads    int
	PanelCount      int
	PercentageDone  float64
	Elapsed         time.Duration
}

// WatchDog periodically reports and sweeps the registry for stale tasks.
type WatchDog struct {
	registry *task.Registry
	cfg      Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// New creates a WatchDog over registry.
func New(registry *task.Registry, cfg Config, logger *logging.Logger, m *metrics.Metrics) *WatchDog {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &WatchDog{registry: registry, cfg: cfg, logger: logger, metrics: m}
}

// Run loops Sweep every cfg.Interval until ctx is cancelled. Interruption
// of the sleep is non-fatal: the loop simply continues on the next tick,
// or exits once ctx.Done fires.
func (w *WatchDog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one watchdog iteration: emits reports, terminates tasks whose
// error-thread threshold has tripped, then runs the TTL cleanup pass.
func (w *WatchDog) Sweep() []TaskReport {
	tasks := w.registry.Tasks()
	reports := make([]TaskReport, 0, len(tasks))

	var running, queued int
	for _, t := range tasks {
		report := w.reportFor(t)
		reports = append(reports, report)
		running += report.RunningThreads
		queued += report.QueuedThreads

		if t.Status() == task.StatusRunning {
			w.checkErrorThreshold(t)
		}
	}

	if w.metrics != nil {
		w.metrics.RunningThreads.Set(float64(running))
		w.metrics.QueuedThreads.Set(float64(queued))
		for _, r := range reports {
			w.metrics.TaskPercentageDone.WithLabelValues(r.ID).Set(r.PercentageDone)
		}
	}

	w.cleanup(tasks)
	return reports
}

func (w *WatchDog) reportFor(t *task.Task) TaskReport {
	workers := t.Workers()
	var runningThreads int
	for _, h := range workers {
		if !h.IsDone() {
			runningThreads++
		}
	}
	// Queue depth is tracked by the executor, not the per-task handle list.
	queuedThreads := 0

	panelCount := 0
	if t.Request != nil {
		panelCount = task.EnabledPanelCount(t.Request.Panels)
	}

	elapsed := time.Since(t.StartTime)
	if !t.EndTime.IsZero() {
		elapsed = t.EndTime.Sub(t.StartTime)
	}

	return TaskReport{
		ID:             t.ID,
		ClientID:       t.ClientInfo.ID,
		Status:         t.Status().String(),
		RunningThreads: runningThreads,
		QueuedThreads:  queuedThreads,
		TotalThreads:   len(workers),
		PanelCount:     panelCount,
		PercentageDone: t.PercentageDone(),
		Elapsed:        elapsed,
	}
}

// checkErrorThreshold terminates t with ERROR if it has more than the
// configured error-thread threshold and every one of its workers errored.
func (w *WatchDog) checkErrorThreshold(t *task.Task) {
	workers := t.Workers()
	if len(workers) == 0 {
		return
	}
	errored := t.ErroredWorkerCount()
	if errored <= w.cfg.ErrorThreadThreshold {
		return
	}
	if errored != len(workers) {
		return
	}
	if w.logger != nil {
		w.logger.Warn("terminating task: error thread threshold exceeded", "task_id", t.ID, "errored", errored)
	}
	t.Terminate(task.StatusError)
}

// cleanup runs the four TTL-based sweeps.
func (w *WatchDog) cleanup(tasks []*task.Task) {
	now := time.Now()
	for _, t := range tasks {
		status := t.Status()

		if status.IsTerminal() {
			if w.cfg.TerminalTaskTTL > 0 && !t.EndTime.IsZero() && now.Sub(t.EndTime) > w.cfg.TerminalTaskTTL {
				w.registry.Remove(t)
			}
			continue
		}

		if status != task.StatusRunning {
			continue
		}

		if w.cfg.AllFitSolutionTTL > 0 && t.HasAllFitSolution() && now.Sub(t.StartTime) > w.cfg.AllFitSolutionTTL {
			w.logTerminate(t, "all-fit solution TTL exceeded")
			t.Terminate(task.StatusTerminated)
			continue
		}

		if w.cfg.AbsoluteTaskTTL > 0 && now.Sub(t.StartTime) > w.cfg.AbsoluteTaskTTL {
			w.logTerminate(t, "absolute task TTL exceeded")
			t.Terminate(task.StatusTerminated)
			continue
		}

		if w.cfg.ClientSilenceTTL > 0 && now.Sub(t.LastQueried()) > w.cfg.ClientSilenceTTL {
			w.logTerminate(t, "client silence TTL exceeded")
			t.Terminate(task.StatusTerminated)
			continue
		}

		t.DropFinishedWorkers()
	}
}

func (w *WatchDog) logTerminate(t *task.Task, reason string) {
	if w.logger != nil {
		w.logger.Info("terminating task", "task_id", t.ID, "reason", reason)
	}
}
