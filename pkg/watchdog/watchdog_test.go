package watchdog

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/task"
)

func newTestWatchdog(cfg Config) (*WatchDog, *task.Registry) {
	registry := task.NewRegistry()
	m := metrics.New(prometheus.NewRegistry())
	return New(registry, cfg, nil, m), registry
}

func TestSweepReportsRunningTasks(t *testing.T) {
	w, registry := newTestWatchdog(Config{})
	tk := task.New("t1", &task.CalculationRequest{Panels: []task.Panel{{Enabled: true, Count: 2, Width: 10, Height: 10}}}, 1, task.ClientInfo{ID: "c1"})
	tk.SetStatus(task.StatusRunning)
	registry.Add(tk)

	reports := w.Sweep()
	require.Len(t, reports, 1)
	assert.Equal(t, "t1", reports[0].ID)
	assert.Equal(t, "RUNNING", reports[0].Status)
	assert.Equal(t, 2, reports[0].PanelCount)
}

func TestCheckErrorThresholdTerminatesWhenAllWorkersErrored(t *testing.T) {
	w, registry := newTestWatchdog(Config{ErrorThreadThreshold: 0})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)
	h := task.NewWorkerHandle("MDF", "AREA", func() {})
	h.MarkDone()
	h.MarkErrored()
	tk.RegisterWorker(h)
	registry.Add(tk)

	w.Sweep()
	assert.Equal(t, task.StatusError, tk.Status())
}

func TestCheckErrorThresholdSparesPartialFailure(t *testing.T) {
	w, registry := newTestWatchdog(Config{ErrorThreadThreshold: 0})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)
	errored := task.NewWorkerHandle("MDF", "AREA", func() {})
	errored.MarkDone()
	errored.MarkErrored()
	ok := task.NewWorkerHandle("MDF", "AREA", func() {})
	ok.MarkDone()
	tk.RegisterWorker(errored)
	tk.RegisterWorker(ok)
	registry.Add(tk)

	w.Sweep()
	assert.Equal(t, task.StatusRunning, tk.Status(), "one healthy worker must spare the task")
}

func TestCleanupRemovesExpiredTerminalTasks(t *testing.T) {
	w, registry := newTestWatchdog(Config{TerminalTaskTTL: time.Millisecond})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusFinished)
	registry.Add(tk)

	time.Sleep(5 * time.Millisecond)
	w.Sweep()
	assert.Nil(t, registry.ByID("t1"))
	assert.Equal(t, 1, registry.ArchivedCounts()[task.StatusFinished])
}

func TestCleanupKeepsTerminalTasksWithinTTL(t *testing.T) {
	w, registry := newTestWatchdog(Config{TerminalTaskTTL: time.Hour})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusFinished)
	registry.Add(tk)

	w.Sweep()
	assert.NotNil(t, registry.ByID("t1"))
}

func TestCleanupTerminatesOnAbsoluteTaskTTL(t *testing.T) {
	w, registry := newTestWatchdog(Config{AbsoluteTaskTTL: time.Millisecond})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)
	registry.Add(tk)

	time.Sleep(5 * time.Millisecond)
	w.Sweep()
	assert.Equal(t, task.StatusTerminated, tk.Status())
}

func TestCleanupTerminatesOnClientSilenceTTL(t *testing.T) {
	w, registry := newTestWatchdog(Config{ClientSilenceTTL: time.Millisecond})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)
	registry.Add(tk)

	time.Sleep(5 * time.Millisecond)
	w.Sweep()
	assert.Equal(t, task.StatusTerminated, tk.Status())
}

func TestCleanupDropsFinishedWorkersWhenHealthy(t *testing.T) {
	w, registry := newTestWatchdog(Config{})
	tk := task.New("t1", &task.CalculationRequest{}, 1, task.ClientInfo{})
	tk.SetStatus(task.StatusRunning)
	tk.Touch()
	h := task.NewWorkerHandle("MDF", "AREA", func() {})
	h.MarkDone()
	tk.RegisterWorker(h)
	registry.Add(tk)

	w.Sweep()
	assert.Empty(t, tk.Workers())
	assert.Equal(t, task.StatusRunning, tk.Status())
}

func TestNewDefaultsInterval(t *testing.T) {
	w, _ := newTestWatchdog(Config{})
	assert.Equal(t, 5*time.Second, w.cfg.Interval)
}
