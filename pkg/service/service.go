// Package service implements the admission-control entry point:
// submitTask validation and enqueueing, getTaskStatus refresh,
// stopTask/terminateTask, and process-wide stats, all wired over the
// fixed-size Executor and the registry/watchdog pair.
package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cutlistopt/engine/pkg/cutlistconfig"
	"github.com/cutlistopt/engine/pkg/cutlisterr"
	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/model"
	"github.com/cutlistopt/engine/pkg/response"
	"github.com/cutlistopt/engine/pkg/task"
	"github.com/cutlistopt/engine/pkg/watchdog"
)

// StatusCode is submitTask's result code.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusInvalidTiles
	StatusInvalidStockTiles
	StatusTaskAlreadyRunning
	StatusServerUnavailable
	StatusTooManyPanels
	StatusTooManyStockPanels
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "0"
	case StatusInvalidTiles:
		return "1"
	case StatusInvalidStockTiles:
		return "2"
	case StatusTaskAlreadyRunning:
		return "3"
	case StatusServerUnavailable:
		return "4"
	case StatusTooManyPanels:
		return "5"
	case StatusTooManyStockPanels:
		return "6"
	default:
		return "4"
	}
}

// maxPanelCount bounds both the demand and stock panel counts: 5,000
// accepted, 5,001 rejected.
const maxPanelCount = 5000

// TaskStatus is getTaskStatus's return shape.
type TaskStatus struct {
	StatusCode     string
	Status         string
	PercentageDone float64
	InitPercentage float64
	Solution       *response.CalculationResponse
}

// Stats is the process-wide snapshot exposed for monitoring.
type Stats struct {
	RunningThreads int
	QueuedThreads  int
	ByStatus       map[string]int
	Reports        []watchdog.TaskReport
}

// Service is the top-level admission-control facade: one per process,
// owning the task registry, the bounded worker executor, and the
// background watchdog sweep.
type Service struct {
	cfg      *cutlistconfig.Config
	registry *task.Registry
	executor *Executor
	watchdog *watchdog.WatchDog
	logger   *logging.Logger
	metrics  *metrics.Metrics

	idSeq int64 // atomic counter appended to the yyyyMMddHHmm task-id prefix
}

// New constructs a Service from cfg, wiring the executor and watchdog but
// not yet starting the watchdog loop (call Run for that).
func New(cfg *cutlistconfig.Config, logger *logging.Logger, m *metrics.Metrics) *Service {
	registry := task.NewRegistry()
	executor := NewExecutor(cfg.Service.PoolSize, cfg.Service.QueueCapacity)

	wd := watchdog.New(registry, watchdog.Config{
		Interval:             cfg.Watchdog.Interval,
		TerminalTaskTTL:      cfg.Watchdog.TerminalTaskTTL,
		AllFitSolutionTTL:    cfg.Watchdog.AllFitSolutionTTL,
		AbsoluteTaskTTL:      cfg.Watchdog.AbsoluteTaskTTL,
		ClientSilenceTTL:     cfg.Watchdog.ClientSilenceTTL,
		ErrorThreadThreshold: cfg.Watchdog.ErrorThreadThreshold,
	}, logger, m)

	return &Service{
		cfg:      cfg,
		registry: registry,
		executor: executor,
		watchdog: wd,
		logger:   logger,
		metrics:  m,
	}
}

// Run starts the watchdog sweep loop, blocking until ctx is cancelled.
// Callers typically invoke this in its own goroutine alongside the
// transport server, which is out of scope here.
func (s *Service) Run(ctx context.Context) {
	s.watchdog.Run(ctx)
}

// Shutdown drains the executor, stopping its worker pool once every
// in-flight candidate run completes.
func (s *Service) Shutdown() {
	s.executor.Shutdown()
}

// nextTaskID allocates a task.ID following the yyyyMMddHHmm+counter scheme.
func (s *Service) nextTaskID() string {
	n := atomic.AddInt64(&s.idSeq, 1)
	return fmt.Sprintf("%s%d", time.Now().Format("200601021504"), n)
}

// SubmitTask validates req and, on success, creates and starts a Task,
// running demand/stock panel checks before the per-client concurrency
// check.
func (s *Service) SubmitTask(req *task.CalculationRequest, clientInfo task.ClientInfo) (StatusCode, string, error) {
	demandCount := task.EnabledPanelCount(req.Panels)
	if demandCount == 0 {
		return StatusInvalidTiles, "", cutlisterr.New(cutlisterr.CategoryInvalidInput, nil, map[string]any{"reason": "no enabled demand panels"})
	}
	if demandCount > maxPanelCount {
		return StatusTooManyPanels, "", cutlisterr.New(cutlisterr.CategoryInvalidInput, nil, map[string]any{"count": demandCount})
	}

	stockCount := task.EnabledPanelCount(req.StockPanels)
	if stockCount == 0 {
		return StatusInvalidStockTiles, "", cutlisterr.New(cutlisterr.CategoryInvalidInput, nil, map[string]any{"reason": "no enabled stock panels"})
	}
	if stockCount > maxPanelCount {
		return StatusTooManyStockPanels, "", cutlisterr.New(cutlisterr.CategoryInvalidInput, nil, map[string]any{"count": stockCount})
	}

	if !s.cfg.Service.AllowMultipleTasksPerClient {
		running := s.registry.CountRunningForClient(clientInfo.ID)
		limit := s.cfg.Service.MaxSimultaneousTasks
		if running >= limit {
			return StatusTaskAlreadyRunning, "", cutlisterr.New(cutlisterr.CategoryTaskAlreadyExists, nil, map[string]any{"client_id": clientInfo.ID, "running": running})
		}
	}

	id := s.nextTaskID()
	factor := scalingFactor(req.Configuration.Units)
	req.ClientInfo = clientInfo
	t := task.New(id, req, factor, clientInfo)

	if err := s.startTask(t); err != nil {
		return StatusServerUnavailable, "", cutlisterr.New(cutlisterr.CategoryServiceInit, err, nil)
	}

	s.registry.Add(t)
	t.SetStatus(task.StatusRunning)
	if s.metrics != nil {
		s.metrics.RunningTasks.Inc()
	}

	go s.driveTask(t)

	return StatusOK, id, nil
}

// scalingFactor derives the integer scale a Task multiplies decimal input
// by before optimizing, per the request's declared decimal precision;
// units selects the number of decimal digits retained. Numeric parsing
// and decimal->integer scaling otherwise belong to the input boundary.
func scalingFactor(units int) int64 {
	factor := int64(1)
	for i := 0; i < units; i++ {
		factor *= 10
	}
	if factor < 1 {
		factor = 1
	}
	return factor
}

// startTask performs any setup that can fail before the task is registered
// and observable, so a failure here yields SERVER_UNAVAILABLE instead of a
// half-started task.
func (s *Service) startTask(t *task.Task) error {
	if t.Request == nil {
		return fmt.Errorf("task has no request")
	}
	return nil
}

// driveTask is the per-task driver thread: it spawns one per-material
// driver goroutine, waits for all of them, then finalizes the task.
func (s *Service) driveTask(t *task.Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task driver panicked", "task_id", t.ID, "panic", fmt.Sprint(r))
			t.Terminate(task.StatusError)
		}
	}()

	perf := s.performanceSettingsFor(t.Request.Configuration)
	byMaterial := groupByMaterial(t.Request.Panels, t.Request.StockPanels)

	ctx := context.Background()
	done := make(chan struct{}, len(byMaterial))
	for material, group := range byMaterial {
		material, group := material, group
		go func() {
			defer func() { done <- struct{}{} }()
			task.RunMaterialDriver(ctx, t, material, group.demand, group.stock, perf, s.executor, s.logger, s.metrics)
		}()
	}
	for range byMaterial {
		<-done
	}

	if t.Status() == task.StatusRunning {
		t.CheckIfFinished()
	}
	if s.metrics != nil {
		s.metrics.RunningTasks.Dec()
		s.metrics.FinishedTasks.WithLabelValues(t.Status().String()).Inc()
	}
}

type materialGroup struct {
	demand []model.TileDimensions
	stock  []model.TileDimensions
}

// groupByMaterial splits expanded demand/stock panels by material tag, the
// unit the per-material driver operates on independently, one goroutine
// per material.
func groupByMaterial(demandPanels, stockPanels []task.Panel) map[string]materialGroup {
	out := make(map[string]materialGroup)
	for _, d := range task.Expand(demandPanels) {
		g := out[d.Material]
		g.demand = append(g.demand, d)
		out[d.Material] = g
	}
	for _, st := range task.Expand(stockPanels) {
		g := out[st.Material]
		g.stock = append(g.stock, st)
		out[st.Material] = g
	}
	return out
}

// performanceSettingsFor resolves request-level overrides against the
// service's configured defaults.
func (s *Service) performanceSettingsFor(cfg task.Configuration) task.PerformanceSettings {
	perf := task.PerformanceSettings{
		CutThickness:             cfg.CutThickness,
		MinTrimDimension:         cfg.MinTrimDimension,
		ConsiderOrientation:      cfg.ConsiderOrientation,
		OptimizationFactor:       cfg.OptimizationFactor,
		OptimizationPriority:     cfg.OptimizationPriority,
		CutOrientationPreference: cfg.CutOrientationPreference,
		MaxSimultaneousThreads:   s.cfg.Performance.MaxSimultaneousThreads,
		ThreadCheckInterval:      s.cfg.Performance.ThreadCheckInterval,
	}
	if cfg.PerformanceThresholds != nil {
		if cfg.PerformanceThresholds.MaxSimultaneousThreads > 0 {
			perf.MaxSimultaneousThreads = cfg.PerformanceThresholds.MaxSimultaneousThreads
		}
		if cfg.PerformanceThresholds.ThreadCheckInterval > 0 {
			perf.ThreadCheckInterval = cfg.PerformanceThresholds.ThreadCheckInterval
		}
	}
	if perf.OptimizationFactor <= 0 {
		perf.OptimizationFactor = 1
	}
	return perf
}

// GetTaskStatus returns the task's status snapshot, with a response built
// from the task's current beams once the task is FINISHED or has an all-fit
// solution. The response is rebuilt on every call; no copy is cached. This
// is a read: it updates only lastQueried.
func (s *Service) GetTaskStatus(taskID string) (*TaskStatus, error) {
	t := s.registry.ByID(taskID)
	if t == nil {
		return nil, cutlisterr.New(cutlisterr.CategoryTaskNotFound, nil, map[string]any{"task_id": taskID})
	}
	t.Touch()

	status := &TaskStatus{
		StatusCode:     "0",
		Status:         t.Status().String(),
		PercentageDone: t.PercentageDone(),
		InitPercentage: t.InitPercentage(),
	}
	if t.Status() == task.StatusFinished || t.HasAllFitSolution() {
		status.Solution = response.Build(t)
	}
	return status, nil
}

// StopTask transitions t to STOPPED iff it is currently RUNNING; otherwise
// it is a no-op that returns the current status without mutation.
func (s *Service) StopTask(taskID string) (string, error) {
	return s.transitionTerminal(taskID, task.StatusStopped)
}

// TerminateTask transitions t to TERMINATED iff it is currently RUNNING,
// the same idempotence rule as StopTask.
func (s *Service) TerminateTask(taskID string) (string, error) {
	return s.transitionTerminal(taskID, task.StatusTerminated)
}

func (s *Service) transitionTerminal(taskID string, target task.Status) (string, error) {
	t := s.registry.ByID(taskID)
	if t == nil {
		return "", cutlisterr.New(cutlisterr.CategoryTaskNotFound, nil, map[string]any{"task_id": taskID})
	}
	if t.Status() != task.StatusRunning {
		return t.Status().String(), nil
	}
	t.Terminate(target)
	return t.Status().String(), nil
}

// GetStats returns the process-wide snapshot the watchdog and any
// monitoring surface read.
func (s *Service) GetStats() Stats {
	reports := s.watchdog.Sweep()
	byStatus := make(map[string]int)
	for _, r := range reports {
		byStatus[r.Status]++
	}
	return Stats{
		RunningThreads: s.executor.RunningCount(),
		QueuedThreads:  s.executor.QueuedCount(),
		ByStatus:       byStatus,
		Reports:        reports,
	}
}
