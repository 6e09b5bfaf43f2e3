package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutlistopt/engine/pkg/cutlistconfig"
	"github.com/cutlistopt/engine/pkg/cutlisterr"
	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/metrics"
	"github.com/cutlistopt/engine/pkg/task"
)

func newTestService() *Service {
	cfg := cutlistconfig.DefaultConfig()
	cfg.Performance.ThreadCheckInterval = time.Millisecond
	logger := logging.New(logging.Config{Level: logging.LevelError, Format: logging.FormatJSON, Output: nil})
	m := metrics.New(prometheus.NewRegistry())
	return New(cfg, logger, m)
}

func demandAndStock() *task.CalculationRequest {
	return &task.CalculationRequest{
		Panels:      []task.Panel{{ID: 1, Width: 40, Height: 40, Count: 1, Enabled: true}},
		StockPanels: []task.Panel{{ID: 9, Width: 100, Height: 100, Count: 1, Enabled: true}},
	}
}

func TestSubmitTaskRejectsEmptyDemand(t *testing.T) {
	s := newTestService()
	req := demandAndStock()
	req.Panels = nil

	code, id, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	assert.Equal(t, StatusInvalidTiles, code)
	assert.Empty(t, id)
	require.Error(t, err)
	var cerr *cutlisterr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cutlisterr.CategoryInvalidInput, cerr.Category)
}

func TestSubmitTaskRejectsEmptyStock(t *testing.T) {
	s := newTestService()
	req := demandAndStock()
	req.StockPanels = nil

	code, _, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	assert.Equal(t, StatusInvalidStockTiles, code)
	require.Error(t, err)
}

func TestSubmitTaskRejectsTooManyPanels(t *testing.T) {
	s := newTestService()
	req := demandAndStock()
	req.Panels[0].Count = maxPanelCount + 1

	code, _, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	assert.Equal(t, StatusTooManyPanels, code)
	require.Error(t, err)
}

func TestSubmitTaskAcceptsValidRequestAndRunsToCompletion(t *testing.T) {
	s := newTestService()
	req := demandAndStock()

	code, id, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, code)
	require.NotEmpty(t, id)

	deadline := time.Now().Add(5 * time.Second)
	var status *TaskStatus
	for time.Now().Before(deadline) {
		status, err = s.GetTaskStatus(id)
		require.NoError(t, err)
		if status.Status == "FINISHED" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, "FINISHED", status.Status)
	require.NotNil(t, status.Solution)
	assert.Equal(t, float64(1600), status.Solution.TotalUsedArea)
}

func TestSubmitTaskRejectsSecondConcurrentTaskForSameClientByDefault(t *testing.T) {
	s := newTestService()
	req1 := demandAndStock()
	code, _, err := s.SubmitTask(req1, task.ClientInfo{ID: "c1"})
	require.NoError(t, err)
	require.Equal(t, StatusOK, code)

	req2 := demandAndStock()
	code2, _, err2 := s.SubmitTask(req2, task.ClientInfo{ID: "c1"})
	assert.Equal(t, StatusTaskAlreadyRunning, code2)
	require.Error(t, err2)
}

func TestGetTaskStatusUnknownIDReturnsNotFoundError(t *testing.T) {
	s := newTestService()
	_, err := s.GetTaskStatus("does-not-exist")
	require.Error(t, err)
	var cerr *cutlisterr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cutlisterr.CategoryTaskNotFound, cerr.Category)
}

func TestStopTaskIsIdempotentOnNonRunningTask(t *testing.T) {
	s := newTestService()
	req := demandAndStock()
	_, id, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	require.NoError(t, err)

	status1, err := s.StopTask(id)
	require.NoError(t, err)
	assert.Equal(t, "STOPPED", status1)

	status2, err := s.StopTask(id)
	require.NoError(t, err)
	assert.Equal(t, status1, status2)
}

func TestGetStatsReflectsRunningTasks(t *testing.T) {
	s := newTestService()
	req := demandAndStock()
	_, _, err := s.SubmitTask(req, task.ClientInfo{ID: "c1"})
	require.NoError(t, err)

	stats := s.GetStats()
	assert.NotEmpty(t, stats.Reports)
}
