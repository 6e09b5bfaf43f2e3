package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	m.RunningTasks.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RunningTasks))
}

func TestFinishedTasksCounterVecIsLabeled(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FinishedTasks.WithLabelValues("FINISHED").Inc()
	m.FinishedTasks.WithLabelValues("FINISHED").Inc()
	m.FinishedTasks.WithLabelValues("ERROR").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.FinishedTasks.WithLabelValues("FINISHED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FinishedTasks.WithLabelValues("ERROR")))
}

func TestTaskPercentageDoneGaugeVecPerTask(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TaskPercentageDone.WithLabelValues("t1").Set(42)
	m.TaskPercentageDone.WithLabelValues("t2").Set(99)

	assert.Equal(t, float64(42), testutil.ToFloat64(m.TaskPercentageDone.WithLabelValues("t1")))
	assert.Equal(t, float64(99), testutil.ToFloat64(m.TaskPercentageDone.WithLabelValues("t2")))
}

func TestPlacementLatencyObservesSamples(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PlacementLatency.Observe(0.05)
	m.PlacementLatency.Observe(0.15)

	families, err := reg.Gather()
	require.NoError(t, err)
	var count uint64
	for _, f := range families {
		if f.GetName() == "cutlistopt_cutworker_placement_seconds" {
			count = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), count)
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
