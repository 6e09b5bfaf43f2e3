package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutorRunsSubmittedJobs(t *testing.T) {
	e := NewExecutor(2, 4)
	defer e.Shutdown()

	var wg sync.WaitGroup
	wg.Add(3)
	var ran int32
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		ok := e.Submit(func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		})
		assert.True(t, ok)
	}
	wg.Wait()
	assert.Equal(t, int32(3), ran)
}

func TestExecutorRejectsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	e := NewExecutor(1, 1)
	defer func() {
		close(release)
		e.Shutdown()
	}()

	require := func(ok bool) {
		if !ok {
			t.Fatalf("expected submit to succeed")
		}
	}
	require(e.Submit(func(ctx context.Context) {
		started <- struct{}{}
		<-release
	}))
	<-started // first job now occupies the sole worker

	// The queue's one buffer slot is now free to take a second job while
	// the worker is blocked on the first; a third submission must be rejected.
	require(e.Submit(func(ctx context.Context) { <-release }))
	rejected := e.Submit(func(ctx context.Context) {})
	assert.False(t, rejected)
}

func TestExecutorFloorsPoolAndQueueSizeAtOne(t *testing.T) {
	e := NewExecutor(0, 0)
	defer e.Shutdown()
	assert.True(t, e.Submit(func(ctx context.Context) {}))
}

func TestExecutorRunningAndQueuedCounts(t *testing.T) {
	release := make(chan struct{})
	e := NewExecutor(1, 2)
	defer func() {
		close(release)
		e.Shutdown()
	}()

	e.Submit(func(ctx context.Context) { <-release })
	e.Submit(func(ctx context.Context) { <-release })

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.RunningCount() == 1 && e.QueuedCount() == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 1, e.RunningCount())
	assert.Equal(t, 1, e.QueuedCount())
}

func TestExecutorShutdownDrainsRunningJobs(t *testing.T) {
	e := NewExecutor(2, 2)
	var finished int32
	var mu sync.Mutex
	e.Submit(func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		finished++
		mu.Unlock()
	})
	e.Shutdown()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), finished)
}
