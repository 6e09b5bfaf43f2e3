package service

import (
	"context"
	"sync"
	"sync/atomic"
)

// Executor is the fixed-size worker pool with a bounded FIFO queue.
// Rejection returns false; the caller never observes an exception, it
// just logs and drops the handle.
type Executor struct {
	jobs    chan func(context.Context)
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running int32 // atomic
	queued  int32 // atomic
}

// NewExecutor creates an Executor with poolSize worker goroutines and a
// queue bounded at queueCapacity.
func NewExecutor(poolSize, queueCapacity int) *Executor {
	if poolSize < 1 {
		poolSize = 1
	}
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		jobs:   make(chan func(context.Context), queueCapacity),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < poolSize; i++ {
		e.wg.Add(1)
		go e.loop()
	}
	return e
}

func (e *Executor) loop() {
	defer e.wg.Done()
	for job := range e.jobs {
		atomic.AddInt32(&e.queued, -1)
		atomic.AddInt32(&e.running, 1)
		job(e.ctx)
		atomic.AddInt32(&e.running, -1)
	}
}

// Submit enqueues job, returning false if the queue is full.
func (e *Executor) Submit(job func(context.Context)) bool {
	atomic.AddInt32(&e.queued, 1)
	select {
	case e.jobs <- job:
		return true
	default:
		atomic.AddInt32(&e.queued, -1)
		return false
	}
}

// RunningCount returns the number of jobs currently executing.
func (e *Executor) RunningCount() int { return int(atomic.LoadInt32(&e.running)) }

// QueuedCount returns the number of jobs waiting in the queue.
func (e *Executor) QueuedCount() int { return int(atomic.LoadInt32(&e.queued)) }

// Shutdown stops accepting new jobs, cancels the executor context, and
// waits for in-flight workers to drain.
func (e *Executor) Shutdown() {
	close(e.jobs)
	e.cancel()
	e.wg.Wait()
}
