package permutation

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Spawner throttles concurrent worker goroutines to at most
// maxSimultaneousThreads, blocking new spawns while the limit is reached
// and polling every threadCheckInterval so callers can refresh progress in
// between. Backed by golang.org/x/sync/semaphore in place of a hand-rolled
// counting loop.
type Spawner struct {
	sem                 *semaphore.Weighted
	threadCheckInterval time.Duration
	wg                  sync.WaitGroup
}

// NewSpawner creates a Spawner with the given concurrency limit and poll
// cadence.
func NewSpawner(maxSimultaneousThreads int, threadCheckInterval time.Duration) *Spawner {
	if maxSimultaneousThreads < 1 {
		maxSimultaneousThreads = 1
	}
	return &Spawner{
		sem:                 semaphore.NewWeighted(int64(maxSimultaneousThreads)),
		threadCheckInterval: threadCheckInterval,
	}
}

// Spawn blocks until a slot is free (or ctx is cancelled), then runs
// worker on its own goroutine. onWait, when non-nil, is called
// once per threadCheckInterval tick while Spawn is blocked, letting the
// caller refresh progress reporting exactly as the per-material driver's
// spawn loop does.
func (s *Spawner) Spawn(ctx context.Context, worker func(context.Context), onWait func()) error {
	interval := s.threadCheckInterval
	if interval <= 0 {
		interval = time.Second
	}

	for {
		acquireCtx, cancel := context.WithTimeout(ctx, interval)
		err := s.sem.Acquire(acquireCtx, 1)
		cancel()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if onWait != nil {
			onWait()
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		worker(ctx)
	}()
	return nil
}

// Wait blocks until every spawned worker has returned.
func (s *Spawner) Wait() {
	s.wg.Wait()
}
