package stockpicker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cutlistopt/engine/pkg/logging"
	"github.com/cutlistopt/engine/pkg/mosaic"
)

// pollInterval is the consumer-facing poll cadence for GetStockSolution:
// one second.
const pollInterval = time.Second

// Sorter owns a growing, ascending-by-total-area list of stock bundles,
// fed by a Generator on one goroutine and consumed by candidate workers
// polling GetStockSolution. The generator-feed and list-maintenance
// goroutines are supervised together with an errgroup so either's error
// (or context cancellation) tears down both cleanly.
type Sorter struct {
	gen    *Generator
	stopCh <-chan struct{}
	logger *logging.Logger

	mu        sync.RWMutex
	solutions []*mosaic.StockBundle

	alive int32 // atomic bool, 1 while Run is executing
}

// NewSorter creates a Sorter pulling bundles from gen until stopCh closes.
func NewSorter(gen *Generator, stopCh <-chan struct{}, logger *logging.Logger) *Sorter {
	return &Sorter{gen: gen, stopCh: stopCh, logger: logger, alive: 1}
}

// Run drives the generator-feed/list-maintenance goroutine pair until the
// task stops, the generator is exhausted, or hasAllFitSolution reports true
// with at least 100 bundles already generated.
func (s *Sorter) Run(ctx context.Context, hasAllFitSolution func() bool) error {
	defer atomic.StoreInt32(&s.alive, 0)

	g, gctx := errgroup.WithContext(ctx)
	bundles := make(chan *mosaic.StockBundle)
	consumerDone := make(chan struct{})

	g.Go(func() error {
		defer close(bundles)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-s.stopCh:
				return nil
			default:
			}
			b, ok := s.gen.Next()
			if !ok {
				return nil
			}
			select {
			case bundles <- b:
			case <-consumerDone:
				return nil
			case <-gctx.Done():
				return nil
			case <-s.stopCh:
				return nil
			}
		}
	})

	g.Go(func() error {
		defer close(consumerDone)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-s.stopCh:
				return nil
			case b, ok := <-bundles:
				if !ok {
					return nil
				}
				s.insert(b)
				if !b.IsUniform() {
					s.insert(b.Descending())
				}
				if hasAllFitSolution != nil && hasAllFitSolution() && s.count() >= 100 {
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil && s.logger != nil {
		s.logger.Warn("stock sorter stopped with error", "error", err.Error())
		return err
	}
	return nil
}

func (s *Sorter) insert(b *mosaic.StockBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.solutions), func(i int) bool {
		return s.solutions[i].TotalArea >= b.TotalArea
	})
	s.solutions = append(s.solutions, nil)
	copy(s.solutions[i+1:], s.solutions[i:])
	s.solutions[i] = b
}

func (s *Sorter) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.solutions)
}

// GetStockSolution is the consumer-facing call: blocks, polling every
// second, until index i exists or the sorter has stopped. Returns ok=false
// on exhaustion.
func (s *Sorter) GetStockSolution(ctx context.Context, i int) (*mosaic.StockBundle, bool) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		s.mu.RLock()
		if i < len(s.solutions) {
			b := s.solutions[i]
			s.mu.RUnlock()
			return b, true
		}
		dead := atomic.LoadInt32(&s.alive) == 0
		s.mu.RUnlock()
		if dead {
			s.mu.RLock()
			ready := i < len(s.solutions)
			var b *mosaic.StockBundle
			if ready {
				b = s.solutions[i]
			}
			s.mu.RUnlock()
			return b, ready
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-s.stopCh:
			return nil, false
		case <-ticker.C:
		}
	}
}
