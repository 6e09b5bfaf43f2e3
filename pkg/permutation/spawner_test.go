package permutation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnerRunsWorkerConcurrently(t *testing.T) {
	s := NewSpawner(2, 10*time.Millisecond)
	var count int32

	for i := 0; i < 2; i++ {
		err := s.Spawn(context.Background(), func(ctx context.Context) {
			atomic.AddInt32(&count, 1)
		}, nil)
		require.NoError(t, err)
	}
	s.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}

func TestSpawnerBlocksUntilSlotFrees(t *testing.T) {
	s := NewSpawner(1, 5*time.Millisecond)
	release := make(chan struct{})

	err := s.Spawn(context.Background(), func(ctx context.Context) {
		<-release
	}, nil)
	require.NoError(t, err)

	var waited int32
	done := make(chan struct{})
	go func() {
		err := s.Spawn(context.Background(), func(ctx context.Context) {}, func() {
			atomic.StoreInt32(&waited, 1)
		})
		assert.NoError(t, err)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&waited), "onWait must fire while the single slot is occupied")

	close(release)
	<-done
	s.Wait()
}

func TestSpawnerRespectsContextCancellation(t *testing.T) {
	s := NewSpawner(1, 5*time.Millisecond)
	block := make(chan struct{})
	defer close(block)

	err := s.Spawn(context.Background(), func(ctx context.Context) {
		<-block
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Spawn(ctx, func(ctx context.Context) {}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSpawnerFloorsConcurrencyAtOne(t *testing.T) {
	s := NewSpawner(0, time.Millisecond)
	require.NotNil(t, s.sem)
	assert.True(t, s.sem.TryAcquire(1))
	assert.False(t, s.sem.TryAcquire(1), "a floored spawner has exactly one slot")
}
