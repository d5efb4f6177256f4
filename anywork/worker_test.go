package anywork_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/anywork"
)

func TestFanoutVisitsEveryIndex(t *testing.T) {
	seen := make([]int32, 20)
	err := anywork.Fanout(context.Background(), len(seen), 3, func(ctx context.Context, index int) error {
		atomic.AddInt32(&seen[index], 1)
		return nil
	})
	require.NoError(t, err)
	for index, count := range seen {
		assert.Equal(t, int32(1), count, "index %d", index)
	}
}

func TestFanoutRespectsLimit(t *testing.T) {
	var running, peak int32
	err := anywork.Fanout(context.Background(), 12, 2, func(ctx context.Context, index int) error {
		now := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestFanoutReportsFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	err := anywork.Fanout(context.Background(), 5, 1, func(ctx context.Context, index int) error {
		if index == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestFirstFailureCancelsTheRest(t *testing.T) {
	boom := errors.New("boom")
	var started int32
	group := anywork.NewGroup(context.Background(), 1)
	group.Backlog(func(ctx context.Context) error {
		atomic.AddInt32(&started, 1)
		return boom
	})
	for i := 0; i < 5; i++ {
		group.Backlog(func(ctx context.Context) error {
			atomic.AddInt32(&started, 1)
			return nil
		})
	}
	assert.ErrorIs(t, group.Sync(), boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&started))
}

func TestFanoutOnCancelledContextReportsIt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := anywork.Fanout(ctx, 3, 1, func(context.Context, int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
