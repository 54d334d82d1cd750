package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// countingCompute returns a compute func that yields the call number
func countingCompute(calls *atomic.Int32) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}
}

func TestCell_GetWithinTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cell := NewWithClock[int](time.Minute, clock.Now)
	var calls atomic.Int32

	v1, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	clock.Advance(59 * time.Second)
	v2, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 1, v2, "must answer from cache inside the TTL window")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCell_GetAfterTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cell := NewWithClock[int](time.Minute, clock.Now)
	var calls atomic.Int32

	_, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	assert.False(t, cell.Valid(), "a value exactly ttl old is expired")

	v, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load(), "must refresh exactly once after expiry")

	v, err = cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCell_FailureLeavesCellInvalid(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cell := NewWithClock[string](time.Hour, clock.Now)
	expErr := errors.New("remote down")

	_, err := cell.Get(context.Background(), func(context.Context) (string, error) {
		return "", expErr
	})
	require.ErrorIs(t, err, expErr)
	assert.False(t, cell.Valid())

	// no time passes; the next call must retry rather than wait out the TTL
	v, err := cell.Get(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestCell_ExpiredValueDiscardedOnFailure(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cell := NewWithClock[string](time.Second, clock.Now)

	_, err := cell.Get(context.Background(), func(context.Context) (string, error) { return "old", nil })
	require.NoError(t, err)
	clock.Advance(2 * time.Second)

	v, err := cell.Get(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, v, "stale value must not be served after a failed refresh")

	_, ok := cell.Peek()
	assert.False(t, ok)
}

func TestCell_CanceledContext(t *testing.T) {
	t.Parallel()

	cell := New[int](time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := cell.Get(ctx, countingCompute(&calls))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestCell_Invalidate(t *testing.T) {
	t.Parallel()

	cell := New[int](time.Hour)
	var calls atomic.Int32

	_, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	cell.Invalidate()
	v, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)

	assert.Equal(t, 2, v)
}

func TestCell_ConcurrentRefreshRunsOnce(t *testing.T) {
	t.Parallel()

	cell := New[int](time.Hour)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Go(func() {
			v, err := cell.Get(context.Background(), compute)
			assert.NoError(t, err)
			results[i] = v
		})
	}
	// let the goroutines pile up on the cell before releasing the fetch
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one refresh")
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCell_IndependentCellsDoNotContend(t *testing.T) {
	t.Parallel()

	slow := New[int](time.Hour)
	fast := New[int](time.Hour)
	block := make(chan struct{})
	defer close(block)

	go func() {
		_, _ = slow.Get(context.Background(), func(context.Context) (int, error) {
			<-block
			return 1, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_, _ = fast.Get(context.Background(), func(context.Context) (int, error) { return 2, nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh of one cell blocked an unrelated cell")
	}
}

func TestCell_Forever(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cell := NewWithClock[int](Forever, clock.Now)
	var calls atomic.Int32

	_, err := cell.Get(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("unreachable")
	})
	require.Error(t, err)
	assert.False(t, cell.Valid(), "a failure is not kept")

	v, err := cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(365 * 24 * time.Hour)
	v, err = cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v, "never expires")
	assert.Equal(t, int32(1), calls.Load())

	cell.Invalidate()
	v, err = cell.Get(context.Background(), countingCompute(&calls))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
