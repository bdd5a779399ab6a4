package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAdmitsUpToQPS(t *testing.T) {
	l := NewLimiter(3, 1000)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx, 1))
	}

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := l.Acquire(blocked, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireAdmitsAfterWindowSlides(t *testing.T) {
	current := time.Now()
	l := NewLimiter(2, 1000)
	l.now = func() time.Time { return current }

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx, 1))
	require.NoError(t, l.Acquire(ctx, 1))

	current = current.Add(1100 * time.Millisecond)
	require.NoError(t, l.Acquire(ctx, 1))
	assert.Len(t, l.requests, 1)
}

func TestAcquireEnforcesTokenBudget(t *testing.T) {
	current := time.Now()
	l := NewLimiter(100, 10)
	l.now = func() time.Time { return current }

	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx, 6))

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := l.Acquire(blocked, 6)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	current = current.Add(61 * time.Second)
	require.NoError(t, l.Acquire(ctx, 6))
}

func TestAcquireConcurrentNeverOverAdmits(t *testing.T) {
	l := NewLimiter(1000, 100000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.Acquire(ctx, 10))
		}()
	}
	wg.Wait()

	assert.Len(t, l.requests, 50)
	assert.Equal(t, 500, l.tokensInWindow())
}

func TestAcquireCancelledContext(t *testing.T) {
	l := NewLimiter(1, 1000)
	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx, 1))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := l.Acquire(cancelled, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
