package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), Policy{MaxRetries: 3, Delay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, sentinel, err)
}

func TestDoSingleAttemptWhenNoRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{MaxRetries: 1, Delay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return errors.New("fail")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{MaxRetries: 5, Delay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, Policy{MaxRetries: 100, Delay: time.Second}, func(ctx context.Context) error {
		attempts++
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoValueReturnsLastValue(t *testing.T) {
	attempts := 0
	v, err := DoValue(context.Background(), Policy{MaxRetries: 3, Delay: time.Millisecond}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, attempts)
}

func TestDoZeroMaxRetriesStillRunsOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{}, func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
