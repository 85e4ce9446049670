package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepeatUntilDone(t *testing.T) {
	calls := 0
	err := RepeatUntil(context.Background(), 0, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRepeatUntilError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RepeatUntil(context.Background(), 0, func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRepeatUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := RepeatUntil(ctx, time.Minute, func(ctx context.Context) (bool, error) {
		cancel()
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRepeatUntilCancelledBeforeFirstCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RepeatUntil(ctx, time.Minute, func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Jitter(base, 2)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, 3*base)
	}
}
