package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBlocksAfterLimit(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), "test", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	// 其它客户端不受影响
	res, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)
}

func TestLimiterResetsOnNewWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	l := NewLimiter(store, "test", 1, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryStoreDropsExpiredWindows(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	l := NewLimiter(store, "test", 5, time.Second)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		now = now.Add(time.Second)
	}
	assert.LessOrEqual(t, store.Len(), sweepEvery)
}

func TestLimiterNonPositiveWindow(t *testing.T) {
	for _, window := range []time.Duration{0, -time.Second} {
		l := NewLimiter(NewMemoryStore(), "test", 1, window)
		assert.Equal(t, DefaultWindow, l.Window())

		assert.NotPanics(t, func() {
			res, err := l.Allow(context.Background(), "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed)
		})
	}
}
