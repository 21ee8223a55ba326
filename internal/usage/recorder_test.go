package usage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementAndGet(t *testing.T) {
	ctx := context.Background()
	rec := NewInMemoryRecorder()

	total, err := rec.Increment(ctx, "company-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, err = rec.Increment(ctx, "company-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	got, err := rec.Get(ctx, "company-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = rec.Get(ctx, "company-unknown")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestParallelIncrementsLoseNothing(t *testing.T) {
	ctx := context.Background()
	rec := NewInMemoryRecorder()

	const goroutines = 16
	const perGoroutine = 200
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, _ = rec.Increment(ctx, "company-1")
			}
		}()
	}
	wg.Wait()

	total, err := rec.Get(ctx, "company-1")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine), total)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	rec := NewInMemoryRecorder()
	_, err := rec.Increment(ctx, "company-1")
	require.NoError(t, err)

	require.NoError(t, rec.Reset(ctx, "company-1"))
	total, err := rec.Get(ctx, "company-1")
	require.NoError(t, err)
	assert.Zero(t, total)
}
