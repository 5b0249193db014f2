package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParallelMapKeepsOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	out, err := ParallelMap(context.Background(), in, 4, func(_ context.Context, v int) (int, error) {
		return v * v, nil
	})
	require.NoError(t, err)
	for i, v := range out {
		require.Equal(t, i*i, v)
	}
}

func TestParallelMapStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	out, err := ParallelMap(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, out)
}

func TestParallelMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParallelMap(ctx, []int{1, 2}, 2, func(ctx context.Context, v int) (int, error) {
		return v, ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrent(t *testing.T) {
	var sum atomic.Int64
	err := Concurrent([]int64{1, 2, 3, 4}, func(v int64) error {
		sum.Add(v)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 10, sum.Load())
}
