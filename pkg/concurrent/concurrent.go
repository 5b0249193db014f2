package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each element in its own goroutine and waits for
// all of them. It returns the first error encountered.
func Concurrent[T any](in []T, action func(T) error) error {
	errGroup := errgroup.Group{}
	for _, value := range in {
		value := value
		errGroup.Go(func() error {
			return action(value)
		})
	}
	return errGroup.Wait()
}

// ParallelMap applies mapFn to every element on at most workers goroutines,
// preserving order. The first error cancels the context passed to the
// remaining calls and is returned.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for idx, val := range in {
		idx, val := idx, val
		g.Go(func() error {
			r, err := mapFn(ctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
