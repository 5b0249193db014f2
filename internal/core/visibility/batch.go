package visibility

import (
	"context"
	"runtime"

	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/pkg/concurrent"
)

// ComputeBatch evaluates independent queries on up to workers goroutines.
// Results keep the order of queries. The only error is ctx's.
func (e *Engine) ComputeBatch(ctx context.Context, queries []Query, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results, err := concurrent.ParallelMap(ctx, queries, workers, func(ctx context.Context, q Query) (Result, error) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return e.ComputeVisibility(q), nil
	})
	if err != nil {
		e.log.Warn("batch interrupted", log.Int("queries", len(queries)), log.Error(err))
		return nil, err
	}
	return results, nil
}
