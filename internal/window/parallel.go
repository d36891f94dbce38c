package window

import (
	"github.com/paveg/windowagg/internal/parallel"
)

// shouldUseParallel reports whether the partitions are worth spreading over workers.
// Both the partition count and the total row count must cross their thresholds.
func (e *Engine) shouldUseParallel(groups []Group, totalRows int) bool {
	return len(groups) >= max(2, e.cfg.MinPartitionsForParallel) &&
		totalRows >= e.cfg.ParallelThreshold
}

// reducePartitions runs fn over every group, on the worker pool when parallel is set.
// Results come back in group order. The first error stops the remaining groups.
func (e *Engine) reducePartitions(
	groups []Group,
	usePar bool,
	fn func(Group) (partitionResult, error),
) ([]partitionResult, error) {
	if !usePar {
		results := make([]partitionResult, len(groups))
		for i, g := range groups {
			r, err := fn(g)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	pool := parallel.NewWorkerPool(e.cfg.WorkerPoolSize)
	defer pool.Close()

	return parallel.ProcessIndexedErr(pool, groups, func(_ int, g Group) (partitionResult, error) {
		return fn(g)
	})
}

// rankPartitions runs fn over every group. Ranking cannot fail.
func (e *Engine) rankPartitions(groups []Group, usePar bool, fn func(Group) partitionResult) []partitionResult {
	if !usePar {
		results := make([]partitionResult, len(groups))
		for i, g := range groups {
			results[i] = fn(g)
		}
		return results
	}

	pool := parallel.NewWorkerPool(e.cfg.WorkerPoolSize)
	defer pool.Close()

	return parallel.ProcessIndexed(pool, groups, func(_ int, g Group) partitionResult {
		return fn(g)
	})
}
