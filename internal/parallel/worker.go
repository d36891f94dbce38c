// Package parallel provides the worker pool used to process independent
// window partitions concurrently.
//
// Partitions never share mutable state: each work item owns its inputs and
// produces its own result, and results are joined back in submission order.
// Two fan-out/fan-in variants are provided:
//   - ProcessIndexed for workers that cannot fail
//   - ProcessIndexedErr for workers that can fail, stopping at the first error
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. Non-positive sizes use runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	results := make([]R, len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.workersFor(len(items)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					// Each index is written by exactly one worker.
					results[item.index] = worker(item.index, item.value)
				}
			}
		}()
	}

	for i, item := range items {
		itemCh <- indexedItem[T]{index: i, value: item}
	}
	close(itemCh)
	wg.Wait()

	return results
}

// ProcessIndexedErr executes fallible work items in parallel while preserving order.
// The first error cancels the remaining items and is returned.
func ProcessIndexedErr[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	g, ctx := errgroup.WithContext(wp.ctx)
	g.SetLimit(wp.workersFor(len(items)))

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := worker(i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := wp.ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

func (wp *WorkerPool) workersFor(items int) int {
	if items < wp.numWorkers {
		return items
	}
	return wp.numWorkers
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}
