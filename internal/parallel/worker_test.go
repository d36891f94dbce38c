package parallel_test

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paveg/windowagg/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.Workers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.Workers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.Workers())
}

func TestProcessIndexed(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	input := []string{"a", "b", "c", "d"}

	results := parallel.ProcessIndexed(pool, input, func(index int, value string) string {
		return value + string(rune('0'+index))
	})

	assert.Equal(t, []string{"a0", "b1", "c2", "d3"}, results)
}

func TestProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results := parallel.ProcessIndexed(pool, []string{}, func(_ int, value string) string {
		return value
	})

	assert.Nil(t, results)
}

func TestProcessIndexedConcurrency(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	var concurrentCount int64
	var maxConcurrent int64

	input := make([]int, 20)
	for i := range input {
		input[i] = i
	}

	results := parallel.ProcessIndexed(pool, input, func(_ int, x int) int {
		current := atomic.AddInt64(&concurrentCount, 1)
		for {
			maxVal := atomic.LoadInt64(&maxConcurrent)
			if current <= maxVal || atomic.CompareAndSwapInt64(&maxConcurrent, maxVal, current) {
				break
			}
		}

		time.Sleep(10 * time.Millisecond)

		atomic.AddInt64(&concurrentCount, -1)
		return x * 2
	})

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
	assert.Greater(t, maxConcurrent, int64(1), "Expected some concurrent execution")
	assert.LessOrEqual(t, maxConcurrent, int64(4))
}

func TestProcessIndexedErr(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()

	input := []int{1, 2, 3, 4, 5}
	results, err := parallel.ProcessIndexedErr(pool, input, func(_ int, x int) (int, error) {
		return x * x, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, results)
}

func TestProcessIndexedErrStopsAtFirstError(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	boom := errors.New("partition 3 failed")
	var calls int64

	input := make([]int, 100)
	results, err := parallel.ProcessIndexedErr(pool, input, func(i int, _ int) (int, error) {
		atomic.AddInt64(&calls, 1)
		if i == 3 {
			return 0, boom
		}
		time.Sleep(time.Millisecond)
		return i, nil
	})

	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)
	assert.Less(t, atomic.LoadInt64(&calls), int64(100))
}

func TestProcessIndexedErrEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results, err := parallel.ProcessIndexedErr(pool, []int{}, func(_ int, x int) (int, error) {
		return x, nil
	})

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestWorkerPoolClose(t *testing.T) {
	pool := parallel.NewWorkerPool(2)

	results := parallel.ProcessIndexed(pool, []int{1, 2, 3}, func(_ int, x int) int {
		return x
	})
	assert.Equal(t, []int{1, 2, 3}, results)

	pool.Close()
	assert.NotPanics(t, func() {
		pool.Close()
	})

	_, err := parallel.ProcessIndexedErr(pool, []int{1}, func(_ int, x int) (int, error) {
		return x, nil
	})
	assert.Error(t, err)
}

func TestLargeDataset(t *testing.T) {
	pool := parallel.NewWorkerPool(runtime.NumCPU())
	defer pool.Close()

	size := 1000
	input := make([]int, size)
	for i := range size {
		input[i] = i
	}

	results := parallel.ProcessIndexed(pool, input, func(_ int, x int) int {
		return x*x + x + 1
	})

	require.Len(t, results, size)
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 3, results[1])
	assert.Equal(t, 7, results[2])
}
