// Package testutil provides common testing utilities shared by the windowing tests:
// - Memory allocator setup and cleanup
// - Standard test table creation
// - Float64 result assertions
package testutil

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/windowagg/internal/series"
	"github.com/paveg/windowagg/internal/table"
)

// Missing marks an expected missing position in AssertFloat64s
var Missing = math.NaN()

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator with automatic cleanup for tests.
// Returns a TestMemoryContext that should be released with defer.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewGoAllocator(),
		cleanup:   func() {},
	}
}

// SetupCheckedMemoryTest creates an allocator that fails the test if any
// allocation is still live once the test and its deferred releases finish.
func SetupCheckedMemoryTest(tb testing.TB) *memory.CheckedAllocator {
	tb.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	tb.Cleanup(func() {
		mem.AssertSize(tb, 0)
	})
	return mem
}

// TestTable bundles a table with the columns it was built from
type TestTable struct {
	*table.Table
	columns []table.Column
}

// Release releases every column of the table
func (tt *TestTable) Release() {
	for _, c := range tt.columns {
		c.Release()
	}
}

// NewTestTable builds a table from cols, failing the test on a shape error
func NewTestTable(tb testing.TB, cols ...table.Column) *TestTable {
	tb.Helper()
	t, err := table.New(cols...)
	require.NoError(tb, err)
	return &TestTable{Table: t, columns: cols}
}

// CreateScenarioTable creates the reference table used across the window tests:
//
//	Category: A  A  B  B  A  B
//	Value:    10 15 20 25 12 18
func CreateScenarioTable(tb testing.TB, mem memory.Allocator) *TestTable {
	tb.Helper()
	return NewTestTable(tb,
		series.New("Category", []string{"A", "A", "B", "B", "A", "B"}, mem),
		series.New("Value", []int64{10, 15, 20, 25, 12, 18}, mem),
	)
}

// CreateLargeTable creates a table with rows rows spread round-robin over partitions keys
func CreateLargeTable(tb testing.TB, mem memory.Allocator, rows, partitions int) *TestTable {
	tb.Helper()
	keys := make([]int64, rows)
	values := make([]float64, rows)
	for i := range rows {
		keys[i] = int64(i % partitions)
		values[i] = float64((i*7919)%1000) / 10
	}
	return NewTestTable(tb,
		series.New("key", keys, mem),
		series.New("value", values, mem),
	)
}

// Float64s reads a Float64 array; missing positions are returned as NaN
func Float64s(arr arrow.Array) []float64 {
	f, ok := arr.(*array.Float64)
	if !ok {
		return nil
	}
	out := make([]float64, f.Len())
	for i := range out {
		if f.IsNull(i) {
			out[i] = Missing
			continue
		}
		out[i] = f.Value(i)
	}
	return out
}

// AssertFloat64s checks a Float64 result against expected values.
// A NaN in expected requires the position to be missing.
func AssertFloat64s(tb testing.TB, expected []float64, actual arrow.Array) {
	tb.Helper()

	require.NotNil(tb, actual, "result should not be nil")
	require.Equal(tb, arrow.FLOAT64, actual.DataType().ID(), "result should be float64")
	require.Equal(tb, len(expected), actual.Len(), "result length should match")

	f := actual.(*array.Float64)
	for i, want := range expected {
		if math.IsNaN(want) {
			assert.True(tb, f.IsNull(i), "row %d should be missing, got %v", i, f.Value(i))
			continue
		}
		if assert.False(tb, f.IsNull(i), "row %d should not be missing", i) {
			assert.InDelta(tb, want, f.Value(i), 1e-9, "row %d", i)
		}
	}
}

// AssertIdentical checks that two Float64 results are bit-for-bit equal
func AssertIdentical(tb testing.TB, expected, actual arrow.Array) {
	tb.Helper()

	require.Equal(tb, expected.Len(), actual.Len(), "result lengths should match")
	e, a := expected.(*array.Float64), actual.(*array.Float64)
	for i := range e.Len() {
		require.Equal(tb, e.IsNull(i), a.IsNull(i), "row %d missing flag", i)
		if !e.IsNull(i) {
			assert.Equal(tb, math.Float64bits(e.Value(i)), math.Float64bits(a.Value(i)), "row %d bits", i)
		}
	}
}
