package table_test

import (
	stderrors "errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	werrors "github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/series"
	"github.com/paveg/windowagg/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	mem := memory.NewGoAllocator()

	category := series.New("Category", []string{"A", "A", "B"}, mem)
	defer category.Release()
	value := series.New("Value", []int64{10, 15, 20}, mem)
	defer value.Release()

	tbl, err := table.New(category, value)
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 2, tbl.Width())
	assert.Equal(t, []string{"Category", "Value"}, tbl.Columns())
	assert.True(t, tbl.HasColumn("Value"))
	assert.False(t, tbl.HasColumn("Price"))

	c, ok := tbl.Column("Category")
	require.True(t, ok)
	assert.Equal(t, "Category", c.Name())

	assert.Contains(t, tbl.String(), "Table[3x2]")
	assert.Contains(t, tbl.String(), "Value: int64")
}

func TestNewTableRejectsMismatchedLengths(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := series.New("a", []int64{1, 2, 3}, mem)
	defer a.Release()
	b := series.New("b", []int64{1, 2}, mem)
	defer b.Release()

	_, err := table.New(a, b)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, werrors.ErrInvalidParameter))
}

func TestNewTableRejectsDuplicateNames(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := series.New("a", []int64{1}, mem)
	defer a.Release()
	b := series.New("a", []float64{1}, mem)
	defer b.Release()

	_, err := table.New(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column name")
}

func TestWithColumnLeavesReceiverUntouched(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := series.New("a", []int64{1, 2}, mem)
	defer a.Release()
	b := series.New("b", []float64{0.5, 1.5}, mem)
	defer b.Release()
	replacement := series.New("a", []int64{7, 8}, mem)
	defer replacement.Release()

	tbl, err := table.New(a)
	require.NoError(t, err)

	extended, err := tbl.WithColumn(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, extended.Columns())
	assert.Equal(t, []string{"a"}, tbl.Columns())

	replaced, err := extended.WithColumn(replacement)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, replaced.Columns())
	col, _ := replaced.Column("a")
	assert.Equal(t, []int64{7, 8}, col.(*series.Series[int64]).Values())

	short := series.New("c", []int64{1}, mem)
	defer short.Release()
	_, err = tbl.WithColumn(short)
	assert.Error(t, err)
}

func TestEmptyTable(t *testing.T) {
	tbl, err := table.New()
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, "Table[empty]", tbl.String())
}
