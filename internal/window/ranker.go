package window

import (
	"cmp"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/exp/constraints"

	"github.com/paveg/windowagg/internal/errors"
)

// ranker ranks the rows of one partition
type ranker interface {
	rank(rows []int, method RankMethod, descending, pct bool) partitionResult
}

// orderedColumn holds a rankable column materialized in row order
type orderedColumn[T constraints.Ordered] struct {
	values []T
	valid  []bool
}

func newRanker(op, column string, arr arrow.Array) (ranker, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return newOrderedColumn[float64](a), nil
	case *array.Float32:
		return newOrderedColumn[float32](a), nil
	case *array.Int64:
		return newOrderedColumn[int64](a), nil
	case *array.Int32:
		return newOrderedColumn[int32](a), nil
	case *array.String:
		return newOrderedColumn[string](a), nil
	default:
		return nil, errors.NewUnsupportedTypeError(op, column, arr.DataType().String())
	}
}

func newOrderedColumn[T constraints.Ordered](arr valueArray[T]) *orderedColumn[T] {
	values, valid := materialize(arr)
	return &orderedColumn[T]{values: values, valid: valid}
}

// rank sorts the non-missing rows of the partition and walks its peer groups.
// The sort is stable, so ties stay in position order for RankFirst.
func (c *orderedColumn[T]) rank(rows []int, method RankMethod, descending, pct bool) partitionResult {
	res := newPartitionResult(len(rows))

	order := make([]int, 0, len(rows))
	for p, row := range rows {
		if c.valid[row] {
			order = append(order, p)
		}
	}
	compare := func(a, b int) int {
		return cmp.Compare(c.values[rows[a]], c.values[rows[b]])
	}
	if descending {
		compare = func(a, b int) int {
			return cmp.Compare(c.values[rows[b]], c.values[rows[a]])
		}
	}
	slices.SortStableFunc(order, compare)

	dense := 0
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && compare(order[start], order[end]) == 0 {
			end++
		}
		dense++

		less, equal := float64(start), float64(end-start)
		for k := start; k < end; k++ {
			var r float64
			switch method {
			case RankAverage:
				r = less + (equal+1)/2
			case RankMin:
				r = less + 1
			case RankMax:
				r = less + equal
			case RankFirst:
				r = float64(k + 1)
			case RankDense:
				r = float64(dense)
			}
			res.set(order[k], r, true)
		}
		start = end
	}

	if pct && len(order) > 0 {
		denom := float64(len(order))
		if method == RankDense {
			denom = float64(dense)
		}
		for _, p := range order {
			res.values[p] /= denom
		}
	}

	return res
}
