package window

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/exp/constraints"

	"github.com/paveg/windowagg/internal/errors"
)

// Arrow types each path of the engine can read
var (
	numericTypes = []arrow.Type{arrow.INT32, arrow.INT64, arrow.FLOAT32, arrow.FLOAT64}
	rankTypes    = append(append([]arrow.Type(nil), numericTypes...), arrow.STRING)
	keyTypes     = append(append([]arrow.Type(nil), rankTypes...), arrow.BOOL)
)

type number interface {
	constraints.Integer | constraints.Float
}

// valueArray is the read interface shared by the typed Arrow arrays
type valueArray[T any] interface {
	Len() int
	IsNull(i int) bool
	Value(i int) T
}

// materialize copies an Arrow array into a Go slice plus validity flags.
// Nulls and NaNs are both reported as missing.
func materialize[T constraints.Ordered](arr valueArray[T]) ([]T, []bool) {
	n := arr.Len()
	values := make([]T, n)
	valid := make([]bool, n)
	for i := range n {
		if arr.IsNull(i) {
			continue
		}
		v := arr.Value(i)
		if v != v { // NaN
			continue
		}
		values[i] = v
		valid[i] = true
	}
	return values, valid
}

func toFloat64[T number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// numericColumn reads a numeric Arrow array as float64 values in row order
func numericColumn(op, column string, arr arrow.Array) ([]float64, []bool, error) {
	switch a := arr.(type) {
	case *array.Float64:
		values, valid := materialize[float64](a)
		return values, valid, nil
	case *array.Float32:
		values, valid := materialize[float32](a)
		return toFloat64(values), valid, nil
	case *array.Int64:
		values, valid := materialize[int64](a)
		return toFloat64(values), valid, nil
	case *array.Int32:
		values, valid := materialize[int32](a)
		return toFloat64(values), valid, nil
	default:
		return nil, nil, errors.NewUnsupportedTypeError(op, column, arr.DataType().String())
	}
}
