package window

import (
	"fmt"
	"slices"

	"github.com/paveg/windowagg/internal/errors"
)

// ReducerKind enumerates the reducers the engine knows
type ReducerKind int

const (
	ReduceSum ReducerKind = iota
	ReduceMean
	ReduceCount
	ReduceMin
	ReduceMax
	ReduceRange
	ReduceCustom
)

// String returns the lower-case reducer name
func (k ReducerKind) String() string {
	switch k {
	case ReduceSum:
		return "sum"
	case ReduceMean:
		return "mean"
	case ReduceCount:
		return "count"
	case ReduceMin:
		return "min"
	case ReduceMax:
		return "max"
	case ReduceRange:
		return "range"
	case ReduceCustom:
		return "custom"
	default:
		return fmt.Sprintf("ReducerKind(%d)", int(k))
	}
}

// CustomFunc reduces the non-missing values of a frame, given in ascending row order.
// The slice belongs to the callee. Returning ok == false yields a missing result.
type CustomFunc func(values []float64) (result float64, ok bool, err error)

// Reducer is one of the built-in aggregations or a custom function.
// The zero value is Sum.
type Reducer struct {
	kind ReducerKind
	name string
	fn   CustomFunc
}

// Sum adds the values of the frame
func Sum() Reducer { return Reducer{kind: ReduceSum} }

// Mean averages the values of the frame
func Mean() Reducer { return Reducer{kind: ReduceMean} }

// Count counts the non-missing values of the frame
func Count() Reducer { return Reducer{kind: ReduceCount} }

// Min returns the smallest value of the frame
func Min() Reducer { return Reducer{kind: ReduceMin} }

// Max returns the largest value of the frame
func Max() Reducer { return Reducer{kind: ReduceMax} }

// Range returns max minus min over the frame
func Range() Reducer { return Reducer{kind: ReduceRange} }

// Custom wraps a user function; name identifies it in errors and logs
func Custom(name string, fn CustomFunc) Reducer {
	return Reducer{kind: ReduceCustom, name: name, fn: fn}
}

// Kind returns the reducer kind
func (r Reducer) Kind() ReducerKind {
	return r.kind
}

// Name returns the custom name, or the kind name for built-ins
func (r Reducer) Name() string {
	if r.kind == ReduceCustom && r.name != "" {
		return r.name
	}
	return r.kind.String()
}

// String implements fmt.Stringer
func (r Reducer) String() string {
	return r.Name()
}

func (r Reducer) validate(op string) error {
	switch r.kind {
	case ReduceSum, ReduceMean, ReduceCount, ReduceMin, ReduceMax, ReduceRange:
		return nil
	case ReduceCustom:
		if r.fn == nil {
			return errors.NewInvalidParameterError(op, fmt.Sprintf("custom reducer %q has no function", r.Name()))
		}
		return nil
	default:
		return errors.NewInvalidParameterError(op, fmt.Sprintf("unknown reducer kind %d", int(r.kind)))
	}
}

// reduce folds values, in the order given, into one result
func (r Reducer) reduce(values []float64) (float64, bool, error) {
	acc := newAccumulator(r)
	for _, v := range values {
		acc = acc.push(v)
	}
	return acc.result(r)
}

// accumulator is the running state of a fold. It is a value: push returns
// the next state and leaves the receiver usable.
type accumulator struct {
	count  int
	sum    float64
	min    float64
	max    float64
	keep   bool
	values []float64
}

func newAccumulator(r Reducer) accumulator {
	return accumulator{keep: r.kind == ReduceCustom}
}

// push returns the state after observing v. Retained values are only ever
// appended, so earlier states keep seeing their own prefix.
func (a accumulator) push(v float64) accumulator {
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		a.min = min(a.min, v)
		a.max = max(a.max, v)
	}
	a.count++
	a.sum += v
	if a.keep {
		a.values = append(a.values, v)
	}
	return a
}

func (a accumulator) result(r Reducer) (float64, bool, error) {
	if r.kind == ReduceCount {
		return float64(a.count), true, nil
	}
	if a.count == 0 {
		return 0, false, nil
	}

	switch r.kind {
	case ReduceSum:
		return a.sum, true, nil
	case ReduceMean:
		return a.sum / float64(a.count), true, nil
	case ReduceMin:
		return a.min, true, nil
	case ReduceMax:
		return a.max, true, nil
	case ReduceRange:
		return a.max - a.min, true, nil
	case ReduceCustom:
		v, ok, err := r.fn(slices.Clone(a.values))
		if err != nil || !ok || v != v {
			return 0, false, err
		}
		return v, true, nil
	default:
		return 0, false, nil
	}
}
