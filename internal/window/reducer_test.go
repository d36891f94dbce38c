package window

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/windowagg/internal/errors"
)

func TestBuiltinReducers(t *testing.T) {
	values := []float64{4, -2, 7.5, 1}

	tests := []struct {
		reducer  Reducer
		expected float64
	}{
		{Sum(), 10.5},
		{Mean(), 2.625},
		{Count(), 4},
		{Min(), -2},
		{Max(), 7.5},
		{Range(), 9.5},
	}

	for _, tt := range tests {
		t.Run(tt.reducer.Name(), func(t *testing.T) {
			got, ok, err := tt.reducer.reduce(values)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestReducersOnEmptyInput(t *testing.T) {
	for _, r := range []Reducer{Sum(), Mean(), Min(), Max(), Range(), Median()} {
		_, ok, err := r.reduce(nil)
		require.NoError(t, err)
		assert.False(t, ok, "%s of nothing should be missing", r)
	}

	n, ok, err := Count().reduce(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, n)
}

func TestReducerZeroValueIsSum(t *testing.T) {
	var r Reducer
	assert.Equal(t, ReduceSum, r.Kind())
	got, ok, err := r.reduce([]float64{1, 2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 3, got, 0)
}

func TestReducerValidate(t *testing.T) {
	assert.NoError(t, Mean().validate("Rolling"))
	assert.NoError(t, Custom("ok", func([]float64) (float64, bool, error) { return 0, true, nil }).validate("Rolling"))

	err := Custom("nothing", nil).validate("Rolling")
	require.ErrorIs(t, err, errors.ErrInvalidParameter)
	assert.Equal(t, `Rolling InvalidParameter: custom reducer "nothing" has no function`, err.Error())

	err = Reducer{kind: ReducerKind(42)}.validate("Transform")
	require.ErrorIs(t, err, errors.ErrInvalidParameter)
	assert.Equal(t, "ReducerKind(42)", ReducerKind(42).String())
}

func TestCustomReducer(t *testing.T) {
	t.Run("receives a private copy in order", func(t *testing.T) {
		var seen []float64
		r := Custom("first", func(values []float64) (float64, bool, error) {
			seen = values
			v := values[0]
			values[0] = -1
			return v, true, nil
		})

		input := []float64{3, 1, 2}
		got, ok, err := r.reduce(input)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.InDelta(t, 3, got, 0)
		assert.Equal(t, []float64{-1, 1, 2}, seen)
		assert.Equal(t, []float64{3, 1, 2}, input)
	})

	t.Run("not ok and NaN are missing", func(t *testing.T) {
		notOK := Custom("no", func([]float64) (float64, bool, error) { return 1, false, nil })
		_, ok, err := notOK.reduce([]float64{1})
		require.NoError(t, err)
		assert.False(t, ok)

		nan := Custom("nan", func([]float64) (float64, bool, error) { return math.NaN(), true, nil })
		_, ok, err = nan.reduce([]float64{1})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("errors are returned", func(t *testing.T) {
		boom := fmt.Errorf("boom")
		r := Custom("boom", func([]float64) (float64, bool, error) { return 0, false, boom })
		_, ok, err := r.reduce([]float64{1})
		assert.ErrorIs(t, err, boom)
		assert.False(t, ok)
		assert.Equal(t, "boom", r.Name())
	})

	t.Run("unnamed custom uses kind name", func(t *testing.T) {
		assert.Equal(t, "custom", Custom("", func([]float64) (float64, bool, error) { return 0, true, nil }).Name())
	})
}

func TestAccumulatorIsAValue(t *testing.T) {
	a0 := newAccumulator(Custom("keep", func(v []float64) (float64, bool, error) { return float64(len(v)), true, nil }))
	a1 := a0.push(1)
	a2 := a1.push(2)
	a3 := a2.push(-4)

	assert.Equal(t, 0, a0.count)
	assert.Equal(t, 1, a1.count)
	assert.InDelta(t, 1, a1.sum, 0)
	assert.Equal(t, []float64{1}, a1.values)
	assert.Equal(t, []float64{1, 2}, a2.values)
	assert.InDelta(t, -4, a3.min, 0)
	assert.InDelta(t, 2, a3.max, 0)
	assert.InDelta(t, 1, a1.max, 0)
	assert.Equal(t, []float64{1, 2, -4}, a3.values)
}

func TestStatsReducers(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	median, ok, err := Median().reduce(values)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.5, median, 1e-12)

	variance, ok, err := Variance().reduce(values)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 32.0/7.0, variance, 1e-12)

	sd, ok, err := StdDev().reduce(values)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sd, 1e-12)

	for _, r := range []Reducer{StdDev(), Variance()} {
		_, ok, err := r.reduce([]float64{3})
		require.NoError(t, err)
		assert.False(t, ok, "%s of one value should be missing", r)
	}
}
