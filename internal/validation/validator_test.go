package validation_test

import (
	stderrors "errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	werrors "github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockColumnProvider implements ColumnProvider for testing.
type MockColumnProvider struct {
	columns []string
	length  int
}

func (m *MockColumnProvider) HasColumn(name string) bool {
	for _, col := range m.columns {
		if col == name {
			return true
		}
	}
	return false
}

func (m *MockColumnProvider) Columns() []string {
	return m.columns
}

func (m *MockColumnProvider) Len() int {
	return m.length
}

func (m *MockColumnProvider) Width() int {
	return len(m.columns)
}

func TestColumnValidator(t *testing.T) {
	mockTable := &MockColumnProvider{columns: []string{"Category", "Value"}, length: 6}

	t.Run("Valid columns", func(t *testing.T) {
		require.NoError(t, validation.ValidateColumns(mockTable, "Rolling", "Category", "Value"))
	})

	t.Run("Invalid column", func(t *testing.T) {
		err := validation.ValidateColumns(mockTable, "Rolling", "Price")
		require.Error(t, err)

		var we *werrors.WindowError
		require.True(t, stderrors.As(err, &we))
		assert.Equal(t, werrors.KindColumnNotFound, we.Kind)
		assert.Equal(t, "Price", we.Column)
	})
}

func TestKeyLengthValidator(t *testing.T) {
	require.NoError(t, validation.NewKeyLengthValidator(6, 6, "Rank", "k").Validate())

	err := validation.NewKeyLengthValidator(6, 4, "Rank", "k").Validate()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, werrors.ErrInvalidKey))
}

func TestRangeValidator(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr string
	}{
		{name: "lower bound", value: 1, min: 1, max: 3},
		{name: "upper bound", value: 3, min: 1, max: 3},
		{name: "below", value: 0, min: 1, max: 3, wantErr: "min_periods must be in [1, 3], got 0"},
		{name: "above", value: 4, min: 1, max: 3, wantErr: "min_periods must be in [1, 3], got 4"},
		{name: "unbounded", value: 0, min: 1, max: validation.Unbounded, wantErr: "min_periods must be >= 1, got 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateRange("Rolling", "min_periods", tt.value, tt.min, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, werrors.ErrInvalidParameter))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTypeValidator(t *testing.T) {
	numeric := []arrow.Type{arrow.INT64, arrow.FLOAT64}

	require.NoError(t, validation.NewTypeValidator("Rolling", "v", arrow.PrimitiveTypes.Float64, numeric...).Validate())

	err := validation.NewTypeValidator("Rolling", "v", arrow.BinaryTypes.String, numeric...).Validate()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, werrors.ErrUnsupportedType))
	assert.Contains(t, err.Error(), "utf8")
}

func TestCompoundValidatorStopsAtFirstError(t *testing.T) {
	mockTable := &MockColumnProvider{columns: []string{"v"}, length: 2}

	err := validation.NewCompoundValidator(
		validation.NewRangeValidator("Rolling", "window size", 0, 1, validation.Unbounded),
		validation.NewColumnValidator(mockTable, "Rolling", "missing"),
	).Validate()

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, werrors.ErrInvalidParameter))
}
