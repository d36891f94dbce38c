// Package validation provides eager input validation for windowing operations.
// Every check runs before a single row is read so that invalid requests never
// produce partial results.
package validation

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/windowagg/internal/errors"
)

// Unbounded can be passed as the upper bound of a RangeValidator
const Unbounded = math.MaxInt

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	table   ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(table ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		table:   table,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.table.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// KeyLengthValidator validates that a partition key column matches the table's row count
type KeyLengthValidator struct {
	rowCount int
	keyLen   int
	op       string
	column   string
}

// NewKeyLengthValidator creates a validator for key column length
func NewKeyLengthValidator(rowCount, keyLen int, op, column string) *KeyLengthValidator {
	return &KeyLengthValidator{
		rowCount: rowCount,
		keyLen:   keyLen,
		op:       op,
		column:   column,
	}
}

// Validate checks if lengths match
func (v *KeyLengthValidator) Validate() error {
	if v.rowCount != v.keyLen {
		return errors.NewInvalidKeyError(v.op, v.column, v.rowCount, v.keyLen)
	}
	return nil
}

// RangeValidator validates that an integer parameter lies in [min, max]
type RangeValidator struct {
	name  string
	value int
	min   int
	max   int
	op    string
}

// NewRangeValidator creates a validator for an integer parameter
func NewRangeValidator(op, name string, value, minValue, maxValue int) *RangeValidator {
	return &RangeValidator{
		name:  name,
		value: value,
		min:   minValue,
		max:   maxValue,
		op:    op,
	}
}

// Validate checks the bounds
func (v *RangeValidator) Validate() error {
	if v.value >= v.min && v.value <= v.max {
		return nil
	}
	if v.max == Unbounded {
		return errors.NewInvalidParameterError(v.op,
			fmt.Sprintf("%s must be >= %d, got %d", v.name, v.min, v.value))
	}
	return errors.NewInvalidParameterError(v.op,
		fmt.Sprintf("%s must be in [%d, %d], got %d", v.name, v.min, v.max, v.value))
}

// TypeValidator validates that a column's Arrow type is one the operation can read
type TypeValidator struct {
	column    string
	dataType  arrow.DataType
	supported []arrow.Type
	op        string
}

// NewTypeValidator creates a validator for type checking
func NewTypeValidator(op, column string, dataType arrow.DataType, supported ...arrow.Type) *TypeValidator {
	return &TypeValidator{
		column:    column,
		dataType:  dataType,
		supported: supported,
		op:        op,
	}
}

// Validate checks if the column type is supported
func (v *TypeValidator) Validate() error {
	for _, id := range v.supported {
		if v.dataType.ID() == id {
			return nil
		}
	}
	return errors.NewUnsupportedTypeError(v.op, v.column, v.dataType.String())
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns is a convenience function for column validation
func ValidateColumns(table ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(table, op, columns...).Validate()
}

// ValidateRange is a convenience function for parameter bounds validation
func ValidateRange(op, name string, value, minValue, maxValue int) error {
	return NewRangeValidator(op, name, value, minValue, maxValue).Validate()
}
