// Package errors provides standardized error types for windowing operations.
// This package defines WindowError for consistent error handling across
// all public APIs, with operation context, a kind taxonomy and error wrapping support.
package errors

import (
	"fmt"
)

// Kind classifies a WindowError
type Kind int

const (
	// KindUnknown is the zero Kind
	KindUnknown Kind = iota
	// KindInvalidParameter reports a window size, min_periods or rank method outside its domain
	KindInvalidParameter
	// KindInvalidKey reports a partition key column that does not match the table shape
	KindInvalidKey
	// KindReducerFailure reports a custom reducer that failed on a frame
	KindReducerFailure
	// KindColumnNotFound reports a reference to a column the table does not have
	KindColumnNotFound
	// KindUnsupportedType reports a column type the requested operation cannot read
	KindUnsupportedType
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindInvalidKey:
		return "InvalidKey"
	case KindReducerFailure:
		return "ReducerFailure"
	case KindColumnNotFound:
		return "ColumnNotFound"
	case KindUnsupportedType:
		return "UnsupportedType"
	default:
		return "Unknown"
	}
}

// noRow marks errors that are not tied to a single row
const noRow = -1

// WindowError represents standardized errors across all windowing operations
type WindowError struct {
	Kind    Kind   // Error class
	Op      string // Operation name (e.g., "Rolling", "Rank", "Transform")
	Column  string // Column name if applicable
	Row     int    // Row position if applicable, -1 otherwise
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *WindowError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	switch {
	case e.Column != "" && e.Row >= 0:
		return fmt.Sprintf("%s %s on column '%s' at row %d: %s", e.Op, e.Kind, e.Column, e.Row, msg)
	case e.Column != "":
		return fmt.Sprintf("%s %s on column '%s': %s", e.Op, e.Kind, e.Column, msg)
	case e.Row >= 0:
		return fmt.Sprintf("%s %s at row %d: %s", e.Op, e.Kind, e.Row, msg)
	default:
		return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, msg)
	}
}

// Unwrap returns the underlying cause for error wrapping support
func (e *WindowError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A target carrying only a Kind (the Err* sentinels) matches every error of that kind.
func (e *WindowError) Is(target error) bool {
	we, ok := target.(*WindowError)
	if !ok {
		return false
	}
	if we.Op == "" && we.Column == "" && we.Message == "" {
		return e.Kind == we.Kind
	}
	return e.Kind == we.Kind && e.Op == we.Op && e.Column == we.Column && e.Message == we.Message
}

// Sentinels matching any error of their kind
var (
	ErrInvalidParameter = &WindowError{Kind: KindInvalidParameter, Row: noRow}
	ErrInvalidKey       = &WindowError{Kind: KindInvalidKey, Row: noRow}
	ErrReducerFailure   = &WindowError{Kind: KindReducerFailure, Row: noRow}
	ErrColumnNotFound   = &WindowError{Kind: KindColumnNotFound, Row: noRow}
	ErrUnsupportedType  = &WindowError{Kind: KindUnsupportedType, Row: noRow}
)

// NewInvalidParameterError creates an error for a parameter outside its allowed domain
func NewInvalidParameterError(op, message string) *WindowError {
	return &WindowError{
		Kind:    KindInvalidParameter,
		Op:      op,
		Row:     noRow,
		Message: message,
	}
}

// NewInvalidKeyError creates an error for a key column whose shape does not match the table
func NewInvalidKeyError(op, column string, expected, actual int) *WindowError {
	return &WindowError{
		Kind:    KindInvalidKey,
		Op:      op,
		Column:  column,
		Row:     noRow,
		Message: fmt.Sprintf("key column has %d rows, table has %d", actual, expected),
	}
}

// NewReducerFailureError wraps the failure of a custom reducer on the frame of one row
func NewReducerFailureError(op, column, reducer string, row int, cause error) *WindowError {
	return &WindowError{
		Kind:    KindReducerFailure,
		Op:      op,
		Column:  column,
		Row:     row,
		Message: fmt.Sprintf("reducer %q failed", reducer),
		Cause:   cause,
	}
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *WindowError {
	return &WindowError{
		Kind:    KindColumnNotFound,
		Op:      op,
		Column:  column,
		Row:     noRow,
		Message: "column does not exist",
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *WindowError {
	return &WindowError{
		Kind:    KindUnsupportedType,
		Op:      op,
		Column:  column,
		Row:     noRow,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}
