// Package windowagg provides windowed aggregations over Arrow-backed tables:
// partition-wide transforms, rolling and cumulative frames, and rankings.
// This package is the sole public API for the library.
//
// Every operation returns a new Float64 column with one entry per input row,
// in input row order. Missing results are Arrow nulls.
package windowagg

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/paveg/windowagg/internal/config"
	"github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/monitoring"
	"github.com/paveg/windowagg/internal/series"
	"github.com/paveg/windowagg/internal/table"
	"github.com/paveg/windowagg/internal/window"
)

// Column provides a type-erased interface for a column of any element type
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// Element lists the Go types a column can hold
type Element interface {
	series.Element
}

// Table is an ordered set of equally long named columns.
// It wraps the internal table.Table to hide implementation details.
type Table struct {
	t *table.Table
}

// Window describes the partitioning and frame of an operation
type Window = window.Spec

// Reducer is a built-in or custom aggregation
type Reducer = window.Reducer

// CustomFunc reduces the non-missing values of a frame, given in row order
type CustomFunc = window.CustomFunc

// RankMethod is the tie-break policy of a ranking
type RankMethod = window.RankMethod

// MissingKeyPolicy decides where rows with a missing partition key go
type MissingKeyPolicy = window.MissingKeyPolicy

// ReducerErrorPolicy decides what happens when a custom reducer fails
type ReducerErrorPolicy = window.ReducerErrorPolicy

// Config holds the library-wide settings
type Config = config.Config

// WindowError is the error type returned by every operation
type WindowError = errors.WindowError

// Rank methods
const (
	RankAverage = window.RankAverage
	RankMin     = window.RankMin
	RankMax     = window.RankMax
	RankFirst   = window.RankFirst
	RankDense   = window.RankDense
)

// Missing key policies
const (
	MissingKeyGroup = window.MissingKeyGroup
	MissingKeyDrop  = window.MissingKeyDrop
)

// Reducer error policies
const (
	ReducerStrict     = window.ReducerStrict
	ReducerBestEffort = window.ReducerBestEffort
)

// Sentinel errors, matched by kind with errors.Is
var (
	ErrInvalidParameter = errors.ErrInvalidParameter
	ErrInvalidKey       = errors.ErrInvalidKey
	ErrReducerFailure   = errors.ErrReducerFailure
	ErrColumnNotFound   = errors.ErrColumnNotFound
	ErrUnsupportedType  = errors.ErrUnsupportedType
)

// NewColumn creates a column with no missing values
func NewColumn[T Element](name string, values []T, mem memory.Allocator) Column {
	return series.New(name, values, mem)
}

// NewNullableColumn creates a column where valid[i] == false marks position i as missing
func NewNullableColumn[T Element](name string, values []T, valid []bool, mem memory.Allocator) Column {
	return series.NewNullable(name, values, valid, mem)
}

// NewTable creates a table. All columns must have the same length and distinct names.
func NewTable(columns ...Column) (*Table, error) {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = c
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, err
	}
	return &Table{t: t}, nil
}

// NewWindow creates a window over the whole table with default settings
func NewWindow() *Window {
	return window.New()
}

// Reducer constructors

// Sum adds the values of the frame
func Sum() Reducer { return window.Sum() }

// Mean averages the values of the frame
func Mean() Reducer { return window.Mean() }

// Count counts the non-missing values of the frame
func Count() Reducer { return window.Count() }

// Min returns the smallest value of the frame
func Min() Reducer { return window.Min() }

// Max returns the largest value of the frame
func Max() Reducer { return window.Max() }

// Range returns max minus min over the frame
func Range() Reducer { return window.Range() }

// Median returns the middle value of the frame
func Median() Reducer { return window.Median() }

// StdDev returns the sample standard deviation of the frame
func StdDev() Reducer { return window.StdDev() }

// Variance returns the sample variance of the frame
func Variance() Reducer { return window.Variance() }

// Custom wraps a user function as a reducer
func Custom(name string, fn CustomFunc) Reducer { return window.Custom(name, fn) }

// ParseRankMethod converts "average", "min", "max", "first" or "dense" into a RankMethod
func ParseRankMethod(name string) (RankMethod, error) {
	return window.ParseRankMethod(name)
}

// Configuration

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return config.NewConfig()
}

// LoadConfig reads a JSON or YAML configuration file
func LoadConfig(filename string) (Config, error) {
	return config.LoadFromFile(filename)
}

// ConfigFromEnv reads the WINDOWAGG_* environment variables on top of the defaults
func ConfigFromEnv() Config {
	return config.LoadFromEnv()
}

// SetGlobalConfig sets the configuration used by engines created afterwards
func SetGlobalConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.NewInvalidParameterError("SetGlobalConfig", err.Error())
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() Config {
	return config.GetGlobalConfig()
}

// Table methods

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.t.Columns()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.t.Len()
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return t.t.Width()
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	return t.t.Column(name)
}

// HasColumn returns true if the table has the given column.
func (t *Table) HasColumn(name string) bool {
	return t.t.HasColumn(name)
}

// String returns a string representation of the table.
func (t *Table) String() string {
	return t.t.String()
}

// WithColumn returns a new table with col attached under name.
// A column of the same name is replaced; the receiver is left untouched.
func (t *Table) WithColumn(name string, col Column) (*Table, error) {
	if col.Name() != name {
		col = namedColumn{Column: col, name: name}
	}
	nt, err := t.t.WithColumn(col)
	if err != nil {
		return nil, err
	}
	return &Table{t: nt}, nil
}

// Transform reduces each partition of column and broadcasts the result to its rows
func (t *Table) Transform(column string, r Reducer, w *Window) (*Result, error) {
	return defaultEngine().Transform(t, column, r, w)
}

// Rolling reduces a trailing frame of w's size ending at each row
func (t *Table) Rolling(column string, r Reducer, w *Window) (*Result, error) {
	return defaultEngine().Rolling(t, column, r, w)
}

// Cumulative reduces every row of the partition up to and including each row
func (t *Table) Cumulative(column string, r Reducer, w *Window) (*Result, error) {
	return defaultEngine().Cumulative(t, column, r, w)
}

// Rank ranks each row of column within its partition
func (t *Table) Rank(column string, method RankMethod, w *Window) (*Result, error) {
	return defaultEngine().Rank(t, column, method, w)
}

// Engine runs operations with explicit settings instead of the global configuration
type Engine struct {
	e *window.Engine
}

// Option configures an Engine
type Option = window.Option

// WithAllocator sets the allocator for result columns
func WithAllocator(mem memory.Allocator) Option { return window.WithAllocator(mem) }

// WithConfig sets the engine configuration
func WithConfig(cfg Config) Option { return window.WithConfig(cfg) }

// WithLogger sets the structured logger
func WithLogger(logger *zap.SugaredLogger) Option { return window.WithLogger(logger) }

// WithPrometheus exports operation metrics on reg
func WithPrometheus(reg prometheus.Registerer) Option {
	return window.WithMetrics(monitoring.NewPrometheusCollector(reg))
}

// NewEngine creates an engine
func NewEngine(opts ...Option) *Engine {
	return &Engine{e: window.NewEngine(opts...)}
}

func defaultEngine() *Engine {
	return NewEngine()
}

// Transform reduces each partition of column and broadcasts the result to its rows
func (e *Engine) Transform(t *Table, column string, r Reducer, w *Window) (*Result, error) {
	return wrap(e.e.Transform(t.unwrap(), column, r, w))
}

// Rolling reduces a trailing frame of w's size ending at each row
func (e *Engine) Rolling(t *Table, column string, r Reducer, w *Window) (*Result, error) {
	return wrap(e.e.Rolling(t.unwrap(), column, r, w))
}

// Cumulative reduces every row of the partition up to and including each row
func (e *Engine) Cumulative(t *Table, column string, r Reducer, w *Window) (*Result, error) {
	return wrap(e.e.Cumulative(t.unwrap(), column, r, w))
}

// Rank ranks each row of column within its partition
func (e *Engine) Rank(t *Table, column string, method RankMethod, w *Window) (*Result, error) {
	return wrap(e.e.Rank(t.unwrap(), column, method, w))
}

func (t *Table) unwrap() *table.Table {
	if t == nil {
		return nil
	}
	return t.t
}

// Result is the output column of an operation, aligned with the input rows
type Result struct {
	arr *array.Float64
}

func wrap(arr *array.Float64, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return &Result{arr: arr}, nil
}

// Len returns the number of rows
func (r *Result) Len() int {
	return r.arr.Len()
}

// Value returns the value at row i and whether it is present
func (r *Result) Value(i int) (float64, bool) {
	if r.arr.IsNull(i) {
		return 0, false
	}
	return r.arr.Value(i), true
}

// Values returns the results as a Go slice. Missing rows hold zero; see Valid.
func (r *Result) Values() []float64 {
	out := make([]float64, r.arr.Len())
	for i := range out {
		out[i], _ = r.Value(i)
	}
	return out
}

// Valid returns one flag per row, false where the result is missing
func (r *Result) Valid() []bool {
	out := make([]bool, r.arr.Len())
	for i := range out {
		out[i] = r.arr.IsValid(i)
	}
	return out
}

// Array returns the underlying Arrow array (retains a reference)
func (r *Result) Array() arrow.Array {
	r.arr.Retain()
	return r.arr
}

// As returns the result as a named column. The column holds its own reference.
func (r *Result) As(name string) Column {
	return series.FromArray[float64](name, r.arr)
}

// Release releases the result's Arrow memory
func (r *Result) Release() {
	r.arr.Release()
}

// namedColumn exposes a column under another name
type namedColumn struct {
	Column
	name string
}

func (c namedColumn) Name() string {
	return c.name
}
