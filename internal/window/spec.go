// Package window implements the windowed-aggregation engine: partitioning,
// frame resolution, reduction and ranking over the rows of a table.
//
// Every operation returns a new Float64 column aligned one-to-one with the
// input rows. The input table is never modified and rows are never reordered.
package window

import (
	"fmt"
	"strings"

	"github.com/paveg/windowagg/internal/config"
	"github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/validation"
)

// Mode selects how the frame of each row is resolved
type Mode int

const (
	// ModeTransform reduces the whole partition and broadcasts the result to its rows
	ModeTransform Mode = iota
	// ModeRolling reduces a trailing frame of fixed size ending at the current row
	ModeRolling
	// ModeCumulative reduces every row of the partition up to and including the current row
	ModeCumulative
	// ModeRank ranks each row against the other rows of its partition
	ModeRank
)

// String returns the operation name used in errors, logs and metrics
func (m Mode) String() string {
	switch m {
	case ModeTransform:
		return "Transform"
	case ModeRolling:
		return "Rolling"
	case ModeCumulative:
		return "Cumulative"
	case ModeRank:
		return "Rank"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MissingKeyPolicy decides where rows with a missing partition key go
type MissingKeyPolicy int

const (
	// MissingKeyDefault defers to the engine configuration
	MissingKeyDefault MissingKeyPolicy = iota
	// MissingKeyGroup puts all missing-key rows into one partition of their own
	MissingKeyGroup
	// MissingKeyDrop leaves missing-key rows out of every partition; they receive missing output
	MissingKeyDrop
)

// String returns the configuration spelling of the policy
func (p MissingKeyPolicy) String() string {
	switch p {
	case MissingKeyGroup:
		return config.MissingKeysGroup
	case MissingKeyDrop:
		return config.MissingKeysDrop
	default:
		return "default"
	}
}

// ReducerErrorPolicy decides what happens when a custom reducer fails
type ReducerErrorPolicy int

const (
	// ReducerErrorDefault defers to the engine configuration
	ReducerErrorDefault ReducerErrorPolicy = iota
	// ReducerStrict aborts the operation with a ReducerFailure error
	ReducerStrict
	// ReducerBestEffort turns the failing row into a missing value and carries on
	ReducerBestEffort
)

// String returns the configuration spelling of the policy
func (p ReducerErrorPolicy) String() string {
	switch p {
	case ReducerStrict:
		return config.ReducerErrorsStrict
	case ReducerBestEffort:
		return config.ReducerErrorsBestEffort
	default:
		return "default"
	}
}

// RankMethod is the tie-break policy of a ranking
type RankMethod int

const (
	// RankAverage gives tied rows the mean of the ranks they span
	RankAverage RankMethod = iota
	// RankMin gives tied rows the lowest rank they span
	RankMin
	// RankMax gives tied rows the highest rank they span
	RankMax
	// RankFirst breaks ties by row position
	RankFirst
	// RankDense numbers distinct values consecutively
	RankDense
)

var rankMethodNames = [...]string{
	RankAverage: "average",
	RankMin:     "min",
	RankMax:     "max",
	RankFirst:   "first",
	RankDense:   "dense",
}

// String returns the lower-case method name
func (m RankMethod) String() string {
	if m.valid() {
		return rankMethodNames[m]
	}
	return fmt.Sprintf("RankMethod(%d)", int(m))
}

func (m RankMethod) valid() bool {
	return m >= RankAverage && m <= RankDense
}

// ParseRankMethod converts a method name into a RankMethod
func ParseRankMethod(name string) (RankMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, n := range rankMethodNames {
		if n == normalized {
			return RankMethod(i), nil
		}
	}
	return 0, errors.NewInvalidParameterError("ParseRankMethod",
		fmt.Sprintf("unknown rank method %q, expected one of %s", name, strings.Join(rankMethodNames[:], ", ")))
}

// Spec describes the window an operation runs over.
// A nil *Spec means one partition spanning the whole table with default settings.
type Spec struct {
	partitionBy   string
	size          int
	hasSize       bool
	minPeriods    int
	hasMinPeriods bool
	missingKeys   MissingKeyPolicy
	reducerErrors ReducerErrorPolicy
	descending    bool
	pct           bool
}

// New creates a window over the whole table
func New() *Spec {
	return &Spec{}
}

// PartitionBy scopes every frame to the rows sharing the value of column
func (s *Spec) PartitionBy(column string) *Spec {
	s.partitionBy = column
	return s
}

// Rows sets the rolling window size
func (s *Spec) Rows(size int) *Spec {
	s.size = size
	s.hasSize = true
	return s
}

// MinPeriods sets the minimum number of non-missing values a frame needs to produce a value
func (s *Spec) MinPeriods(m int) *Spec {
	s.minPeriods = m
	s.hasMinPeriods = true
	return s
}

// MissingKeys sets the missing partition key policy
func (s *Spec) MissingKeys(policy MissingKeyPolicy) *Spec {
	s.missingKeys = policy
	return s
}

// OnReducerError sets the custom reducer failure policy
func (s *Spec) OnReducerError(policy ReducerErrorPolicy) *Spec {
	s.reducerErrors = policy
	return s
}

// Descending ranks larger values first
func (s *Spec) Descending() *Spec {
	s.descending = true
	return s
}

// Pct expresses ranks as a fraction of the partition's ranked rows
func (s *Spec) Pct() *Spec {
	s.pct = true
	return s
}

// Partition returns the partition key column, empty when the whole table is one partition
func (s *Spec) Partition() string {
	if s == nil {
		return ""
	}
	return s.partitionBy
}

// String returns a SQL-like rendering of the window
func (s *Spec) String() string {
	if s == nil {
		return "OVER ()"
	}
	var parts []string
	if s.partitionBy != "" {
		parts = append(parts, "PARTITION BY "+s.partitionBy)
	}
	if s.hasSize {
		parts = append(parts, fmt.Sprintf("ROWS %d PRECEDING", s.size-1))
	}
	if s.hasMinPeriods {
		parts = append(parts, fmt.Sprintf("MIN_PERIODS %d", s.minPeriods))
	}
	if s.descending {
		parts = append(parts, "DESC")
	}
	if s.pct {
		parts = append(parts, "PCT")
	}
	return "OVER (" + strings.Join(parts, " ") + ")"
}

// params are the validated settings of one operation
type params struct {
	partitionBy   string
	size          int
	minPeriods    int
	missingKeys   MissingKeyPolicy
	reducerErrors ReducerErrorPolicy
	descending    bool
	pct           bool
}

// resolve validates the window for mode and fills unset values from cfg
func (s *Spec) resolve(mode Mode, cfg config.Config) (params, error) {
	if s == nil {
		s = New()
	}
	op := mode.String()

	p := params{
		partitionBy:   s.partitionBy,
		missingKeys:   s.missingKeys,
		reducerErrors: s.reducerErrors,
		descending:    s.descending,
		pct:           s.pct,
	}

	validators := make([]validation.Validator, 0, 2)
	if mode == ModeRolling && !s.hasSize {
		return params{}, errors.NewInvalidParameterError(op, "window size is required, call Rows(size)")
	}
	if s.hasSize {
		p.size = s.size
		validators = append(validators, validation.NewRangeValidator(op, "window size", s.size, 1, validation.Unbounded))
	}

	p.minPeriods = 1
	if mode == ModeRolling {
		p.minPeriods = s.size
	}
	if s.hasMinPeriods && mode != ModeRank {
		p.minPeriods = s.minPeriods
		upper := validation.Unbounded
		if mode == ModeRolling {
			upper = max(s.size, 1)
		}
		validators = append(validators, validation.NewRangeValidator(op, "min_periods", s.minPeriods, 1, upper))
	}

	if err := validation.NewCompoundValidator(validators...).Validate(); err != nil {
		return params{}, err
	}

	switch p.missingKeys {
	case MissingKeyGroup, MissingKeyDrop:
	case MissingKeyDefault:
		p.missingKeys = MissingKeyGroup
		if cfg.MissingKeys == config.MissingKeysDrop {
			p.missingKeys = MissingKeyDrop
		}
	default:
		return params{}, errors.NewInvalidParameterError(op, fmt.Sprintf("unknown missing key policy %d", int(p.missingKeys)))
	}

	switch p.reducerErrors {
	case ReducerStrict, ReducerBestEffort:
	case ReducerErrorDefault:
		p.reducerErrors = ReducerStrict
		if cfg.ReducerErrors == config.ReducerErrorsBestEffort {
			p.reducerErrors = ReducerBestEffort
		}
	default:
		return params{}, errors.NewInvalidParameterError(op, fmt.Sprintf("unknown reducer error policy %d", int(p.reducerErrors)))
	}

	return p, nil
}
