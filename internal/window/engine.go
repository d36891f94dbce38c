package window

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/paveg/windowagg/internal/config"
	"github.com/paveg/windowagg/internal/errors"
	"github.com/paveg/windowagg/internal/logging"
	"github.com/paveg/windowagg/internal/monitoring"
	"github.com/paveg/windowagg/internal/table"
	"github.com/paveg/windowagg/internal/validation"
)

// Engine runs windowing operations over tables.
// An Engine holds no per-operation state and is safe for concurrent use.
type Engine struct {
	mem     memory.Allocator
	cfg     config.Config
	logger  *zap.SugaredLogger
	metrics *monitoring.MetricsCollector
}

// Option configures an Engine
type Option func(*Engine)

// WithAllocator sets the allocator used for result columns
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Engine) {
		e.mem = mem
	}
}

// WithConfig replaces the global configuration for this engine
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the collector operations are recorded into
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(e *Engine) {
		e.metrics = mc
	}
}

// NewEngine creates an engine. Unless overridden it reads the global configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		mem:    memory.DefaultAllocator,
		cfg:    config.GetGlobalConfig(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.WithDefaults()
	if e.metrics == nil {
		e.metrics = monitoring.NewMetricsCollector(e.cfg.MetricsCollection)
	}
	return e
}

// Config returns the configuration the engine runs with
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Metrics returns the engine's metrics collector
func (e *Engine) Metrics() *monitoring.MetricsCollector {
	return e.metrics
}

// Transform reduces every partition of column as a whole and broadcasts the result to its rows
func (e *Engine) Transform(t *table.Table, column string, r Reducer, spec *Spec) (*array.Float64, error) {
	return e.execute(t, request{mode: ModeTransform, column: column, reducer: r, spec: spec})
}

// Rolling reduces, for each row, the trailing frame of spec's size within its partition
func (e *Engine) Rolling(t *table.Table, column string, r Reducer, spec *Spec) (*array.Float64, error) {
	return e.execute(t, request{mode: ModeRolling, column: column, reducer: r, spec: spec})
}

// Cumulative reduces, for each row, every row of its partition up to and including itself
func (e *Engine) Cumulative(t *table.Table, column string, r Reducer, spec *Spec) (*array.Float64, error) {
	return e.execute(t, request{mode: ModeCumulative, column: column, reducer: r, spec: spec})
}

// Rank ranks each row of column within its partition
func (e *Engine) Rank(t *table.Table, column string, method RankMethod, spec *Spec) (*array.Float64, error) {
	return e.execute(t, request{mode: ModeRank, column: column, method: method, spec: spec})
}

type request struct {
	mode    Mode
	column  string
	reducer Reducer
	method  RankMethod
	spec    *Spec
}

func (e *Engine) execute(t *table.Table, req request) (*array.Float64, error) {
	op := req.mode.String()
	log := e.logger.With("op_id", uuid.NewString(), "mode", op, "column", req.column)

	var out *array.Float64
	err := e.metrics.RecordOperation(op, func() (monitoring.OperationMetrics, error) {
		var (
			m   monitoring.OperationMetrics
			err error
		)
		out, m, err = e.run(t, req, log)
		return m, err
	})
	if err != nil {
		if e.cfg.VerboseLogging {
			log.Debugw("Window operation failed", zap.Error(err))
		}
		return nil, err
	}
	return out, nil
}

func (e *Engine) run(t *table.Table, req request, log *zap.SugaredLogger) (*array.Float64, monitoring.OperationMetrics, error) {
	var m monitoring.OperationMetrics
	op := req.mode.String()
	start := time.Now()

	if t == nil {
		return nil, m, errors.NewInvalidParameterError(op, "table is nil")
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, m, errors.NewInvalidParameterError(op, err.Error())
	}

	p, err := req.spec.resolve(req.mode, e.cfg)
	if err != nil {
		return nil, m, err
	}
	if err := e.validate(t, req, p); err != nil {
		return nil, m, err
	}

	var key table.Column
	if p.partitionBy != "" {
		key, _ = t.Column(p.partitionBy)
	}
	parts, err := Partition(key, t.Len(), p.missingKeys)
	if err != nil {
		return nil, m, err
	}

	col, _ := t.Column(req.column)
	arr := col.Array()
	defer arr.Release()

	usePar := e.shouldUseParallel(parts.Groups, parts.Rows())

	var results []partitionResult
	if req.mode == ModeRank {
		rk, err := newRanker(op, req.column, arr)
		if err != nil {
			return nil, m, err
		}
		results = e.rankPartitions(parts.Groups, usePar, func(g Group) partitionResult {
			return rk.rank(g.Rows, req.method, p.descending, p.pct)
		})
	} else {
		values, valid, err := numericColumn(op, req.column, arr)
		if err != nil {
			return nil, m, err
		}
		results, err = e.reducePartitions(parts.Groups, usePar, e.partitionReducer(req, p, values, valid))
		if err != nil {
			return nil, m, err
		}
	}

	out := e.assemble(t.Len(), parts.Groups, results)

	var failures []error
	for _, r := range results {
		failures = append(failures, r.failures...)
	}
	if len(failures) > 0 {
		log.Warnw("Custom reducer failed, affected rows set to missing",
			"reducer", req.reducer.Name(),
			"failures", len(failures),
			zap.Error(multierr.Combine(failures...)))
	}

	m = monitoring.OperationMetrics{
		RowsProcessed:   int64(t.Len()),
		Partitions:      len(parts.Groups),
		Parallel:        usePar,
		ReducerFailures: len(failures),
	}
	if e.cfg.VerboseLogging {
		log.Debugw("Window operation completed",
			"window", req.spec.String(),
			"rows", t.Len(),
			"partitions", len(parts.Groups),
			"dropped", len(parts.Dropped),
			"parallel", usePar,
			"duration", time.Since(start))
	}
	return out, m, nil
}

// validate checks every input before a single row is read
func (e *Engine) validate(t *table.Table, req request, p params) error {
	op := req.mode.String()

	if req.mode == ModeRank {
		if !req.method.valid() {
			return errors.NewInvalidParameterError(op, "unknown rank method "+req.method.String())
		}
	} else if err := req.reducer.validate(op); err != nil {
		return err
	}

	columns := []string{req.column}
	if p.partitionBy != "" {
		columns = append(columns, p.partitionBy)
	}
	if err := validation.ValidateColumns(t, op, columns...); err != nil {
		return err
	}

	supported := numericTypes
	if req.mode == ModeRank {
		supported = rankTypes
	}
	col, _ := t.Column(req.column)
	validators := []validation.Validator{
		validation.NewTypeValidator(op, req.column, col.DataType(), supported...),
	}
	if p.partitionBy != "" {
		key, _ := t.Column(p.partitionBy)
		validators = append(validators,
			validation.NewTypeValidator(op, p.partitionBy, key.DataType(), keyTypes...),
			validation.NewKeyLengthValidator(t.Len(), key.Len(), op, p.partitionBy),
		)
	}
	return validation.NewCompoundValidator(validators...).Validate()
}

// partitionReducer builds the per-partition fold for the reducing modes
func (e *Engine) partitionReducer(req request, p params, values []float64, valid []bool) func(Group) (partitionResult, error) {
	op := req.mode.String()

	return func(g Group) (partitionResult, error) {
		n := len(g.Rows)
		pv := make([]float64, n)
		pvalid := make([]bool, n)
		for i, row := range g.Rows {
			pv[i] = values[row]
			pvalid[i] = valid[row]
		}

		res := newPartitionResult(n)
		// fail records a reducer error for position i and reports whether to abort
		fail := func(i int, cause error) error {
			err := errors.NewReducerFailureError(op, req.column, req.reducer.Name(), g.Rows[i], cause)
			if p.reducerErrors == ReducerStrict {
				return err
			}
			res.failures = append(res.failures, err)
			return nil
		}

		switch req.mode {
		case ModeTransform:
			buf := gather(nil, pv, pvalid, wholeFrame(n))
			if len(buf) < p.minPeriods {
				break
			}
			v, ok, err := req.reducer.reduce(buf)
			if err != nil {
				if err := fail(0, err); err != nil {
					return partitionResult{}, err
				}
				break
			}
			for i := range n {
				res.set(i, v, ok)
			}

		case ModeRolling:
			var buf []float64
			for i := range n {
				buf = gather(buf, pv, pvalid, rollingFrame(i, p.size))
				if len(buf) < p.minPeriods {
					continue
				}
				v, ok, err := req.reducer.reduce(buf)
				if err != nil {
					if err := fail(i, err); err != nil {
						return partitionResult{}, err
					}
					continue
				}
				res.set(i, v, ok)
			}

		case ModeCumulative:
			acc := newAccumulator(req.reducer)
			for i := range n {
				if pvalid[i] {
					acc = acc.push(pv[i])
				}
				if acc.count < p.minPeriods {
					continue
				}
				v, ok, err := acc.result(req.reducer)
				if err != nil {
					if err := fail(i, err); err != nil {
						return partitionResult{}, err
					}
					continue
				}
				res.set(i, v, ok)
			}
		}

		return res, nil
	}
}

// assemble scatters the partition results back to their row positions.
// Rows that belong to no partition stay missing.
func (e *Engine) assemble(rowCount int, groups []Group, results []partitionResult) *array.Float64 {
	values := make([]float64, rowCount)
	valid := make([]bool, rowCount)
	for gi, g := range groups {
		r := results[gi]
		for p, row := range g.Rows {
			values[row] = r.values[p]
			valid[row] = r.valid[p]
		}
	}

	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()
	builder.AppendValues(values, valid)
	return builder.NewFloat64Array()
}
