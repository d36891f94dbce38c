// Package monitoring provides performance monitoring and metrics collection for windowing operations.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names used on exported Prometheus series
const (
	LabelOperation = "operation"
	LabelParallel  = "parallel"
)

// OperationMetrics represents performance metrics for a single windowing operation.
type OperationMetrics struct {
	Operation       string        `json:"operation"`
	Duration        time.Duration `json:"duration"`
	RowsProcessed   int64         `json:"rows_processed"`
	Partitions      int           `json:"partitions"`
	Parallel        bool          `json:"parallel"`
	ReducerFailures int           `json:"reducer_failures"`
	Failed          bool          `json:"failed"`
}

// MetricsCollector collects and stores performance metrics for windowing operations.
// When built with a Prometheus registerer it also exports every recorded operation.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
	prom    *promMetrics
}

type promMetrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	rows            *prometheus.CounterVec
	reducerFailures *prometheus.CounterVec
	errors          *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// NewPrometheusCollector creates an enabled collector that also registers
// windowagg_* series on reg.
func NewPrometheusCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	mc := NewMetricsCollector(true)
	mc.prom = &promMetrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windowagg",
			Name:      "operations_total",
			Help:      "Total number of windowing operations",
		}, []string{LabelOperation, LabelParallel}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "windowagg",
			Name:      "operation_duration_seconds",
			Help:      "Duration of windowing operations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{LabelOperation}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windowagg",
			Name:      "rows_processed_total",
			Help:      "Total number of rows read by windowing operations",
		}, []string{LabelOperation}),
		reducerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windowagg",
			Name:      "reducer_failures_total",
			Help:      "Total number of frames whose custom reducer failed",
		}, []string{LabelOperation}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windowagg",
			Name:      "operation_errors_total",
			Help:      "Total number of windowing operations that returned an error",
		}, []string{LabelOperation}),
	}
	return mc
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Record stores the metrics of a finished operation.
func (mc *MetricsCollector) Record(m OperationMetrics) {
	if !mc.IsEnabled() {
		return
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()

	if mc.prom == nil {
		return
	}
	parallel := "false"
	if m.Parallel {
		parallel = "true"
	}
	mc.prom.operations.WithLabelValues(m.Operation, parallel).Inc()
	mc.prom.duration.WithLabelValues(m.Operation).Observe(m.Duration.Seconds())
	mc.prom.rows.WithLabelValues(m.Operation).Add(float64(m.RowsProcessed))
	if m.ReducerFailures > 0 {
		mc.prom.reducerFailures.WithLabelValues(m.Operation).Add(float64(m.ReducerFailures))
	}
	if m.Failed {
		mc.prom.errors.WithLabelValues(m.Operation).Inc()
	}
}

// RecordOperation executes fn and records its duration together with the metrics fn reports.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (OperationMetrics, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	start := time.Now()
	m, err := fn()
	m.Operation = operation
	m.Duration = time.Since(start)
	m.Failed = err != nil
	mc.Record(m)

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalRows int64
	var parallelOps, reducerFailures int
	operationCounts := make(map[string]int)

	for _, metric := range mc.metrics {
		totalDuration += metric.Duration
		totalRows += metric.RowsProcessed
		reducerFailures += metric.ReducerFailures
		if metric.Parallel {
			parallelOps++
		}
		operationCounts[metric.Operation]++
	}

	return MetricsSummary{
		TotalOperations:    len(mc.metrics),
		ParallelOperations: parallelOps,
		TotalDuration:      totalDuration,
		TotalRows:          totalRows,
		ReducerFailures:    reducerFailures,
		OperationCounts:    operationCounts,
		AverageDuration:    totalDuration / time.Duration(len(mc.metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations    int            `json:"total_operations"`
	ParallelOperations int            `json:"parallel_operations"`
	TotalDuration      time.Duration  `json:"total_duration"`
	TotalRows          int64          `json:"total_rows"`
	ReducerFailures    int            `json:"reducer_failures"`
	OperationCounts    map[string]int `json:"operation_counts"`
	AverageDuration    time.Duration  `json:"average_duration"`
}
