// Package metrics records Prometheus metrics for record-store operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomePartial          = "partial"
	OutcomeBackendFailure   = "backend_failure"
	OutcomeTransportFailure = "transport_failure"
	OutcomeValidation       = "validation_failure"
	OutcomeNotFound         = "not_found"
)

// Recorder provides methods to record record-store operation metrics.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batch      *prometheus.CounterVec
}

// NewRecorder registers the operation metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnctl_record_operations_total",
				Help: "Total number of record-store operations by collection, operation and outcome",
			},
			[]string{"collection", "operation", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fnctl_record_operation_duration_seconds",
				Help:    "Duration of record-store operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"collection", "operation"},
		),
		batch: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fnctl_batch_entries_total",
				Help: "Batch write entries by collection, operation and result",
			},
			[]string{"collection", "operation", "result"},
		),
	}
}

// RecordOperation records one completed operation.
func (r *Recorder) RecordOperation(collection, operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(collection, operation, outcome).Inc()
	r.duration.WithLabelValues(collection, operation).Observe(elapsed.Seconds())
}

// RecordBatch records the per-entry results of a batch write.
func (r *Recorder) RecordBatch(collection, operation string, succeeded, failed int) {
	if r == nil {
		return
	}
	if succeeded > 0 {
		r.batch.WithLabelValues(collection, operation, "success").Add(float64(succeeded))
	}
	if failed > 0 {
		r.batch.WithLabelValues(collection, operation, "failure").Add(float64(failed))
	}
}

// Operations exposes the operation counter for tests.
func (r *Recorder) Operations() *prometheus.CounterVec {
	return r.operations
}

// BatchEntries exposes the batch entry counter for tests.
func (r *Recorder) BatchEntries() *prometheus.CounterVec {
	return r.batch
}
