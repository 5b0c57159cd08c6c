// Package metrics provides Prometheus metrics instrumentation for the operator.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Child operation labels.
const (
	OpCreate = "create"
	OpPatch  = "patch"
	OpDelete = "delete"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
type Collector interface {
	// RecordReconcileDuration records one reconcile pass by outcome
	// (ready, progressing, error, deleted).
	RecordReconcileDuration(ctx context.Context, outcome string, duration time.Duration)

	// RecordChildOperation records a cluster write for a child kind.
	RecordChildOperation(ctx context.Context, kind, op, status string)

	// RecordDriftCorrection records that an externally mutated
	// operator-owned field was restored on a child kind.
	RecordDriftCorrection(ctx context.Context, kind string)

	// RecordReconcileError records a failed pass by error class.
	RecordReconcileError(ctx context.Context, errorType string)

	// RecordStatusWrite records a status subresource write, or a skip
	// when the computed status matched the stored one.
	RecordStatusWrite(ctx context.Context, result string)
}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	reconcileDuration *prometheus.HistogramVec
	childOpsTotal     *prometheus.CounterVec
	driftTotal        *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	statusWritesTotal *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{
		reconcileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "staticsite_reconcile_duration_seconds",
				Help:    "Duration of reconcile passes by outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		childOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticsite_child_operations_total",
				Help: "Cluster writes issued for child objects.",
			},
			[]string{"kind", "op", "status"},
		),
		driftTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticsite_drift_corrections_total",
				Help: "Operator-owned fields restored after external mutation.",
			},
			[]string{"kind"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticsite_reconcile_errors_total",
				Help: "Failed reconcile passes by error class.",
			},
			[]string{"error_type"},
		),
		statusWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "staticsite_status_writes_total",
				Help: "Status subresource writes and skipped no-op writes.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		c.reconcileDuration,
		c.childOpsTotal,
		c.driftTotal,
		c.errorsTotal,
		c.statusWritesTotal,
	)

	return c
}

// RecordReconcileDuration records the duration of a reconcile pass.
func (c *prometheusCollector) RecordReconcileDuration(_ context.Context, outcome string, duration time.Duration) {
	c.reconcileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordChildOperation records a cluster write for a child kind.
func (c *prometheusCollector) RecordChildOperation(_ context.Context, kind, op, status string) {
	c.childOpsTotal.WithLabelValues(kind, op, status).Inc()
}

// RecordDriftCorrection records a restored operator-owned field.
func (c *prometheusCollector) RecordDriftCorrection(_ context.Context, kind string) {
	c.driftTotal.WithLabelValues(kind).Inc()
}

// RecordReconcileError records a failed pass by error class.
func (c *prometheusCollector) RecordReconcileError(_ context.Context, errorType string) {
	c.errorsTotal.WithLabelValues(errorType).Inc()
}

// RecordStatusWrite records a status write or skip.
func (c *prometheusCollector) RecordStatusWrite(_ context.Context, result string) {
	c.statusWritesTotal.WithLabelValues(result).Inc()
}
