package metrics

import (
	"context"
	"time"
)

// NoopCollector is a no-op implementation of Collector for tests and
// for running without metrics.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (n *NoopCollector) RecordReconcileDuration(_ context.Context, _ string, _ time.Duration) {}

func (n *NoopCollector) RecordChildOperation(_ context.Context, _, _, _ string) {}

func (n *NoopCollector) RecordDriftCorrection(_ context.Context, _ string) {}

func (n *NoopCollector) RecordReconcileError(_ context.Context, _ string) {}

func (n *NoopCollector) RecordStatusWrite(_ context.Context, _ string) {}
