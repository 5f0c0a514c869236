package metrics

import (
	"context"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// NoOpMetricRecorder discards all metrics. Used when metrics are disabled
// and in tests.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordRunStart(context.Context, model.BatchJobSnapshot) {}
func (r *NoOpMetricRecorder) RecordRunEnd(context.Context, model.BatchJobSnapshot)   {}
func (r *NoOpMetricRecorder) RecordItemSuccess(context.Context, model.OperationType) {}
func (r *NoOpMetricRecorder) RecordItemFailure(context.Context, model.OperationType, string) {
}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// NoOpTracer discards all spans.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartRunSpan(ctx context.Context, _ model.BatchJobSnapshot) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(context.Context, string, error) {}

func (t *NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}

var _ Tracer = (*NoOpTracer)(nil)
