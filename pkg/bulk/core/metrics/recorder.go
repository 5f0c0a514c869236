// Package metrics defines the abstract observability interfaces used by the
// bulk engine. Concrete backends (Prometheus, OpenTelemetry) live in the
// infrastructure layer; this package only holds the ports and no-ops.
package metrics

import (
	"context"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// MetricRecorder records bulk-run metrics. Implementations must be safe for
// concurrent use: item outcomes arrive from executor goroutines.
type MetricRecorder interface {
	// RecordRunStart records the admission of a new run.
	RecordRunStart(ctx context.Context, snapshot model.BatchJobSnapshot)
	// RecordRunEnd records a run reaching its terminal status.
	RecordRunEnd(ctx context.Context, snapshot model.BatchJobSnapshot)
	// RecordItemSuccess counts one successful item resolution.
	RecordItemSuccess(ctx context.Context, opType model.OperationType)
	// RecordItemFailure counts one failed item resolution by reason.
	RecordItemFailure(ctx context.Context, opType model.OperationType, reason string)
}
