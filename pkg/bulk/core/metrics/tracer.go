package metrics

import (
	"context"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// Tracer is the distributed-tracing port. It lets the coordinator wrap each
// run in a span without depending on a concrete tracing SDK.
type Tracer interface {
	// StartRunSpan starts a span covering one bulk run. The returned
	// function ends the span; call it in a defer.
	StartRunSpan(ctx context.Context, snapshot model.BatchJobSnapshot) (context.Context, func())
	// RecordError records an error on the current span.
	RecordError(ctx context.Context, module string, err error)
	// RecordEvent records a named event with attributes on the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
