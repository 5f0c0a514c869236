// Package port defines the interfaces between the bulk engine and its
// collaborators: remote invocation, progress observation, and run listeners.
// The engine depends on these abstractions; infrastructure and the dashboard
// provide the implementations.
package port

import (
	"context"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// Invoker performs the remote analysis call for a single item.
// Implementations must be safe for concurrent use: the executor invokes up
// to batchSize items at once.
type Invoker interface {
	// Invoke sends one analysis request. Transport failures, non-2xx
	// responses, and malformed bodies are all normalized to a failed
	// ItemOutcome or an error; the executor treats both the same way.
	Invoke(ctx context.Context, itemID string, params map[string]interface{}) (*model.ItemOutcome, error)
}

// ProgressListener observes live BatchJob state. OnUpdate receives an
// immutable snapshot after every recorded item resolution and on every
// status change. Listeners must not block; the tracker calls them inline.
type ProgressListener interface {
	OnUpdate(snapshot model.BatchJobSnapshot)
}

// ProgressListenerFunc adapts a plain function to a ProgressListener.
type ProgressListenerFunc func(snapshot model.BatchJobSnapshot)

// OnUpdate implements ProgressListener.
func (f ProgressListenerFunc) OnUpdate(snapshot model.BatchJobSnapshot) {
	f(snapshot)
}

// RunListener is notified at the boundaries of a bulk run.
type RunListener interface {
	// BeforeRun is called after the BatchJob is created, before the first
	// batch is launched.
	BeforeRun(ctx context.Context, snapshot model.BatchJobSnapshot)
	// AfterRun is called once the BatchJob has reached a terminal status.
	AfterRun(ctx context.Context, snapshot model.BatchJobSnapshot)
}

// ItemSource supplies the candidate items for a bulk run. The coordinator
// fetches the full set on every trigger; eligibility filtering happens
// afterwards, against this fresh snapshot.
type ItemSource interface {
	FetchItems(ctx context.Context, opType model.OperationType) ([]model.WorkItem, error)
}

// OperationRegistry resolves an OperationSpec by type. The dashboard's
// operation catalog implements it; the coordinator consults it on each
// trigger.
type OperationRegistry interface {
	// Lookup returns the spec for the given operation type, or false when
	// the type is unknown.
	Lookup(opType model.OperationType) (model.OperationSpec, bool)
	// Types returns the registered operation types in registration order.
	Types() []model.OperationType
}
