// Package executor drives the batched-concurrent phase of a bulk run.
// Batches execute strictly in partition order; the items of a batch run on
// concurrent goroutines; every item resolves to exactly one tracker record.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	tracker "github.com/callscope/callscope/pkg/bulk/engine/tracker"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// Run executes the prepared batches for the given operation. A batch is a
// barrier: no item of batch i+1 starts before every item of batch i has
// resolved. A returned error, a failed outcome, a nil outcome, or a panic
// inside the invocation all become one recorded failure for that item; the
// run itself never aborts mid-batch.
func Run(ctx context.Context, spec model.OperationSpec, batches [][]model.WorkItem, tr *tracker.Tracker) {
	for i, batch := range batches {
		if i > 0 && spec.BatchDelay > 0 {
			sleep(ctx, spec.BatchDelay)
		}
		logger.Debugf("Executor: operation '%s' batch %d/%d (%d items).", spec.Type, i+1, len(batches), len(batch))

		var g errgroup.Group
		for _, item := range batch {
			item := item
			g.Go(func() error {
				resolve(ctx, spec, item, tr)
				return nil
			})
		}
		_ = g.Wait()
	}
}

// resolve invokes one item and records exactly one outcome for it.
func resolve(ctx context.Context, spec model.OperationSpec, item model.WorkItem, tr *tracker.Tracker) {
	defer func() {
		if r := recover(); r != nil {
			tr.RecordFailure(item, fmt.Sprintf("panic during invocation: %v", r))
		}
	}()

	outcome, err := spec.Invoke(ctx, item)
	switch {
	case err != nil:
		tr.RecordFailure(item, err.Error())
	case outcome == nil:
		tr.RecordFailure(item, "invocation returned no outcome")
	case !outcome.Success:
		tr.RecordFailure(item, outcome.Message)
	default:
		tr.RecordSuccess(item)
	}
}

// sleep waits out the inter-batch delay, returning early when ctx is done
// so shutdown is not held hostage by a long delay.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
