// Package coordinator owns the lifecycle of bulk runs: single-flight
// admission, item fetching and filtering, background execution, and the
// final terminal classification.
package coordinator

import (
	"context"
	"errors"
	"sync"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	eligibility "github.com/callscope/callscope/pkg/bulk/engine/eligibility"
	executor "github.com/callscope/callscope/pkg/bulk/engine/executor"
	outcome "github.com/callscope/callscope/pkg/bulk/engine/outcome"
	partition "github.com/callscope/callscope/pkg/bulk/engine/partition"
	tracker "github.com/callscope/callscope/pkg/bulk/engine/tracker"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// ErrRunInProgress is returned by Trigger while an earlier run has not yet
// reached a terminal status. Only one bulk run may be active at a time.
var ErrRunInProgress = errors.New("a bulk run is already in progress")

// ErrUnknownOperation is returned when the triggered operation type is not
// in the registry.
var ErrUnknownOperation = errors.New("unknown operation type")

// ErrRunActive is returned by Dismiss while the tracked run is still live.
var ErrRunActive = errors.New("cannot dismiss an active run")

// Coordinator serializes run admission and drives each admitted run to a
// terminal status on a background goroutine.
type Coordinator struct {
	registry port.OperationRegistry
	source   port.ItemSource

	mu           sync.Mutex
	active       *tracker.Tracker
	done         chan struct{}
	progressObvs []port.ProgressListener
	runObvs      []port.RunListener
}

// New creates a Coordinator over the given operation catalog and item source.
func New(registry port.OperationRegistry, source port.ItemSource) *Coordinator {
	return &Coordinator{registry: registry, source: source}
}

// AddProgressListener registers an observer attached to every future run.
func (c *Coordinator) AddProgressListener(l port.ProgressListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressObvs = append(c.progressObvs, l)
}

// AddRunListener registers a run-boundary observer for every future run.
func (c *Coordinator) AddRunListener(l port.RunListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runObvs = append(c.runObvs, l)
}

// Trigger admits and starts one bulk run of the given operation type.
//
// It fetches and filters items synchronously, so the caller learns
// immediately about an unknown operation, a concurrent run, a fetch fault,
// or an empty eligible set. With ErrNoEligibleItems no job is created at
// all: the zero-work case is a distinct signal, not a failed run. A fetch
// fault does create a job, already FAILED, so the dashboard has something
// to show. On success the returned snapshot is the new PENDING job;
// execution continues on a background goroutine.
func (c *Coordinator) Trigger(ctx context.Context, opType model.OperationType) (model.BatchJobSnapshot, error) {
	spec, ok := c.registry.Lookup(opType)
	if !ok {
		return model.BatchJobSnapshot{}, exception.NewBulkErrorf("coordinator", "operation '%s' is not registered", opType, ErrUnknownOperation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && !c.active.Snapshot().Status.IsTerminal() {
		return model.BatchJobSnapshot{}, ErrRunInProgress
	}

	items, fetchErr := c.source.FetchItems(ctx, opType)
	if fetchErr != nil {
		tr := tracker.New(model.NewBatchJob(spec.Type, spec.Label, 0))
		c.attachLocked(tr)
		tr.RecordRunFailure("failed to load items: " + fetchErr.Error())
		c.active = tr
		c.done = closedChan()
		logger.Errorf("Coordinator: operation '%s' failed to load items: %v", opType, fetchErr)
		return tr.Snapshot(), exception.NewBulkError("coordinator", "failed to load items", fetchErr)
	}

	eligible, err := eligibility.FilterForRun(items, spec)
	if err != nil {
		return model.BatchJobSnapshot{}, err
	}

	tr := tracker.New(model.NewBatchJob(spec.Type, spec.Label, len(eligible)))
	c.attachLocked(tr)
	done := make(chan struct{})
	c.active = tr
	c.done = done

	runObvs := make([]port.RunListener, len(c.runObvs))
	copy(runObvs, c.runObvs)

	go c.run(ctx, spec, eligible, tr, runObvs, done)

	return tr.Snapshot(), nil
}

// run drives one admitted run to its terminal status.
func (c *Coordinator) run(ctx context.Context, spec model.OperationSpec, eligible []model.WorkItem, tr *tracker.Tracker, runObvs []port.RunListener, done chan struct{}) {
	defer close(done)

	for _, l := range runObvs {
		l.BeforeRun(ctx, tr.Snapshot())
	}

	tr.MarkAsRunning()
	logger.Infof("Coordinator: operation '%s' running %d eligible items (batch size %d).", spec.Type, len(eligible), spec.BatchSize)

	batches := partition.Split(eligible, spec.BatchSize)
	executor.Run(ctx, spec, batches, tr)

	snap := tr.Snapshot()
	status := outcome.Classify(snap)
	tr.MarkAsTerminal(status, outcome.Summarize(snap))

	final := tr.Snapshot()
	logger.Infof("Coordinator: operation '%s' finished as %s (%d/%d items, %d errors).",
		spec.Type, final.Status, final.Completed, final.Total, len(final.Errors))
	for _, l := range runObvs {
		l.AfterRun(ctx, final)
	}
}

// Snapshot returns the current (or most recent) run, if any.
func (c *Coordinator) Snapshot() (model.BatchJobSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return model.BatchJobSnapshot{}, false
	}
	return c.active.Snapshot(), true
}

// AwaitCompletion blocks until the current run reaches a terminal status
// or ctx is done, then returns the final snapshot.
func (c *Coordinator) AwaitCompletion(ctx context.Context) (model.BatchJobSnapshot, error) {
	c.mu.Lock()
	tr, done := c.active, c.done
	c.mu.Unlock()
	if tr == nil {
		return model.BatchJobSnapshot{}, errors.New("no run to await")
	}
	select {
	case <-done:
		return tr.Snapshot(), nil
	case <-ctx.Done():
		return tr.Snapshot(), ctx.Err()
	}
}

// Dismiss clears a terminal run so its banner disappears from the
// dashboard. Dismissing a live run is refused.
func (c *Coordinator) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	if !c.active.Snapshot().Status.IsTerminal() {
		return ErrRunActive
	}
	c.active = nil
	c.done = nil
	return nil
}

func (c *Coordinator) attachLocked(tr *tracker.Tracker) {
	for _, l := range c.progressObvs {
		tr.AddListener(l)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
