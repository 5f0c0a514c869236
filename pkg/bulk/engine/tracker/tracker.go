// Package tracker owns the single mutable BatchJob of an active run.
// All mutation goes through its small method set so the job's invariants
// (monotone completed count, progress in [0,100], valid status transitions)
// hold even when batch items resolve on concurrent goroutines.
package tracker

import (
	"fmt"
	"sync"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// Tracker serializes mutation of one BatchJob and fans snapshots out to
// registered observers. The executor calls RecordSuccess or RecordFailure
// exactly once per item; observers only ever see immutable copies.
type Tracker struct {
	mu        sync.Mutex
	job       *model.BatchJob
	listeners []port.ProgressListener
}

// New creates a Tracker owning the given BatchJob.
func New(job *model.BatchJob) *Tracker {
	return &Tracker{job: job}
}

// AddListener registers a progress observer. Listeners are notified in
// registration order after every mutation.
func (t *Tracker) AddListener(l port.ProgressListener) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Snapshot returns an immutable copy of the current BatchJob state.
func (t *Tracker) Snapshot() model.BatchJobSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job.Snapshot()
}

// MarkAsRunning transitions the job to RUNNING and notifies observers.
func (t *Tracker) MarkAsRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.MarkAsRunning()
	t.publishLocked()
}

// RecordSuccess records the successful resolution of one item: the
// completed count increments and progress is recomputed atomically.
func (t *Tracker) RecordSuccess(item model.WorkItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.RecordCompletion()
	logger.Debugf("Tracker: item '%s' succeeded (%d/%d).", item.ItemID(), t.job.Completed, t.job.Total)
	t.publishLocked()
}

// RecordFailure records the failed resolution of one item. The labeled
// error joins the ordered error list and the completed count still
// increments: a failed item is a resolved item.
func (t *Tracker) RecordFailure(item model.WorkItem, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.AddError(fmt.Sprintf("%s: %s", item.ItemLabel(), reason))
	t.job.RecordCompletion()
	logger.Debugf("Tracker: item '%s' failed: %s (%d/%d).", item.ItemID(), reason, t.job.Completed, t.job.Total)
	t.publishLocked()
}

// RecordRunFailure records a run-level failure that occurred before any item
// started: one synthetic error, straight to FAILED, no partial completion.
func (t *Tracker) RecordRunFailure(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.AddError(reason)
	t.job.MarkAsTerminal(model.JobStatusFailed)
	t.publishLocked()
}

// MarkAsTerminal transitions the job to the given terminal status, attaches
// the optional result payload, and notifies observers one final time.
func (t *Tracker) MarkAsTerminal(status model.JobStatus, result map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if result != nil {
		t.job.Result = result
	}
	t.job.MarkAsTerminal(status)
	t.publishLocked()
}

// publishLocked delivers a fresh snapshot to every listener while holding
// the tracker lock, so observers see updates in mutation order and never a
// torn BatchJob. Listeners must not call back into the Tracker.
func (t *Tracker) publishLocked() {
	if len(t.listeners) == 0 {
		return
	}
	snap := t.job.Snapshot()
	for _, l := range t.listeners {
		l.OnUpdate(snap)
	}
}
