package model

import (
	"context"
	"fmt"
	"math"
	"time"

	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"

	"github.com/google/uuid"
)

// JobStatus represents the state of a bulk operation run.
type JobStatus string

const (
	JobStatusPending        JobStatus = "PENDING"
	JobStatusRunning        JobStatus = "RUNNING"
	JobStatusCompleted      JobStatus = "COMPLETED"
	JobStatusFailed         JobStatus = "FAILED"
	JobStatusPartialSuccess JobStatus = "PARTIAL_SUCCESS"
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal checks if the JobStatus represents a finished state.
// A terminal BatchJob is immutable; no further mutation is accepted.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartialSuccess:
		return true
	default:
		return false
	}
}

// OperationType identifies a bulk operation (e.g., "sentiment_analysis").
type OperationType string

// String returns the OperationType as a string.
func (t OperationType) String() string {
	return string(t)
}

// WorkItem is the engine's read-only view of a caller-owned domain item.
// The engine never mutates items; it only reads identity and label for
// eligibility checks and error messages.
type WorkItem interface {
	// ItemID returns the stable identifier of the item.
	ItemID() string
	// ItemLabel returns the human-readable label used in error messages.
	ItemLabel() string
}

// ItemOutcome is the normalized result of a single invocation.
// Failed invocations carry a human-readable message; successful ones may
// carry an opaque data payload.
type ItemOutcome struct {
	Success bool
	Data    map[string]interface{}
	Message string
}

// SuccessOutcome builds a successful ItemOutcome with an optional payload.
func SuccessOutcome(data map[string]interface{}) *ItemOutcome {
	return &ItemOutcome{Success: true, Data: data}
}

// FailureOutcome builds a failed ItemOutcome with the given reason.
func FailureOutcome(message string) *ItemOutcome {
	return &ItemOutcome{Success: false, Message: message}
}

// InvokeFunc performs the slow remote analysis for one item.
// Implementations may return an error instead of a failed outcome; the
// executor catches it and normalizes it to the same shape.
type InvokeFunc func(ctx context.Context, item WorkItem) (*ItemOutcome, error)

// Predicate decides whether an item is eligible for an operation.
type Predicate func(item WorkItem) bool

// OperationSpec parameterizes one bulk operation: what qualifies, what to
// invoke, and how aggressively to drive the remote endpoint. The four
// dashboard handlers that used to duplicate this control flow are a single
// executor configured with different OperationSpec values.
type OperationSpec struct {
	// Type identifies the operation.
	Type OperationType
	// Label is the human-readable display name of the operation.
	Label string
	// Predicate selects eligible items. It must be pure and deterministic.
	Predicate Predicate
	// Invoke performs the remote call for one item.
	Invoke InvokeFunc
	// BatchSize bounds in-flight concurrency. A size of 1 yields fully
	// sequential execution.
	BatchSize int
	// BatchDelay is the suspension between consecutive batches.
	BatchDelay time.Duration
}

// Validate checks that the spec is executable.
func (s OperationSpec) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("operation spec has no type")
	}
	if s.Predicate == nil {
		return fmt.Errorf("operation '%s' has no eligibility predicate", s.Type)
	}
	if s.Invoke == nil {
		return fmt.Errorf("operation '%s' has no invocation function", s.Type)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("operation '%s' has invalid batch size %d", s.Type, s.BatchSize)
	}
	return nil
}

// BatchJob is the mutable per-run state aggregate. It is created at run
// start, mutated incrementally by the executor through the Progress Tracker,
// and becomes immutable once a terminal status is reached. At most one
// BatchJob is tracked per coordinator at any time.
type BatchJob struct {
	ID          string
	Type        OperationType
	Label       string
	Status      JobStatus
	Total       int
	Completed   int
	Progress    int
	Errors      []string
	Result      map[string]interface{}
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
}

// NewBatchJob creates a new BatchJob in PENDING state for the given
// operation over `total` eligible items.
func NewBatchJob(opType OperationType, label string, total int) *BatchJob {
	now := time.Now()
	return &BatchJob{
		ID:          NewID(),
		Type:        opType,
		Label:       label,
		Status:      JobStatusPending,
		Total:       total,
		Completed:   0,
		Progress:    0,
		Errors:      make([]string, 0),
		StartTime:   now,
		LastUpdated: now,
	}
}

// isValidJobTransition checks if the state transition for a BatchJob is valid.
func isValidJobTransition(current, next JobStatus) bool {
	switch current {
	case JobStatusPending:
		// A run that fails before any item starts goes straight to FAILED.
		return next == JobStatusRunning || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusPartialSuccess
	default:
		// Terminal states accept no further transition.
		return false
	}
}

// TransitionTo safely transitions the state of the BatchJob.
func (j *BatchJob) TransitionTo(newStatus JobStatus) error {
	if !isValidJobTransition(j.Status, newStatus) {
		return fmt.Errorf("BatchJob (ID: %s): invalid state transition: %s -> %s", j.ID, j.Status, newStatus)
	}
	j.Status = newStatus
	j.LastUpdated = time.Now()
	return nil
}

// MarkAsRunning updates the BatchJob status to RUNNING.
func (j *BatchJob) MarkAsRunning() {
	if err := j.TransitionTo(JobStatusRunning); err != nil {
		logger.Warnf("Could not update BatchJob (ID: %s) status to RUNNING: %v", j.ID, err)
		j.Status = JobStatusRunning
	}
}

// MarkAsTerminal updates the BatchJob to the given terminal status and
// stamps the end time. Non-terminal statuses are rejected.
func (j *BatchJob) MarkAsTerminal(status JobStatus) {
	if !status.IsTerminal() {
		logger.Warnf("MarkAsTerminal called with non-terminal status %s for BatchJob (ID: %s).", status, j.ID)
		return
	}
	if err := j.TransitionTo(status); err != nil {
		logger.Warnf("Could not update BatchJob (ID: %s) status to %s: %v", j.ID, status, err)
		j.Status = status
	}
	now := time.Now()
	j.EndTime = &now
	j.LastUpdated = now
}

// RecordCompletion increments the completed count and recomputes progress.
// Completed is monotone and never exceeds Total.
func (j *BatchJob) RecordCompletion() {
	if j.Completed >= j.Total {
		logger.Warnf("BatchJob (ID: %s): completion recorded beyond total (%d/%d); ignoring.", j.ID, j.Completed, j.Total)
		return
	}
	j.Completed++
	j.Progress = ProgressPercent(j.Completed, j.Total)
	j.LastUpdated = time.Now()
}

// AddError appends a labeled per-item error message to the ordered list.
func (j *BatchJob) AddError(message string) {
	j.Errors = append(j.Errors, message)
	j.LastUpdated = time.Now()
}

// Snapshot returns an immutable copy of the BatchJob for observers.
func (j *BatchJob) Snapshot() BatchJobSnapshot {
	errs := make([]string, len(j.Errors))
	copy(errs, j.Errors)

	var result map[string]interface{}
	if j.Result != nil {
		result = make(map[string]interface{}, len(j.Result))
		for k, v := range j.Result {
			result[k] = v
		}
	}

	var endTime *time.Time
	if j.EndTime != nil {
		t := *j.EndTime
		endTime = &t
	}

	return BatchJobSnapshot{
		ID:          j.ID,
		Type:        j.Type,
		Label:       j.Label,
		Status:      j.Status,
		Total:       j.Total,
		Completed:   j.Completed,
		Progress:    j.Progress,
		Errors:      errs,
		Result:      result,
		StartTime:   j.StartTime,
		EndTime:     endTime,
		LastUpdated: j.LastUpdated,
	}
}

// BatchJobSnapshot is a point-in-time, read-only copy of a BatchJob.
// It is what observers receive; mutating it has no effect on the run.
type BatchJobSnapshot struct {
	ID          string
	Type        OperationType
	Label       string
	Status      JobStatus
	Total       int
	Completed   int
	Progress    int
	Errors      []string
	Result      map[string]interface{}
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
}

// ProgressPercent computes round(100*completed/total), clamped to [0,100].
// A total of zero yields zero.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}
