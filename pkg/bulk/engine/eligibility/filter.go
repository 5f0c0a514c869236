// Package eligibility selects the items that qualify for a bulk operation.
// Filtering is the idempotency boundary of the pipeline: items that already
// carry a result are excluded by the operation's predicate, so re-running an
// operation only reprocesses what is still outstanding.
package eligibility

import (
	"errors"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// ErrNoEligibleItems signals that the predicate matched nothing. It is an
// informational terminal condition, not a failure: the caller must not start
// a run, and no BatchJob ever enters RUNNING.
var ErrNoEligibleItems = errors.New("no eligible items for operation")

// Filter returns the order-preserving subsequence of items satisfying the
// predicate. It is pure and deterministic; the input slice is never mutated.
func Filter(items []model.WorkItem, predicate model.Predicate) []model.WorkItem {
	eligible := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		if predicate(item) {
			eligible = append(eligible, item)
		}
	}
	return eligible
}

// FilterForRun applies the spec's predicate and converts an empty result
// into ErrNoEligibleItems so callers receive a distinct "nothing to do"
// signal instead of an empty run.
func FilterForRun(items []model.WorkItem, spec model.OperationSpec) ([]model.WorkItem, error) {
	eligible := Filter(items, spec.Predicate)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleItems
	}
	return eligible, nil
}
