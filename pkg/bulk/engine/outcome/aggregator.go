// Package outcome classifies a finished run into its terminal status and
// builds the run-level result summary from the tracker's final snapshot.
package outcome

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
)

// Classify maps a final snapshot onto its terminal status. The rule is a
// pure function of the error and total counts: no errors is COMPLETED,
// everything failed is FAILED, a mix is PARTIAL_SUCCESS. An empty run
// (total zero) counts as FAILED because the coordinator only ends up here
// after a run-level fault.
func Classify(snap model.BatchJobSnapshot) model.JobStatus {
	switch {
	case snap.Total <= 0:
		return model.JobStatusFailed
	case len(snap.Errors) == 0:
		return model.JobStatusCompleted
	case len(snap.Errors) >= snap.Total:
		return model.JobStatusFailed
	default:
		return model.JobStatusPartialSuccess
	}
}

// Summarize condenses a final snapshot into the result payload stored on
// the terminal job: counts plus a reason histogram so the dashboard can
// say "3 items skipped: missing transcript" instead of dumping raw errors.
func Summarize(snap model.BatchJobSnapshot) map[string]interface{} {
	failed := len(snap.Errors)
	summary := map[string]interface{}{
		"total":     snap.Total,
		"succeeded": snap.Total - failed,
		"failed":    failed,
	}
	if failed > 0 {
		reasons := map[string]int{}
		for _, e := range snap.Errors {
			reasons[categorize(e)]++
		}
		summary["failure_reasons"] = reasons
	}
	return summary
}

// CombineErrors folds the ordered error list into a single error for
// callers that want one value, preserving every individual message.
func CombineErrors(module string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	var combined *multierror.Error
	for _, e := range errs {
		combined = multierror.Append(combined, exception.NewBulkErrorf(module, "%s", e))
	}
	return combined.ErrorOrNil()
}

// categorize buckets a raw item error into a stable reason key. Unknown
// messages fall through as themselves, minus the item label prefix.
func categorize(msg string) string {
	if i := strings.Index(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "transcript"):
		return "missing transcript"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return "timeout"
	case strings.Contains(lower, "panic"):
		return "internal error"
	default:
		return msg
	}
}
