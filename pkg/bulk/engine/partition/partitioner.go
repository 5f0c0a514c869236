// Package partition splits an ordered eligible list into consecutive,
// bounded batches. Batch membership is deterministic given the eligibility
// filter's stable ordering; the executor processes batches strictly in
// partition order.
package partition

import (
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// Split chunks items into consecutive slices of at most batchSize,
// preserving order within and across batches. For N items it yields
// ceil(N/batchSize) batches, all of size batchSize except a possible final
// remainder. A batchSize below 1 is treated as 1 (fully sequential).
func Split(items []model.WorkItem, batchSize int) [][]model.WorkItem {
	if batchSize < 1 {
		batchSize = 1
	}

	batches := make([][]model.WorkItem, 0, (len(items)+batchSize-1)/batchSize)
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
