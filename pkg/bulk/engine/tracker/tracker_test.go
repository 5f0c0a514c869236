package tracker_test

import (
	"sync"
	"testing"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	tracker "github.com/callscope/callscope/pkg/bulk/engine/tracker"

	"github.com/stretchr/testify/assert"
)

type fakeItem struct{ id, label string }

func (f fakeItem) ItemID() string    { return f.id }
func (f fakeItem) ItemLabel() string { return f.label }

func newRunningTracker(total int) *tracker.Tracker {
	job := model.NewBatchJob("sentiment_analysis", "Sentiment Analysis", total)
	tr := tracker.New(job)
	tr.MarkAsRunning()
	return tr
}

func TestTracker_RecordSuccessAndFailure(t *testing.T) {
	tr := newRunningTracker(3)

	tr.RecordSuccess(fakeItem{id: "rec-1", label: "Call A"})
	snap := tr.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 33, snap.Progress)
	assert.Empty(t, snap.Errors)

	tr.RecordFailure(fakeItem{id: "rec-2", label: "Call B"}, "missing transcript")
	snap = tr.Snapshot()
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 67, snap.Progress)
	assert.Equal(t, []string{"Call B: missing transcript"}, snap.Errors)

	tr.RecordSuccess(fakeItem{id: "rec-3", label: "Call C"})
	snap = tr.Snapshot()
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, 100, snap.Progress)
}

func TestTracker_ListenersReceiveEveryUpdate(t *testing.T) {
	tr := newRunningTracker(2)

	var mu sync.Mutex
	var seen []model.BatchJobSnapshot
	tr.AddListener(port.ProgressListenerFunc(func(snap model.BatchJobSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, snap)
	}))

	tr.RecordSuccess(fakeItem{id: "rec-1", label: "Call A"})
	tr.RecordFailure(fakeItem{id: "rec-2", label: "Call B"}, "timeout")
	tr.MarkAsTerminal(model.JobStatusPartialSuccess, nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
	assert.Equal(t, 1, seen[0].Completed)
	assert.Equal(t, 2, seen[1].Completed)
	assert.Equal(t, model.JobStatusPartialSuccess, seen[2].Status)
}

func TestTracker_ConcurrentRecordingStaysMonotone(t *testing.T) {
	const total = 100
	tr := newRunningTracker(total)

	// Every observed snapshot must hold the progress invariant; completed
	// only ever increases from the observer's point of view.
	var obsMu sync.Mutex
	maxSeen := 0
	tr.AddListener(port.ProgressListenerFunc(func(snap model.BatchJobSnapshot) {
		obsMu.Lock()
		defer obsMu.Unlock()
		assert.GreaterOrEqual(t, snap.Completed, maxSeen)
		assert.LessOrEqual(t, snap.Completed, total)
		assert.GreaterOrEqual(t, snap.Progress, 0)
		assert.LessOrEqual(t, snap.Progress, 100)
		if snap.Completed > maxSeen {
			maxSeen = snap.Completed
		}
	}))

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%5 == 0 {
				tr.RecordFailure(fakeItem{id: "rec", label: "Call"}, "boom")
			} else {
				tr.RecordSuccess(fakeItem{id: "rec", label: "Call"})
			}
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	assert.Equal(t, total, snap.Completed)
	assert.Equal(t, 100, snap.Progress)
	assert.Len(t, snap.Errors, total/5)
}

func TestTracker_RecordRunFailure(t *testing.T) {
	job := model.NewBatchJob("quality_scoring", "Quality Scoring", 0)
	tr := tracker.New(job)

	tr.RecordRunFailure("failed to load recordings: connection refused")

	snap := tr.Snapshot()
	assert.Equal(t, model.JobStatusFailed, snap.Status)
	assert.Equal(t, 0, snap.Completed)
	assert.Equal(t, []string{"failed to load recordings: connection refused"}, snap.Errors)
	assert.NotNil(t, snap.EndTime)
}
