// Package metrics provides listeners that feed run and item events into
// the MetricRecorder port.
package metrics

import (
	"context"
	"sync"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	coremetrics "github.com/callscope/callscope/pkg/bulk/core/metrics"
)

// --- Run Listener ---

type MetricsRunListener struct {
	recorder coremetrics.MetricRecorder
}

func NewMetricsRunListener(recorder coremetrics.MetricRecorder) port.RunListener {
	return &MetricsRunListener{recorder: recorder}
}

func (l *MetricsRunListener) BeforeRun(ctx context.Context, snap model.BatchJobSnapshot) {
	l.recorder.RecordRunStart(ctx, snap)
}

func (l *MetricsRunListener) AfterRun(ctx context.Context, snap model.BatchJobSnapshot) {
	l.recorder.RecordRunEnd(ctx, snap)
}

var _ port.RunListener = (*MetricsRunListener)(nil)

// --- Progress Listener ---

// MetricsProgressListener derives per-item counters from consecutive
// snapshots: a grown error list is a failure, any other completed-count
// growth is a success. State is keyed by job ID and dropped on terminal
// status so the listener can outlive individual runs.
type MetricsProgressListener struct {
	recorder coremetrics.MetricRecorder

	mu   sync.Mutex
	seen map[string]progressCounts
}

type progressCounts struct {
	completed int
	errors    int
}

func NewMetricsProgressListener(recorder coremetrics.MetricRecorder) port.ProgressListener {
	return &MetricsProgressListener{
		recorder: recorder,
		seen:     make(map[string]progressCounts),
	}
}

func (l *MetricsProgressListener) OnUpdate(snap model.BatchJobSnapshot) {
	l.mu.Lock()
	prev := l.seen[snap.ID]
	failures := len(snap.Errors) - prev.errors
	successes := (snap.Completed - prev.completed) - failures
	if snap.Status.IsTerminal() {
		delete(l.seen, snap.ID)
	} else {
		l.seen[snap.ID] = progressCounts{completed: snap.Completed, errors: len(snap.Errors)}
	}
	l.mu.Unlock()

	ctx := context.Background()
	for i := 0; i < failures; i++ {
		reason := snap.Errors[prev.errors+i]
		l.recorder.RecordItemFailure(ctx, snap.Type, reason)
	}
	for i := 0; i < successes; i++ {
		l.recorder.RecordItemSuccess(ctx, snap.Type)
	}
}

var _ port.ProgressListener = (*MetricsProgressListener)(nil)
