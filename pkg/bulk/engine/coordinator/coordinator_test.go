package coordinator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	coordinator "github.com/callscope/callscope/pkg/bulk/engine/coordinator"
	eligibility "github.com/callscope/callscope/pkg/bulk/engine/eligibility"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	id       string
	label    string
	analyzed bool
}

func (f fakeItem) ItemID() string    { return f.id }
func (f fakeItem) ItemLabel() string { return f.label }

type fakeRegistry struct{ specs map[model.OperationType]model.OperationSpec }

func (r *fakeRegistry) Lookup(opType model.OperationType) (model.OperationSpec, bool) {
	spec, ok := r.specs[opType]
	return spec, ok
}

func (r *fakeRegistry) Types() []model.OperationType {
	types := make([]model.OperationType, 0, len(r.specs))
	for t := range r.specs {
		types = append(types, t)
	}
	return types
}

type fakeSource struct {
	items []model.WorkItem
	err   error
}

func (s *fakeSource) FetchItems(_ context.Context, _ model.OperationType) ([]model.WorkItem, error) {
	return s.items, s.err
}

func notAnalyzed(item model.WorkItem) bool { return !item.(fakeItem).analyzed }

func sentimentSpec(invoke model.InvokeFunc) model.OperationSpec {
	return model.OperationSpec{
		Type:      "sentiment_analysis",
		Label:     "Sentiment Analysis",
		Predicate: notAnalyzed,
		Invoke:    invoke,
		BatchSize: 3,
	}
}

func registryWith(spec model.OperationSpec) *fakeRegistry {
	return &fakeRegistry{specs: map[model.OperationType]model.OperationSpec{spec.Type: spec}}
}

func pendingItems(n int) []model.WorkItem {
	items := make([]model.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fakeItem{id: "rec-" + string(rune('a'+i)), label: "Call " + string(rune('A'+i))})
	}
	return items
}

func TestTrigger_RunsToPartialSuccess(t *testing.T) {
	spec := sentimentSpec(func(_ context.Context, item model.WorkItem) (*model.ItemOutcome, error) {
		if item.ItemID() == "rec-d" || item.ItemID() == "rec-e" {
			return model.FailureOutcome("missing transcript"), nil
		}
		return model.SuccessOutcome(nil), nil
	})
	c := coordinator.New(registryWith(spec), &fakeSource{items: pendingItems(7)})

	snap, err := c.Trigger(context.Background(), "sentiment_analysis")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, snap.Status)
	assert.Equal(t, 7, snap.Total)

	final, err := c.AwaitCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPartialSuccess, final.Status)
	assert.Equal(t, 7, final.Completed)
	assert.Equal(t, 100, final.Progress)
	assert.Len(t, final.Errors, 2)
	assert.Equal(t, 5, final.Result["succeeded"])
	assert.Equal(t, 2, final.Result["failed"])
	require.NotNil(t, final.EndTime)
}

func TestTrigger_AllSuccessIsCompleted(t *testing.T) {
	spec := sentimentSpec(func(_ context.Context, _ model.WorkItem) (*model.ItemOutcome, error) {
		return model.SuccessOutcome(nil), nil
	})
	c := coordinator.New(registryWith(spec), &fakeSource{items: pendingItems(4)})

	_, err := c.Trigger(context.Background(), "sentiment_analysis")
	require.NoError(t, err)

	final, err := c.AwaitCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, final.Status)
	assert.Empty(t, final.Errors)
}

func TestTrigger_SecondTriggerWhileRunningIsRefused(t *testing.T) {
	release := make(chan struct{})
	spec := sentimentSpec(func(_ context.Context, _ model.WorkItem) (*model.ItemOutcome, error) {
		<-release
		return model.SuccessOutcome(nil), nil
	})
	c := coordinator.New(registryWith(spec), &fakeSource{items: pendingItems(3)})

	_, err := c.Trigger(context.Background(), "sentiment_analysis")
	require.NoError(t, err)

	_, err = c.Trigger(context.Background(), "sentiment_analysis")
	assert.ErrorIs(t, err, coordinator.ErrRunInProgress)

	close(release)
	_, err = c.AwaitCompletion(context.Background())
	require.NoError(t, err)

	// A terminal run no longer blocks admission.
	_, err = c.Trigger(context.Background(), "sentiment_analysis")
	assert.NoError(t, err)
}

func TestTrigger_ZeroEligibleCreatesNoJob(t *testing.T) {
	spec := sentimentSpec(func(_ context.Context, _ model.WorkItem) (*model.ItemOutcome, error) {
		return model.SuccessOutcome(nil), nil
	})
	analyzed := []model.WorkItem{
		fakeItem{id: "rec-1", label: "Call A", analyzed: true},
		fakeItem{id: "rec-2", label: "Call B", analyzed: true},
	}
	c := coordinator.New(registryWith(spec), &fakeSource{items: analyzed})

	_, err := c.Trigger(context.Background(), "sentiment_analysis")
	assert.ErrorIs(t, err, eligibility.ErrNoEligibleItems)

	_, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestTrigger_UnknownOperation(t *testing.T) {
	c := coordinator.New(&fakeRegistry{}, &fakeSource{})

	_, err := c.Trigger(context.Background(), "speaker_diarization")
	assert.ErrorIs(t, err, coordinator.ErrUnknownOperation)
	assert.True(t, exception.IsBulkError(err))
}

func TestTrigger_FetchFaultYieldsFailedJob(t *testing.T) {
	spec := sentimentSpec(nil)
	c := coordinator.New(registryWith(spec), &fakeSource{err: errors.New("connection refused")})

	snap, err := c.Trigger(context.Background(), "sentiment_analysis")
	assert.Error(t, err)
	assert.Equal(t, model.JobStatusFailed, snap.Status)
	assert.Equal(t, []string{"failed to load items: connection refused"}, snap.Errors)

	stored, ok := c.Snapshot()
	require.True(t, ok)
	assert.Equal(t, model.JobStatusFailed, stored.Status)

	// A failed admission is terminal and dismissable.
	assert.NoError(t, c.Dismiss())
}

func TestDismiss(t *testing.T) {
	release := make(chan struct{})
	spec := sentimentSpec(func(_ context.Context, _ model.WorkItem) (*model.ItemOutcome, error) {
		<-release
		return model.SuccessOutcome(nil), nil
	})
	c := coordinator.New(registryWith(spec), &fakeSource{items: pendingItems(2)})

	assert.NoError(t, c.Dismiss(), "dismissing with no run is a no-op")

	_, err := c.Trigger(context.Background(), "sentiment_analysis")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Dismiss(), coordinator.ErrRunActive)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = c.AwaitCompletion(ctx)
	require.NoError(t, err)

	assert.NoError(t, c.Dismiss())
	_, ok := c.Snapshot()
	assert.False(t, ok)
}

func TestTrigger_ListenersObserveRunBoundaries(t *testing.T) {
	spec := sentimentSpec(func(_ context.Context, _ model.WorkItem) (*model.ItemOutcome, error) {
		return model.SuccessOutcome(nil), nil
	})
	c := coordinator.New(registryWith(spec), &fakeSource{items: pendingItems(2)})

	var updates int
	c.AddProgressListener(port.ProgressListenerFunc(func(model.BatchJobSnapshot) { updates++ }))

	boundary := &recordingRunListener{}
	c.AddRunListener(boundary)

	_, err := c.Trigger(context.Background(), "sentiment_analysis")
	require.NoError(t, err)
	final, err := c.AwaitCompletion(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.JobStatusPending, boundary.before.Status)
	assert.Equal(t, final.Status, boundary.after.Status)
	// RUNNING, two item resolutions, terminal: four updates at minimum.
	assert.GreaterOrEqual(t, updates, 4)
}

type recordingRunListener struct {
	before model.BatchJobSnapshot
	after  model.BatchJobSnapshot
}

func (r *recordingRunListener) BeforeRun(_ context.Context, snap model.BatchJobSnapshot) {
	r.before = snap
}

func (r *recordingRunListener) AfterRun(_ context.Context, snap model.BatchJobSnapshot) {
	r.after = snap
}
