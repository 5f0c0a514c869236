package recording_test

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	recording "github.com/callscope/callscope/pkg/recording"
	inmemory "github.com/callscope/callscope/pkg/recording/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoker struct {
	outcome *model.ItemOutcome
	err     error
	calls   []string
}

func (s *stubInvoker) Invoke(_ context.Context, itemID string, _ map[string]interface{}) (*model.ItemOutcome, error) {
	s.calls = append(s.calls, itemID)
	return s.outcome, s.err
}

func newCatalog(t *testing.T, repo recording.Repository, invoker *stubInvoker, cfg config.BulkConfig) *recording.Catalog {
	t.Helper()
	catalog, err := recording.NewCatalog(repo, invoker, cfg)
	require.NoError(t, err)
	return catalog
}

func salesCall(id string) *recording.Recording {
	return &recording.Recording{
		ID:       id,
		Label:    "Call " + id,
		CallType: recording.CallTypeSales,
		Status:   recording.CallStatusCompleted,
	}
}

func TestCatalog_RegistersBuiltinOperations(t *testing.T) {
	catalog := newCatalog(t, inmemory.NewStore(), &stubInvoker{}, config.BulkConfig{})

	assert.Equal(t, []model.OperationType{
		recording.OpSentimentAnalysis,
		recording.OpQualityScoring,
		recording.OpKeywordDetection,
	}, catalog.Types())

	spec, ok := catalog.Lookup(recording.OpSentimentAnalysis)
	require.True(t, ok)
	assert.Equal(t, 3, spec.BatchSize)
	assert.Equal(t, time.Second, spec.BatchDelay)

	spec, ok = catalog.Lookup(recording.OpKeywordDetection)
	require.True(t, ok)
	assert.Equal(t, 1, spec.BatchSize)
	assert.Equal(t, 2*time.Second, spec.BatchDelay)

	_, ok = catalog.Lookup("transcript_export")
	assert.False(t, ok)
}

func TestCatalog_ConfigOverridesTuning(t *testing.T) {
	catalog := newCatalog(t, inmemory.NewStore(), &stubInvoker{}, config.BulkConfig{
		Operations: map[string]config.OperationTuning{
			"sentiment_analysis": {BatchSize: 5, DelayMs: 250},
		},
	})

	spec, ok := catalog.Lookup(recording.OpSentimentAnalysis)
	require.True(t, ok)
	assert.Equal(t, 5, spec.BatchSize)
	assert.Equal(t, 250*time.Millisecond, spec.BatchDelay)

	// Unmentioned operations keep their defaults.
	spec, ok = catalog.Lookup(recording.OpQualityScoring)
	require.True(t, ok)
	assert.Equal(t, 3, spec.BatchSize)
}

func TestSentimentPredicate_SelectsUnanalyzedCompletedSalesCalls(t *testing.T) {
	catalog := newCatalog(t, inmemory.NewStore(), &stubInvoker{}, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpSentimentAnalysis)

	assert.True(t, spec.Predicate(salesCall("rec-1")))

	analyzed := salesCall("rec-2")
	analyzed.Sentiment = &recording.AnalysisResult{Category: "positive"}
	assert.False(t, spec.Predicate(analyzed))

	support := salesCall("rec-3")
	support.CallType = recording.CallTypeSupport
	assert.False(t, spec.Predicate(support))

	inProgress := salesCall("rec-4")
	inProgress.Status = recording.CallStatusInProgress
	assert.False(t, spec.Predicate(inProgress))
}

func TestKeywordPredicate_RequiresTranscriptLength(t *testing.T) {
	catalog := newCatalog(t, inmemory.NewStore(), &stubInvoker{}, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpKeywordDetection)

	long := salesCall("rec-1")
	long.TranscriptWordCount = 100
	assert.True(t, spec.Predicate(long))

	short := salesCall("rec-2")
	short.TranscriptWordCount = 99
	assert.False(t, spec.Predicate(short))

	done := salesCall("rec-3")
	done.TranscriptWordCount = 500
	done.Keywords = &recording.AnalysisResult{Keywords: []string{"pricing"}}
	assert.False(t, spec.Predicate(done))
}

func TestFetchItems_ReadsFreshRepositorySnapshot(t *testing.T) {
	store := inmemory.NewStore()
	require.NoError(t, store.Save(context.Background(), salesCall("rec-1")))
	catalog := newCatalog(t, store, &stubInvoker{}, config.BulkConfig{})

	items, err := catalog.FetchItems(context.Background(), recording.OpSentimentAnalysis)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, store.Save(context.Background(), salesCall("rec-2")))
	items, err = catalog.FetchItems(context.Background(), recording.OpSentimentAnalysis)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestInvoke_PersistsSuccessfulResult(t *testing.T) {
	store := inmemory.NewStore()
	require.NoError(t, store.Save(context.Background(), salesCall("rec-1")))

	invoker := &stubInvoker{outcome: model.SuccessOutcome(map[string]interface{}{
		"score":    0.91,
		"category": "positive",
		"model":    "sentiment-v2",
	})}
	catalog := newCatalog(t, store, invoker, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpSentimentAnalysis)

	outcome, err := spec.Invoke(context.Background(), salesCall("rec-1"))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, []string{"rec-1"}, invoker.calls)

	rec, err := store.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	require.NotNil(t, rec.Sentiment)
	assert.Equal(t, "positive", rec.Sentiment.Category)
	assert.InDelta(t, 0.91, rec.Sentiment.Score, 1e-9)
	assert.Equal(t, "sentiment-v2", rec.Sentiment.Model)
	assert.False(t, rec.Sentiment.AnalyzedAt.IsZero())
}

func TestInvoke_FailedOutcomeLeavesRecordingUntouched(t *testing.T) {
	store := inmemory.NewStore()
	require.NoError(t, store.Save(context.Background(), salesCall("rec-1")))

	invoker := &stubInvoker{outcome: model.FailureOutcome("analysis timeout")}
	catalog := newCatalog(t, store, invoker, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpSentimentAnalysis)

	outcome, err := spec.Invoke(context.Background(), salesCall("rec-1"))
	require.NoError(t, err)
	assert.False(t, outcome.Success)

	rec, err := store.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Nil(t, rec.Sentiment)
}

func TestInvoke_KeywordResultStoresDetectedKeywords(t *testing.T) {
	store := inmemory.NewStore()
	call := salesCall("rec-1")
	call.TranscriptWordCount = 200
	require.NoError(t, store.Save(context.Background(), call))

	invoker := &stubInvoker{outcome: model.SuccessOutcome(map[string]interface{}{
		"keywords": []interface{}{"pricing", "renewal"},
	})}
	catalog := newCatalog(t, store, invoker, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpKeywordDetection)

	_, err := spec.Invoke(context.Background(), call)
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	require.NotNil(t, rec.Keywords)
	assert.Equal(t, []string{"pricing", "renewal"}, rec.Keywords.Keywords)
}

func TestInvoke_TransportErrorPropagates(t *testing.T) {
	store := inmemory.NewStore()
	require.NoError(t, store.Save(context.Background(), salesCall("rec-1")))

	invoker := &stubInvoker{err: errors.New("connection refused")}
	catalog := newCatalog(t, store, invoker, config.BulkConfig{})
	spec, _ := catalog.Lookup(recording.OpSentimentAnalysis)

	_, err := spec.Invoke(context.Background(), salesCall("rec-1"))
	assert.Error(t, err)
}
