package app

import (
	"context"
	"hash/fnv"
	"time"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
	recording "github.com/callscope/callscope/pkg/recording"
)

// simulatedInvoker stands in for the analysis service when no endpoint is
// configured. Results are deterministic per item so repeated demo runs
// behave the same.
type simulatedInvoker struct {
	latency time.Duration
}

func newSimulatedInvoker() *simulatedInvoker {
	return &simulatedInvoker{latency: 150 * time.Millisecond}
}

var sentimentCategories = []string{"positive", "neutral", "negative"}

var keywordPool = []string{"pricing", "renewal", "escalation", "billing", "integration", "contract"}

func (s *simulatedInvoker) Invoke(ctx context.Context, itemID string, params map[string]interface{}) (*model.ItemOutcome, error) {
	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	seed := hashID(itemID)
	analysis, _ := params["analysis"].(string)
	switch recording.AnalysisKind(analysis) {
	case recording.AnalysisSentiment:
		return model.SuccessOutcome(map[string]interface{}{
			"score":    float64(seed%200)/100 - 1,
			"category": sentimentCategories[seed%uint32(len(sentimentCategories))],
			"model":    "sim-sentiment-v1",
		}), nil
	case recording.AnalysisQuality:
		return model.SuccessOutcome(map[string]interface{}{
			"score": float64(60 + seed%41),
			"model": "sim-quality-v1",
		}), nil
	case recording.AnalysisKeywords:
		first := seed % uint32(len(keywordPool))
		second := (seed / 7) % uint32(len(keywordPool))
		keywords := []interface{}{keywordPool[first]}
		if second != first {
			keywords = append(keywords, keywordPool[second])
		}
		return model.SuccessOutcome(map[string]interface{}{
			"keywords": keywords,
			"model":    "sim-keywords-v1",
		}), nil
	default:
		return model.FailureOutcome("unknown analysis '" + analysis + "'"), nil
	}
}

func hashID(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}

// seedDemoRecordings fills an empty repository with a small call history so
// the demo run has eligible items for every operation.
func seedDemoRecordings(ctx context.Context, repo recording.Repository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	base := time.Now().Add(-72 * time.Hour)
	samples := []*recording.Recording{
		{ID: "call-1001", Label: "Acme renewal call", CallType: recording.CallTypeSales, Status: recording.CallStatusCompleted, DurationSeconds: 1860, TranscriptWordCount: 2400},
		{ID: "call-1002", Label: "Globex discovery call", CallType: recording.CallTypeSales, Status: recording.CallStatusCompleted, DurationSeconds: 2700, TranscriptWordCount: 3900},
		{ID: "call-1003", Label: "Initech pricing follow-up", CallType: recording.CallTypeSales, Status: recording.CallStatusCompleted, DurationSeconds: 900, TranscriptWordCount: 1200},
		{ID: "call-1004", Label: "Umbrella onboarding check-in", CallType: recording.CallTypeSupport, Status: recording.CallStatusCompleted, DurationSeconds: 1500, TranscriptWordCount: 2100},
		{ID: "call-1005", Label: "Stark billing escalation", CallType: recording.CallTypeSupport, Status: recording.CallStatusCompleted, DurationSeconds: 2280, TranscriptWordCount: 3100},
		{ID: "call-1006", Label: "Wayne integration support", CallType: recording.CallTypeSupport, Status: recording.CallStatusCompleted, DurationSeconds: 720, TranscriptWordCount: 80},
		{ID: "call-1007", Label: "Hooli outbound attempt", CallType: recording.CallTypeSales, Status: recording.CallStatusInProgress, DurationSeconds: 0, TranscriptWordCount: 0},
	}
	for i, rec := range samples {
		rec.RecordedAt = base.Add(time.Duration(i) * 4 * time.Hour)
		if err := repo.Save(ctx, rec); err != nil {
			return err
		}
	}
	logger.Infof("App: seeded %d demo recordings.", len(samples))
	return nil
}
