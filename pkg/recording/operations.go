package recording

import (
	"context"
	"fmt"
	"time"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
	config "github.com/callscope/callscope/pkg/bulk/core/config"
	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
	configbinder "github.com/callscope/callscope/pkg/bulk/support/util/configbinder"
	exception "github.com/callscope/callscope/pkg/bulk/support/util/exception"
	logger "github.com/callscope/callscope/pkg/bulk/support/util/logger"
)

// Operation types the dashboard exposes.
const (
	OpSentimentAnalysis model.OperationType = "sentiment_analysis"
	OpQualityScoring    model.OperationType = "quality_scoring"
	OpKeywordDetection  model.OperationType = "keyword_detection"
)

// MinTranscriptWords is the transcript length floor for keyword detection.
const MinTranscriptWords = 100

// Catalog registers the bulk analysis operations over call recordings and
// supplies their candidate items. It implements both the operation registry
// and the item source consulted by the run coordinator.
type Catalog struct {
	repo    Repository
	invoker port.Invoker
	specs   map[model.OperationType]model.OperationSpec
	order   []model.OperationType
}

// NewCatalog builds the catalog with the built-in operations, applying any
// per-operation tuning overrides from configuration.
func NewCatalog(repo Repository, invoker port.Invoker, cfg config.BulkConfig) (*Catalog, error) {
	c := &Catalog{
		repo:    repo,
		invoker: invoker,
		specs:   make(map[model.OperationType]model.OperationSpec),
	}

	builtins := []model.OperationSpec{
		{
			Type:  OpSentimentAnalysis,
			Label: "Sentiment Analysis",
			Predicate: func(item model.WorkItem) bool {
				rec, ok := item.(*Recording)
				return ok && rec.CallType == CallTypeSales &&
					rec.Status == CallStatusCompleted && rec.Sentiment == nil
			},
			Invoke:     c.invokeFor(AnalysisSentiment),
			BatchSize:  3,
			BatchDelay: 1000 * time.Millisecond,
		},
		{
			Type:  OpQualityScoring,
			Label: "Quality Scoring",
			Predicate: func(item model.WorkItem) bool {
				rec, ok := item.(*Recording)
				return ok && rec.CallType == CallTypeSupport &&
					rec.Status == CallStatusCompleted && rec.Quality == nil
			},
			Invoke:     c.invokeFor(AnalysisQuality),
			BatchSize:  3,
			BatchDelay: 1000 * time.Millisecond,
		},
		{
			Type:  OpKeywordDetection,
			Label: "Keyword Detection",
			Predicate: func(item model.WorkItem) bool {
				rec, ok := item.(*Recording)
				return ok && rec.HasTranscript(MinTranscriptWords) && rec.Keywords == nil
			},
			Invoke:     c.invokeFor(AnalysisKeywords),
			BatchSize:  1,
			BatchDelay: 2000 * time.Millisecond,
		},
	}

	for _, spec := range builtins {
		spec = applyTuning(spec, cfg.Operations[spec.Type.String()])
		if err := spec.Validate(); err != nil {
			return nil, exception.NewBulkError("recording", "invalid operation spec", err)
		}
		c.specs[spec.Type] = spec
		c.order = append(c.order, spec.Type)
	}
	return c, nil
}

// applyTuning overlays non-zero tuning values onto the built-in defaults.
func applyTuning(spec model.OperationSpec, tuning config.OperationTuning) model.OperationSpec {
	if tuning.BatchSize > 0 {
		spec.BatchSize = tuning.BatchSize
	}
	if tuning.DelayMs > 0 {
		spec.BatchDelay = time.Duration(tuning.DelayMs) * time.Millisecond
	}
	return spec
}

// Lookup implements port.OperationRegistry.
func (c *Catalog) Lookup(opType model.OperationType) (model.OperationSpec, bool) {
	spec, ok := c.specs[opType]
	return spec, ok
}

// Types implements port.OperationRegistry.
func (c *Catalog) Types() []model.OperationType {
	out := make([]model.OperationType, len(c.order))
	copy(out, c.order)
	return out
}

// FetchItems implements port.ItemSource. Every trigger reads a fresh
// snapshot from the repository.
func (c *Catalog) FetchItems(ctx context.Context, opType model.OperationType) ([]model.WorkItem, error) {
	recs, err := c.repo.List(ctx)
	if err != nil {
		return nil, exception.NewBulkErrorf("recording", "failed to list recordings for '%s'", opType, err)
	}
	items := make([]model.WorkItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec)
	}
	return items, nil
}

// invokeFor builds the invocation function for one analysis kind: call the
// remote service, decode its payload, and persist the result on the
// recording.
func (c *Catalog) invokeFor(kind AnalysisKind) model.InvokeFunc {
	return func(ctx context.Context, item model.WorkItem) (*model.ItemOutcome, error) {
		rec, ok := item.(*Recording)
		if !ok {
			return nil, fmt.Errorf("item '%s' is not a recording", item.ItemID())
		}

		outcome, err := c.invoker.Invoke(ctx, rec.ID, map[string]interface{}{
			"analysis":  string(kind),
			"call_type": string(rec.CallType),
		})
		if err != nil {
			return nil, err
		}
		if !outcome.Success {
			return outcome, nil
		}

		result := decodeResult(outcome.Data)
		if err := c.repo.SaveResult(ctx, rec.ID, kind, result); err != nil {
			logger.Errorf("Recording: failed to persist %s result for '%s': %v", kind, rec.ID, err)
			return nil, exception.NewBulkErrorf("recording", "failed to persist %s result", kind, err)
		}
		return outcome, nil
	}
}

// decodeResult binds the loosely-typed service payload onto an
// AnalysisResult. Unknown or mistyped fields are simply left zero.
func decodeResult(data map[string]interface{}) *AnalysisResult {
	result := &AnalysisResult{AnalyzedAt: time.Now()}
	if len(data) == 0 {
		return result
	}
	if err := configbinder.BindMap(data, result); err != nil {
		logger.Warnf("Recording: could not bind analysis payload: %v", err)
	}
	// Older service versions report sentiment under its own key.
	if result.Category == "" {
		if category, ok := data["sentiment"].(string); ok {
			result.Category = category
		}
	}
	return result
}

var (
	_ port.OperationRegistry = (*Catalog)(nil)
	_ port.ItemSource        = (*Catalog)(nil)
)
