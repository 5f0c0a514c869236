// Package recording holds the call-recording domain: the Recording entity,
// the bulk-analysis operation catalog, and score aggregation over analyzed
// calls.
package recording

import (
	"fmt"
	"time"

	model "github.com/callscope/callscope/pkg/bulk/core/domain/model"
)

// CallType classifies who the call was with.
type CallType string

const (
	CallTypeSales   CallType = "sales"
	CallTypeSupport CallType = "support"
)

// CallStatus is the lifecycle state of a recording.
type CallStatus string

const (
	CallStatusCompleted  CallStatus = "completed"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusFailed     CallStatus = "failed"
)

// AnalysisKind names one of the analyses a recording can carry.
type AnalysisKind string

const (
	AnalysisSentiment AnalysisKind = "sentiment"
	AnalysisQuality   AnalysisKind = "quality"
	AnalysisKeywords  AnalysisKind = "keywords"
)

// AnalysisResult is the stored output of one remote analysis.
type AnalysisResult struct {
	// Score is the numeric result, when the analysis produces one
	// (quality 0-100, sentiment -1..1).
	Score float64 `json:"score" yaml:"score"`
	// Category is the categorical result ("positive", "negative", ...).
	Category string `json:"category,omitempty" yaml:"category"`
	// Keywords holds detected keywords for keyword detection.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
	// Model names the model version that produced the result.
	Model string `json:"model,omitempty" yaml:"model"`
	// AnalyzedAt is when the result was produced.
	AnalyzedAt time.Time `json:"analyzed_at" yaml:"-"`
}

// Recording is one call recording with its metadata and analysis results.
// Result pointers are nil until the corresponding analysis has run; the
// bulk eligibility predicates key off that.
type Recording struct {
	ID                  string     `gorm:"primaryKey;size:64" yaml:"id"`
	Label               string     `gorm:"size:255" yaml:"label"`
	CallType            CallType   `gorm:"size:32;index" yaml:"call_type"`
	Status              CallStatus `gorm:"size:32;index" yaml:"status"`
	DurationSeconds     int        `yaml:"duration_seconds"`
	TranscriptWordCount int        `yaml:"transcript_word_count"`

	Sentiment *AnalysisResult `gorm:"serializer:json" yaml:"sentiment,omitempty"`
	Quality   *AnalysisResult `gorm:"serializer:json" yaml:"quality,omitempty"`
	Keywords  *AnalysisResult `gorm:"serializer:json" yaml:"keywords,omitempty"`

	RecordedAt time.Time `gorm:"index" yaml:"recorded_at"`
	CreatedAt  time.Time `yaml:"created_at"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// ItemID implements model.WorkItem.
func (r *Recording) ItemID() string { return r.ID }

// ItemLabel implements model.WorkItem.
func (r *Recording) ItemLabel() string { return r.Label }

var _ model.WorkItem = (*Recording)(nil)

// HasTranscript reports whether the recording's transcript is long enough
// for text analyses.
func (r *Recording) HasTranscript(minWords int) bool {
	return r.TranscriptWordCount >= minWords
}

// Result returns the stored result for the given analysis kind, nil when the
// analysis has not run yet or the kind is unknown.
func (r *Recording) Result(kind AnalysisKind) *AnalysisResult {
	switch kind {
	case AnalysisSentiment:
		return r.Sentiment
	case AnalysisQuality:
		return r.Quality
	case AnalysisKeywords:
		return r.Keywords
	default:
		return nil
	}
}

// SetResult stores the result for the given analysis kind.
func (r *Recording) SetResult(kind AnalysisKind, result *AnalysisResult) error {
	switch kind {
	case AnalysisSentiment:
		r.Sentiment = result
	case AnalysisQuality:
		r.Quality = result
	case AnalysisKeywords:
		r.Keywords = result
	default:
		return fmt.Errorf("unknown analysis kind '%s'", kind)
	}
	return nil
}
