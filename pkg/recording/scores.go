package recording

import "math"

// ScoreSummary aggregates analysis results over a set of recordings for the
// dashboard's overview cards.
type ScoreSummary struct {
	TotalRecordings int `json:"total_recordings"`

	// AverageQualityScore is the mean quality score over analyzed support
	// calls, rounded to one decimal. Zero when nothing has been scored.
	AverageQualityScore float64 `json:"average_quality_score"`

	// SentimentDistribution counts analyzed sales calls per sentiment
	// category.
	SentimentDistribution map[string]int `json:"sentiment_distribution"`

	// SentimentCoverage and QualityCoverage are the percentage of eligible
	// calls that carry a result, rounded to whole percent.
	SentimentCoverage int `json:"sentiment_coverage"`
	QualityCoverage   int `json:"quality_coverage"`
	KeywordCoverage   int `json:"keyword_coverage"`
}

// Summarize computes the dashboard aggregates over the given recordings.
func Summarize(recs []*Recording) ScoreSummary {
	summary := ScoreSummary{
		TotalRecordings:       len(recs),
		SentimentDistribution: make(map[string]int),
	}

	var (
		qualitySum    float64
		qualityCount  int
		sentimentAll  int
		sentimentDone int
		qualityAll    int
		keywordAll    int
		keywordDone   int
	)

	for _, rec := range recs {
		if rec.CallType == CallTypeSales && rec.Status == CallStatusCompleted {
			sentimentAll++
			if rec.Sentiment != nil {
				sentimentDone++
				category := rec.Sentiment.Category
				if category == "" {
					category = "unknown"
				}
				summary.SentimentDistribution[category]++
			}
		}
		if rec.CallType == CallTypeSupport && rec.Status == CallStatusCompleted {
			qualityAll++
			if rec.Quality != nil {
				qualityCount++
				qualitySum += rec.Quality.Score
			}
		}
		if rec.HasTranscript(MinTranscriptWords) {
			keywordAll++
			if rec.Keywords != nil {
				keywordDone++
			}
		}
	}

	if qualityCount > 0 {
		summary.AverageQualityScore = math.Round(qualitySum/float64(qualityCount)*10) / 10
	}
	summary.SentimentCoverage = coveragePercent(sentimentDone, sentimentAll)
	summary.QualityCoverage = coveragePercent(qualityCount, qualityAll)
	summary.KeywordCoverage = coveragePercent(keywordDone, keywordAll)
	return summary
}

// coveragePercent is round(100*done/all); zero eligible yields zero.
func coveragePercent(done, all int) int {
	if all <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(all)))
}
