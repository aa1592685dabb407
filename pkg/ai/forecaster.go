package ai

import "context"

// ForecastInput aggregates one student's quiz history within a subject
// offering, ready to be turned into a prediction.
type ForecastInput struct {
	StudentName    string
	SubjectName    string
	GradeLevel     string
	CurrentAverage float64
	QuizCount      int

	// RecentScores holds per-quiz percentages ordered oldest first.
	RecentScores []float64

	// TopicAccuracy maps topic name to accuracy percentage.
	TopicAccuracy map[string]float64
}

// ForecastResult is a structured grade prediction.
type ForecastResult struct {
	PredictedGrade  float64  `json:"predicted_grade"`
	Confidence      float64  `json:"confidence"`
	RiskLevel       string   `json:"risk_level"`
	Trend           string   `json:"trend"`
	StrongTopics    []string `json:"strong_topics"`
	WeakTopics      []string `json:"weak_topics"`
	Recommendations string   `json:"recommendations"`
}

// Forecaster produces a grade prediction from quiz history. Implementations
// may call external models; callers are expected to fall back to a local
// statistical forecast when an error is returned.
type Forecaster interface {
	Forecast(ctx context.Context, input ForecastInput) (ForecastResult, error)
}
