package models

import (
	"time"

	"gorm.io/datatypes"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

type PerformanceTrend string

const (
	TrendImproving PerformanceTrend = "IMPROVING"
	TrendStable    PerformanceTrend = "STABLE"
	TrendDeclining PerformanceTrend = "DECLINING"

	// TrendInsufficient marks a history too short to call a direction.
	TrendInsufficient PerformanceTrend = "INSUFFICIENT_DATA"
)

// GradeForecast is the cached output of the forecast service for one
// (student, subject offering) pair. It is fully overwritten on each
// generation, never merged.
type GradeForecast struct {
	ID                uint `json:"id" gorm:"primaryKey"`
	StudentID         uint `json:"student_id" gorm:"not null;index;uniqueIndex:idx_forecast_scope"`
	SubjectOfferingID uint `json:"subject_offering_id" gorm:"not null;index;uniqueIndex:idx_forecast_scope"`

	CurrentAverage float64 `json:"current_average"`
	QuizCount      int     `json:"quiz_count"`

	PredictedGrade  float64          `json:"predicted_grade"`
	Confidence      float64          `json:"confidence" validate:"min=0,max=1"`
	RiskLevel       RiskLevel        `json:"risk_level" gorm:"size:20" validate:"risk_level"`
	Trend           PerformanceTrend `json:"trend" gorm:"size:20"`
	StrongTopics    datatypes.JSON   `json:"strong_topics" gorm:"type:jsonb"`
	WeakTopics      datatypes.JSON   `json:"weak_topics" gorm:"type:jsonb"`
	Recommendations string           `json:"recommendations" gorm:"type:text"`

	GeneratedAt time.Time `json:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Student         Student         `json:"student" gorm:"foreignKey:StudentID"`
	SubjectOffering SubjectOffering `json:"subject_offering" gorm:"foreignKey:SubjectOfferingID"`
}

func (GradeForecast) TableName() string {
	return "grade_forecasts"
}

// QuizTopicPerformance tracks one student's running accuracy per topic within
// a subject offering. The quiz title currently stands in for the topic.
type QuizTopicPerformance struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	StudentID         uint   `json:"student_id" gorm:"not null;index;uniqueIndex:idx_topic_scope"`
	SubjectOfferingID uint   `json:"subject_offering_id" gorm:"not null;index;uniqueIndex:idx_topic_scope"`
	Topic             string `json:"topic" gorm:"not null;size:255;uniqueIndex:idx_topic_scope"`

	TotalQuestions     int     `json:"total_questions" gorm:"default:0"`
	CorrectAnswers     int     `json:"correct_answers" gorm:"default:0"`
	AccuracyPercentage float64 `json:"accuracy_percentage" gorm:"default:0"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizTopicPerformance) TableName() string {
	return "quiz_topic_performance"
}

// Recalculate refreshes the cached accuracy from the running counts.
func (p *QuizTopicPerformance) Recalculate() {
	if p.TotalQuestions > 0 {
		p.AccuracyPercentage = float64(p.CorrectAnswers) / float64(p.TotalQuestions) * 100
	} else {
		p.AccuracyPercentage = 0
	}
}
