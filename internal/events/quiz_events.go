package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events this service emits
type EventType string

const (
	// Quiz lifecycle events
	EventQuizPublished EventType = "quiz.published"
	EventQuizClosed    EventType = "quiz.closed"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptGraded    EventType = "attempt.graded"

	// Gradebook events
	EventGradeUpdated EventType = "grade.updated"

	// Forecast events
	EventForecastGenerated EventType = "forecast.generated"
)

const eventSource = "lms-service"

// Event is the envelope all published events share
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps a payload in the standard envelope
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}

// Event payloads

type QuizPublishedEvent struct {
	QuizID            uint      `json:"quiz_id"`
	QuizCode          string    `json:"quiz_code"`
	Title             string    `json:"title"`
	SubjectOfferingID uint      `json:"subject_offering_id"`
	TeacherID         uint      `json:"teacher_id"`
	OpenTime          time.Time `json:"open_time"`
	CloseTime         time.Time `json:"close_time"`
}

type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	QuizID    uint      `json:"quiz_id"`
	StudentID uint      `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
}

type AttemptSubmittedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	QuizID        uint      `json:"quiz_id"`
	StudentID     uint      `json:"student_id"`
	Score         float64   `json:"score"`
	TotalPoints   float64   `json:"total_points"`
	PendingManual bool      `json:"pending_manual"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type AttemptGradedEvent struct {
	AttemptID   uint    `json:"attempt_id"`
	QuizID      uint    `json:"quiz_id"`
	StudentID   uint    `json:"student_id"`
	Score       float64 `json:"score"`
	TotalPoints float64 `json:"total_points"`
	GradedByID  uint    `json:"graded_by_id"`
}

type GradeUpdatedEvent struct {
	StudentID         uint    `json:"student_id"`
	SubjectOfferingID uint    `json:"subject_offering_id"`
	Quarter           string  `json:"quarter"`
	FinalGrade        float64 `json:"final_grade"`
}

type ForecastGeneratedEvent struct {
	StudentID         uint    `json:"student_id"`
	SubjectOfferingID uint    `json:"subject_offering_id"`
	PredictedGrade    float64 `json:"predicted_grade"`
	RiskLevel         string  `json:"risk_level"`
	AIGenerated       bool    `json:"ai_generated"`
}
