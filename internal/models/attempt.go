package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptGraded     AttemptStatus = "GRADED"
)

type QuizAttempt struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	QuizID    uint          `json:"quiz_id" gorm:"not null;index;uniqueIndex:idx_attempt_open,where:status = 'IN_PROGRESS'"`
	StudentID uint          `json:"student_id" gorm:"not null;index;uniqueIndex:idx_attempt_open,where:status = 'IN_PROGRESS'"`
	Status    AttemptStatus `json:"status" gorm:"default:IN_PROGRESS;size:20;index"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Score       float64    `json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Quiz    Quiz         `json:"quiz" gorm:"foreignKey:QuizID"`
	Student Student      `json:"student" gorm:"foreignKey:StudentID"`
	Answers []QuizAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// IsFinished reports whether the attempt has left IN_PROGRESS.
func (a *QuizAttempt) IsFinished() bool {
	return a.Status == AttemptSubmitted || a.Status == AttemptGraded
}

type QuizAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_answer_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_answer_attempt_question"`

	SelectedChoiceID *uint   `json:"selected_choice_id"`
	TextAnswer       string  `json:"text_answer" gorm:"type:text"`
	FilePath         *string `json:"file_path" gorm:"size:500"`

	// IsCorrect is nil while the answer is awaiting grading; false means graded
	// and wrong.
	IsCorrect    *bool   `json:"is_correct"`
	PointsEarned float64 `json:"points_earned" gorm:"default:0"`

	// Manual grading metadata
	IsManuallyGraded bool       `json:"is_manually_graded" gorm:"default:false"`
	GradedByID       *uint      `json:"graded_by_id"`
	GradedAt         *time.Time `json:"graded_at"`
	Feedback         *string    `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attempt        QuizAttempt  `json:"-" gorm:"foreignKey:AttemptID"`
	Question       QuizQuestion `json:"question" gorm:"foreignKey:QuestionID"`
	SelectedChoice *QuizChoice  `json:"selected_choice,omitempty" gorm:"foreignKey:SelectedChoiceID"`
	GradedBy       *User        `json:"graded_by,omitempty" gorm:"foreignKey:GradedByID"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}

// IsUngraded reports whether the answer is still awaiting a correctness
// verdict — distinct from "graded incorrect".
func (a *QuizAnswer) IsUngraded() bool {
	return a.IsCorrect == nil
}
