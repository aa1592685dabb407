package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizDraft     QuizStatus = "DRAFT"
	QuizScheduled QuizStatus = "SCHEDULED"
	QuizOpen      QuizStatus = "OPEN"
	QuizClosed    QuizStatus = "CLOSED"
)

type Quarter string

const (
	QuarterFirst  Quarter = "Q1"
	QuarterSecond Quarter = "Q2"
	QuarterThird  Quarter = "Q3"
	QuarterFourth Quarter = "Q4"
)

// GradeComponent tags a quiz with the quarterly-grade bucket its scores feed.
type GradeComponent string

const (
	ComponentWrittenWork     GradeComponent = "WRITTEN_WORK"
	ComponentPerformanceTask GradeComponent = "PERFORMANCE_TASK"
	ComponentQuarterlyExam   GradeComponent = "QUARTERLY_EXAM"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
)

// IsObjective reports whether answers of this type can be auto-graded against
// a correct choice.
func (t QuestionType) IsObjective() bool {
	return t == MultipleChoice || t == TrueFalse
}

type Quiz struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	Code              string         `json:"code" gorm:"uniqueIndex;size:50"`
	SubjectOfferingID uint           `json:"subject_offering_id" gorm:"not null;index"`
	TeacherID         uint           `json:"teacher_id" gorm:"not null;index"`
	Quarter           Quarter        `json:"quarter" gorm:"not null;size:2;index" validate:"required,quarter"`
	GradeComponent    GradeComponent `json:"grade_component" gorm:"not null;size:20;index" validate:"required,grade_component"`
	Title             string         `json:"title" gorm:"not null;size:255" validate:"required,min=1,max=255"`
	Description       string         `json:"description" gorm:"type:text"`

	// Time management; Status is advisory, openness is computed from the window.
	OpenTime         time.Time `json:"open_time" gorm:"not null" validate:"required"`
	CloseTime        time.Time `json:"close_time" gorm:"not null" validate:"required,gtfield=OpenTime"`
	TimeLimitMinutes int       `json:"time_limit_minutes" gorm:"not null" validate:"required,min=1,max=300"`

	TotalPoints  float64    `json:"total_points" gorm:"default:0"`
	PassingScore float64    `json:"passing_score" gorm:"default:60" validate:"min=0,max=100"`
	Status       QuizStatus `json:"status" gorm:"default:DRAFT;size:20;index"`

	ShowCorrectAnswers    bool `json:"show_correct_answers" gorm:"default:false"`
	ShuffleQuestions      bool `json:"shuffle_questions" gorm:"default:false"`
	AllowMultipleAttempts bool `json:"allow_multiple_attempts" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	SubjectOffering SubjectOffering `json:"subject_offering" gorm:"foreignKey:SubjectOfferingID"`
	Teacher         User            `json:"teacher" gorm:"foreignKey:TeacherID"`
	Questions       []QuizQuestion  `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	Attempts        []QuizAttempt   `json:"attempts,omitempty" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.Code == "" {
		q.Code = NewQuizCode()
	}
	return nil
}

// NewQuizCode returns a short human-shareable quiz identifier, e.g. "QZ3F9A01BC".
func NewQuizCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "QZ" + strings.ToUpper(hex[:8])
}

// IsOpenAt reports whether the quiz accepts attempts at the given instant.
func (q *Quiz) IsOpenAt(now time.Time) bool {
	return !now.Before(q.OpenTime) && !now.After(q.CloseTime)
}

func (q *Quiz) IsClosedAt(now time.Time) bool {
	return now.After(q.CloseTime)
}

type QuizQuestion struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	QuizID       uint         `json:"quiz_id" gorm:"not null;index"`
	QuestionText string       `json:"question_text" gorm:"type:text;not null" validate:"required"`
	QuestionType QuestionType `json:"question_type" gorm:"not null;size:20" validate:"required,question_type"`
	Points       float64      `json:"points" gorm:"default:1" validate:"required,gt=0"`
	Order        int          `json:"order" gorm:"column:display_order;default:0"`

	Choices []QuizChoice `json:"choices,omitempty" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// CorrectChoice returns the choice marked correct, or nil for short-answer
// questions and malformed data.
func (q *QuizQuestion) CorrectChoice() *QuizChoice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}

type QuizChoice struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	ChoiceText string `json:"choice_text" gorm:"not null;size:500" validate:"required,max=500"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Order      int    `json:"order" gorm:"column:display_order;default:0"`
}

func (QuizChoice) TableName() string {
	return "quiz_choices"
}
