package repositories

import (
	"context"
	"time"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Status            *models.QuizStatus     `json:"status"`
	Quarter           *models.Quarter        `json:"quarter"`
	GradeComponent    *models.GradeComponent `json:"grade_component"`
	TeacherID         *uint                  `json:"teacher_id"`
	SubjectOfferingID *uint                  `json:"subject_offering_id"`
	Limit             int                    `json:"limit"`
	Offset            int                    `json:"offset"`
	SortBy            string                 `json:"sort_by"`    // "created_at", "title", "open_time"
	SortOrder         string                 `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *uint                 `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type ChangeLogFilters struct {
	TeacherID *uint `json:"teacher_id"`
	StudentID *uint `json:"student_id"`
	Limit     int   `json:"limit"`
	Offset    int   `json:"offset"`
}

// ===== AGGREGATE =====

// Repository bundles the per-entity repositories behind one handle so that
// services depend on a single seam. WithTransaction yields a Repository bound
// to the transaction; everything called on it shares the same commit/rollback
// fate.
type Repository interface {
	Quizzes() QuizRepository
	Questions() QuestionRepository
	Attempts() AttemptRepository
	Answers() AnswerRepository
	Grades() GradeRepository
	Forecasts() ForecastRepository
	TopicPerformance() TopicPerformanceRepository
	Users() UserRepository
	ChangeLogs() ChangeLogRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
}
