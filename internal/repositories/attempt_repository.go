package repositories

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) // Include answers, questions, choices
	Update(ctx context.Context, attempt *models.QuizAttempt) error

	// Query operations
	GetByQuiz(ctx context.Context, quizID uint, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByStudent(ctx context.Context, studentID uint, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) ([]*models.QuizAttempt, error)

	// Active attempt management
	GetActiveAttempt(ctx context.Context, quizID, studentID uint) (*models.QuizAttempt, error)
	CountByQuizAndStudent(ctx context.Context, quizID, studentID uint) (int64, error)

	// Gradebook and analytics support
	GetFinishedByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error)
	// GetBestScores returns, per quiz in quizIDs, the highest score among the
	// student's finished attempts. Quizzes the student never finished are
	// absent from the map.
	GetBestScores(ctx context.Context, studentID uint, quizIDs []uint) (map[uint]float64, error)
	// GetBestGradedByStudent returns the best fully graded attempt per quiz
	// for the student within a subject offering. Attempts still awaiting a
	// manual verdict are excluded.
	GetBestGradedByStudent(ctx context.Context, studentID, offeringID uint) ([]*models.QuizAttempt, error)
}

// AnswerRepository interface for per-question answer operations
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.QuizAnswer) error // keyed on (attempt, question)
	GetByID(ctx context.Context, id uint) (*models.QuizAnswer, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAnswer, error) // Include attempt, question, choices
	Update(ctx context.Context, answer *models.QuizAnswer) error

	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizAnswer, error)
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.QuizAnswer, error)
	GetByQuestion(ctx context.Context, questionID uint) ([]*models.QuizAnswer, error)

	// Grading support
	CountUngraded(ctx context.Context, attemptID uint) (int64, error)
	GetPendingByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAnswer, error)
}
