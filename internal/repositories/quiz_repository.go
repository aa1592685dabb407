package repositories

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// QuizRepository interface for quiz lifecycle operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) // Include questions and choices
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetBySubjectOffering(ctx context.Context, offeringID uint, quarter *models.Quarter) ([]*models.Quiz, error)
	GetForGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, component models.GradeComponent) ([]*models.Quiz, error)

	// Derived fields
	UpdateTotalPoints(ctx context.Context, id uint, totalPoints float64) error
	UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error
}

// QuestionRepository interface for quiz question and choice operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.QuizQuestion) error
	GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error) // Include choices
	Update(ctx context.Context, question *models.QuizQuestion) error
	Delete(ctx context.Context, id uint) error

	GetByQuiz(ctx context.Context, quizID uint) ([]*models.QuizQuestion, error)
	CountByQuiz(ctx context.Context, quizID uint) (int64, error)
	SumPoints(ctx context.Context, quizID uint) (float64, error)

	// ReplaceChoices swaps the full choice set of a question atomically.
	ReplaceChoices(ctx context.Context, questionID uint, choices []models.QuizChoice) error
}
