package repositories

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// GradeRepository interface for quarterly grade operations
type GradeRepository interface {
	// GetByScope fetches the grade row of one (student, offering, quarter)
	// cell, or gorm.ErrRecordNotFound.
	GetByScope(ctx context.Context, studentID, offeringID uint, quarter models.Quarter) (*models.QuarterlyGrade, error)
	Save(ctx context.Context, grade *models.QuarterlyGrade) error // upsert on the scope key

	ListByOffering(ctx context.Context, offeringID uint, quarter models.Quarter) ([]*models.QuarterlyGrade, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.QuarterlyGrade, error)
	ListByStudentAndOffering(ctx context.Context, studentID, offeringID uint) ([]*models.QuarterlyGrade, error)
}

// ChangeLogRepository interface for the grade audit trail
type ChangeLogRepository interface {
	Create(ctx context.Context, entry *models.GradeChangeLog) error
	List(ctx context.Context, filters ChangeLogFilters) ([]*models.GradeChangeLog, int64, error)
}
