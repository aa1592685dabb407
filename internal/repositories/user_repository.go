package repositories

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// UserRepository interface for identity and roster reads. This service is not
// the owner of user data; it only mirrors what it needs for authorization and
// roster expansion.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByID(ctx context.Context, id uint) (bool, error)
	HasRole(ctx context.Context, id uint, role models.UserRole) (bool, error)

	// Student roster
	GetStudentByID(ctx context.Context, id uint) (*models.Student, error)
	GetStudentByUserID(ctx context.Context, userID uint) (*models.Student, error)
	GetStudentsBySection(ctx context.Context, sectionID uint) ([]*models.Student, error)

	// Subject offerings
	GetSubjectOffering(ctx context.Context, id uint) (*models.SubjectOffering, error)
	GetStudentsByOffering(ctx context.Context, offeringID uint) ([]*models.Student, error)
}
