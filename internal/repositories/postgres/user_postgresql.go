package postgres

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u UserPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u UserPostgreSQL) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u UserPostgreSQL) HasRole(ctx context.Context, id uint, role models.UserRole) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ? AND is_active = true", id, role).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u UserPostgreSQL) GetStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := u.db.WithContext(ctx).
		Preload("User").
		Preload("Section").
		First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (u UserPostgreSQL) GetStudentByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	var student models.Student
	if err := u.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("User").
		Preload("Section").
		First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (u UserPostgreSQL) GetStudentsBySection(ctx context.Context, sectionID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := u.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Preload("User").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (u UserPostgreSQL) GetSubjectOffering(ctx context.Context, id uint) (*models.SubjectOffering, error) {
	var offering models.SubjectOffering
	if err := u.db.WithContext(ctx).
		Preload("Section").
		Preload("Teacher").
		First(&offering, id).Error; err != nil {
		return nil, err
	}
	return &offering, nil
}

func (u UserPostgreSQL) GetStudentsByOffering(ctx context.Context, offeringID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := u.db.WithContext(ctx).
		Joins("JOIN subject_offerings ON subject_offerings.section_id = students.section_id").
		Where("subject_offerings.id = ?", offeringID).
		Preload("User").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
