package postgres

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradePostgreSQL struct {
	db *gorm.DB
}

func NewGradePostgreSQL(db *gorm.DB) repositories.GradeRepository {
	return &GradePostgreSQL{db: db}
}

func (g GradePostgreSQL) GetByScope(ctx context.Context, studentID, offeringID uint, quarter models.Quarter) (*models.QuarterlyGrade, error) {
	var grade models.QuarterlyGrade
	if err := g.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ? AND quarter = ?", studentID, offeringID, quarter).
		First(&grade).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}

func (g GradePostgreSQL) Save(ctx context.Context, grade *models.QuarterlyGrade) error {
	if grade.ID != 0 {
		return g.db.WithContext(ctx).Save(grade).Error
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_offering_id"}, {Name: "quarter"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"written_work_score", "written_work_total",
				"performance_task_score", "performance_task_total",
				"quarterly_exam_score", "quarterly_exam_total",
				"written_work_weight", "performance_task_weight", "quarterly_exam_weight",
				"final_grade", "remarks", "updated_at",
			}),
		}).
		Create(grade).Error
}

func (g GradePostgreSQL) ListByOffering(ctx context.Context, offeringID uint, quarter models.Quarter) ([]*models.QuarterlyGrade, error) {
	var grades []*models.QuarterlyGrade
	if err := g.db.WithContext(ctx).
		Where("subject_offering_id = ? AND quarter = ?", offeringID, quarter).
		Preload("Student.User").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (g GradePostgreSQL) ListByStudent(ctx context.Context, studentID uint) ([]*models.QuarterlyGrade, error) {
	var grades []*models.QuarterlyGrade
	if err := g.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("SubjectOffering").
		Order("quarter ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (g GradePostgreSQL) ListByStudentAndOffering(ctx context.Context, studentID, offeringID uint) ([]*models.QuarterlyGrade, error) {
	var grades []*models.QuarterlyGrade
	if err := g.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ?", studentID, offeringID).
		Order("quarter ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

type ChangeLogPostgreSQL struct {
	db *gorm.DB
}

func NewChangeLogPostgreSQL(db *gorm.DB) repositories.ChangeLogRepository {
	return &ChangeLogPostgreSQL{db: db}
}

func (c ChangeLogPostgreSQL) Create(ctx context.Context, entry *models.GradeChangeLog) error {
	return c.db.WithContext(ctx).Create(entry).Error
}

func (c ChangeLogPostgreSQL) List(ctx context.Context, filters repositories.ChangeLogFilters) ([]*models.GradeChangeLog, int64, error) {
	var entries []*models.GradeChangeLog
	var total int64

	query := c.db.WithContext(ctx).Model(&models.GradeChangeLog{})
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
