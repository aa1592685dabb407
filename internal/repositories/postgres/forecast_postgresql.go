package postgres

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ForecastPostgreSQL struct {
	db *gorm.DB
}

func NewForecastPostgreSQL(db *gorm.DB) repositories.ForecastRepository {
	return &ForecastPostgreSQL{db: db}
}

func (f ForecastPostgreSQL) GetByScope(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error) {
	var forecast models.GradeForecast
	if err := f.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ?", studentID, offeringID).
		First(&forecast).Error; err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (f ForecastPostgreSQL) ListByOffering(ctx context.Context, offeringID uint) ([]*models.GradeForecast, error) {
	var forecasts []*models.GradeForecast
	if err := f.db.WithContext(ctx).
		Preload("Student.User").
		Where("subject_offering_id = ?", offeringID).
		Order("predicted_grade ASC").
		Find(&forecasts).Error; err != nil {
		return nil, err
	}
	return forecasts, nil
}

func (f ForecastPostgreSQL) Save(ctx context.Context, forecast *models.GradeForecast) error {
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_offering_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_average", "quiz_count", "predicted_grade", "confidence",
				"risk_level", "trend", "strong_topics", "weak_topics",
				"recommendations", "generated_at", "updated_at",
			}),
		}).
		Create(forecast).Error
}

func (f ForecastPostgreSQL) DeleteByScope(ctx context.Context, studentID, offeringID uint) error {
	return f.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ?", studentID, offeringID).
		Delete(&models.GradeForecast{}).Error
}

type TopicPerformancePostgreSQL struct {
	db *gorm.DB
}

func NewTopicPerformancePostgreSQL(db *gorm.DB) repositories.TopicPerformanceRepository {
	return &TopicPerformancePostgreSQL{db: db}
}

func (t TopicPerformancePostgreSQL) GetByScope(ctx context.Context, studentID, offeringID uint) ([]*models.QuizTopicPerformance, error) {
	var perfs []*models.QuizTopicPerformance
	if err := t.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ?", studentID, offeringID).
		Order("accuracy_percentage DESC").
		Find(&perfs).Error; err != nil {
		return nil, err
	}
	return perfs, nil
}

func (t TopicPerformancePostgreSQL) GetByTopic(ctx context.Context, studentID, offeringID uint, topic string) (*models.QuizTopicPerformance, error) {
	var perf models.QuizTopicPerformance
	if err := t.db.WithContext(ctx).
		Where("student_id = ? AND subject_offering_id = ? AND topic = ?", studentID, offeringID, topic).
		First(&perf).Error; err != nil {
		return nil, err
	}
	return &perf, nil
}

func (t TopicPerformancePostgreSQL) Save(ctx context.Context, perf *models.QuizTopicPerformance) error {
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "subject_offering_id"}, {Name: "topic"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_questions", "correct_answers", "accuracy_percentage", "updated_at",
			}),
		}).
		Create(perf).Error
}
