package repositories

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
)

// ForecastRepository interface for persisted grade forecasts
type ForecastRepository interface {
	GetByScope(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error)
	ListByOffering(ctx context.Context, offeringID uint) ([]*models.GradeForecast, error)
	Save(ctx context.Context, forecast *models.GradeForecast) error // full overwrite on the scope key
	DeleteByScope(ctx context.Context, studentID, offeringID uint) error
}

// TopicPerformanceRepository interface for running per-topic accuracy
type TopicPerformanceRepository interface {
	GetByScope(ctx context.Context, studentID, offeringID uint) ([]*models.QuizTopicPerformance, error)
	GetByTopic(ctx context.Context, studentID, offeringID uint, topic string) (*models.QuizTopicPerformance, error)
	Save(ctx context.Context, perf *models.QuizTopicPerformance) error // upsert on the scope key
}
