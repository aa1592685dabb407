package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/scholaris-edu/lms-service/internal/events"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/pkg/ai"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ForecastService predicts a student's quarterly trajectory from quiz history.
// An external model is consulted when configured; a statistical forecast is
// always available as fallback, so generation never fails on model trouble.
type ForecastService interface {
	Generate(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error)
	Get(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error)
	ListByOffering(ctx context.Context, offeringID uint) ([]*models.GradeForecast, error)
	GetTopicPerformance(ctx context.Context, studentID, offeringID uint) ([]*models.QuizTopicPerformance, error)
}

// Forecast tuning constants.
const (
	forecastMinQuizzes      = 1
	forecastTrendWindow     = 3
	forecastTrendThreshold  = 5.0
	forecastTrendAdjustment = 3.0

	confidenceWithHistory = 0.6
	confidenceLowHistory  = 0.4

	riskLowThreshold    = 75.0
	riskMediumThreshold = 60.0

	strongTopicThreshold = 75.0
	weakTopicThreshold   = 60.0
	topicListLimit       = 3
)

type forecastService struct {
	repo       repositories.Repository
	forecaster ai.Forecaster // nil disables the external model
	publisher  events.EventPublisher
	logger     *slog.Logger
}

func NewForecastService(repo repositories.Repository, forecaster ai.Forecaster, publisher events.EventPublisher, logger *slog.Logger) ForecastService {
	return &forecastService{
		repo:       repo,
		forecaster: forecaster,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *forecastService) Generate(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error) {
	s.logger.Info("Generating grade forecast",
		"student_id", studentID,
		"subject_offering_id", offeringID)

	student, err := s.repo.Users().GetStudentByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	offering, err := s.repo.Users().GetSubjectOffering(ctx, offeringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("failed to get subject offering: %w", err)
	}

	input, err := s.buildInput(ctx, student, offering)
	if err != nil {
		return nil, err
	}

	result := s.forecast(ctx, input)

	forecast, err := s.persist(ctx, studentID, offeringID, input, result.forecast)
	if err != nil {
		return nil, err
	}

	event := events.NewEvent(events.EventForecastGenerated, events.ForecastGeneratedEvent{
		StudentID:         studentID,
		SubjectOfferingID: offeringID,
		PredictedGrade:    forecast.PredictedGrade,
		RiskLevel:         string(forecast.RiskLevel),
		AIGenerated:       result.aiGenerated,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish forecast event", "student_id", studentID, "error", err)
	}

	return forecast, nil
}

func (s *forecastService) Get(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error) {
	forecast, err := s.repo.Forecasts().GetByScope(ctx, studentID, offeringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}
	return forecast, nil
}

func (s *forecastService) ListByOffering(ctx context.Context, offeringID uint) ([]*models.GradeForecast, error) {
	forecasts, err := s.repo.Forecasts().ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	return forecasts, nil
}

func (s *forecastService) GetTopicPerformance(ctx context.Context, studentID, offeringID uint) ([]*models.QuizTopicPerformance, error) {
	perfs, err := s.repo.TopicPerformance().GetByScope(ctx, studentID, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic performance: %w", err)
	}
	return perfs, nil
}

// ===== AGGREGATION =====

func (s *forecastService) buildInput(ctx context.Context, student *models.Student, offering *models.SubjectOffering) (ai.ForecastInput, error) {
	attempts, err := s.repo.Attempts().GetBestGradedByStudent(ctx, student.ID, offering.ID)
	if err != nil {
		return ai.ForecastInput{}, fmt.Errorf("failed to load attempts: %w", err)
	}
	if len(attempts) < forecastMinQuizzes {
		return ai.ForecastInput{}, ErrInsufficientData
	}

	// Oldest quiz first so the trend window reads chronologically.
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].Quiz.OpenTime.Before(attempts[j].Quiz.OpenTime)
	})

	scores := make([]float64, 0, len(attempts))
	var sum float64
	for _, attempt := range attempts {
		pct := 0.0
		if attempt.Quiz.TotalPoints > 0 {
			pct = attempt.Score / attempt.Quiz.TotalPoints * 100
		}
		scores = append(scores, pct)
		sum += pct
	}

	topicAccuracy := map[string]float64{}
	perfs, err := s.repo.TopicPerformance().GetByScope(ctx, student.ID, offering.ID)
	if err != nil {
		return ai.ForecastInput{}, fmt.Errorf("failed to load topic performance: %w", err)
	}
	for _, perf := range perfs {
		topicAccuracy[perf.Topic] = perf.AccuracyPercentage
	}

	return ai.ForecastInput{
		StudentName:    student.User.FullName(),
		SubjectName:    offering.Name,
		GradeLevel:     string(student.GradeLevel),
		CurrentAverage: sum / float64(len(scores)),
		QuizCount:      len(scores),
		RecentScores:   scores,
		TopicAccuracy:  topicAccuracy,
	}, nil
}

// ===== FORECASTING =====

type forecastOutcome struct {
	forecast    ai.ForecastResult
	aiGenerated bool
}

func (s *forecastService) forecast(ctx context.Context, input ai.ForecastInput) forecastOutcome {
	if s.forecaster != nil {
		result, err := s.forecaster.Forecast(ctx, input)
		if err == nil && validForecast(result) {
			return forecastOutcome{forecast: result, aiGenerated: true}
		}
		if err != nil {
			s.logger.Warn("External forecast failed, using statistical fallback", "error", err)
		} else {
			s.logger.Warn("External forecast returned invalid fields, using statistical fallback")
		}
	}
	return forecastOutcome{forecast: StatisticalForecast(input)}
}

// StatisticalForecast derives a prediction purely from the score history. It
// is deterministic for a given input and never fails.
func StatisticalForecast(input ai.ForecastInput) ai.ForecastResult {
	trend := scoreTrend(input.RecentScores)

	predicted := input.CurrentAverage
	switch trend {
	case models.TrendImproving:
		predicted += forecastTrendAdjustment
	case models.TrendDeclining:
		predicted -= forecastTrendAdjustment
	}
	if predicted > 100 {
		predicted = 100
	}
	if predicted < 0 {
		predicted = 0
	}

	confidence := confidenceLowHistory
	if input.QuizCount >= forecastTrendWindow {
		confidence = confidenceWithHistory
	}

	strong, weak := splitTopics(input.TopicAccuracy)

	// Risk reflects where the student stands today, not the projection.
	risk := riskFor(input.CurrentAverage)

	return ai.ForecastResult{
		PredictedGrade:  predicted,
		Confidence:      confidence,
		RiskLevel:       string(risk),
		Trend:           string(trend),
		StrongTopics:    strong,
		WeakTopics:      weak,
		Recommendations: recommendationFor(risk, trend),
	}
}

// scoreTrend compares the recent window against the earlier history. Short
// histories shrink the comparison down to last-vs-first; a single score has
// no direction at all.
func scoreTrend(scores []float64) models.PerformanceTrend {
	switch {
	case len(scores) < 2:
		return models.TrendInsufficient
	case len(scores) == 2:
		return trendFromDelta(scores[1] - scores[0])
	case len(scores) == forecastTrendWindow:
		recent := mean(scores[len(scores)-forecastTrendWindow:])
		return trendFromDelta(recent - scores[0])
	default:
		recent := mean(scores[len(scores)-forecastTrendWindow:])
		earlier := mean(scores[:len(scores)-forecastTrendWindow])
		return trendFromDelta(recent - earlier)
	}
}

func trendFromDelta(delta float64) models.PerformanceTrend {
	switch {
	case delta > forecastTrendThreshold:
		return models.TrendImproving
	case delta < -forecastTrendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func riskFor(average float64) models.RiskLevel {
	switch {
	case average >= riskLowThreshold:
		return models.RiskLow
	case average >= riskMediumThreshold:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// splitTopics picks up to three strongest topics at or above 75% accuracy and
// up to three weakest below 60%.
func splitTopics(accuracy map[string]float64) (strong, weak []string) {
	type topicScore struct {
		topic string
		pct   float64
	}
	sorted := make([]topicScore, 0, len(accuracy))
	for topic, pct := range accuracy {
		sorted = append(sorted, topicScore{topic, pct})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].pct == sorted[j].pct {
			return sorted[i].topic < sorted[j].topic
		}
		return sorted[i].pct > sorted[j].pct
	})

	for _, ts := range sorted {
		if ts.pct >= strongTopicThreshold && len(strong) < topicListLimit {
			strong = append(strong, ts.topic)
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].pct < weakTopicThreshold && len(weak) < topicListLimit {
			weak = append(weak, sorted[i].topic)
		}
	}
	return strong, weak
}

func recommendationFor(risk models.RiskLevel, trend models.PerformanceTrend) string {
	switch risk {
	case models.RiskHigh:
		return "Schedule remedial sessions and review recent quiz topics with the student. Consider shorter practice quizzes on the weakest topics."
	case models.RiskMedium:
		if trend == models.TrendDeclining {
			return "Performance is slipping. Check in with the student and assign targeted practice on weak topics before the next graded quiz."
		}
		return "Assign extra practice on weak topics and monitor the next two quiz results."
	default:
		if trend == models.TrendImproving {
			return "Performance is strong and improving. Consider enrichment activities to keep the student challenged."
		}
		return "Performance is on track. Maintain the current study routine."
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// validForecast rejects model output whose enums do not match ours.
func validForecast(result ai.ForecastResult) bool {
	switch models.RiskLevel(result.RiskLevel) {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
	default:
		return false
	}
	switch models.PerformanceTrend(result.Trend) {
	case models.TrendImproving, models.TrendStable, models.TrendDeclining:
	default:
		return false
	}
	return result.PredictedGrade >= 0 && result.PredictedGrade <= 100 &&
		result.Confidence >= 0 && result.Confidence <= 1
}

// ===== PERSISTENCE =====

func (s *forecastService) persist(ctx context.Context, studentID, offeringID uint, input ai.ForecastInput, result ai.ForecastResult) (*models.GradeForecast, error) {
	strong, err := json.Marshal(result.StrongTopics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal strong topics: %w", err)
	}
	weak, err := json.Marshal(result.WeakTopics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weak topics: %w", err)
	}

	forecast := &models.GradeForecast{
		StudentID:         studentID,
		SubjectOfferingID: offeringID,
		CurrentAverage:    input.CurrentAverage,
		QuizCount:         input.QuizCount,
		PredictedGrade:    result.PredictedGrade,
		Confidence:        result.Confidence,
		RiskLevel:         models.RiskLevel(result.RiskLevel),
		Trend:             models.PerformanceTrend(result.Trend),
		StrongTopics:      datatypes.JSON(strong),
		WeakTopics:        datatypes.JSON(weak),
		Recommendations:   result.Recommendations,
		GeneratedAt:       time.Now().UTC(),
	}

	// Each generation fully replaces the previous forecast for the scope.
	if err := s.repo.Forecasts().Save(ctx, forecast); err != nil {
		return nil, fmt.Errorf("failed to save forecast: %w", err)
	}
	return forecast, nil
}
