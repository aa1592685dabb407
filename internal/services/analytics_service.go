package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholaris-edu/lms-service/internal/cache"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
)

// AnalyticsService derives quiz statistics and per-question item analysis.
type AnalyticsService interface {
	GetQuizAnalytics(ctx context.Context, quizID, teacherID uint) (*QuizAnalytics, error)
	InvalidateQuizAnalytics(ctx context.Context, quizID uint) error
}

// Difficulty buckets derived from the correct percentage.
const (
	DifficultyEasy     = "Easy"
	DifficultyMedium   = "Medium"
	DifficultyHard     = "Hard"
	DifficultyVeryHard = "Very Hard"
	DifficultyUnknown  = "N/A"
)

const analyticsCacheTTL = 10 * time.Minute

type QuizAnalytics struct {
	QuizID            uint    `json:"quiz_id"`
	Title             string  `json:"title"`
	TotalPoints       float64 `json:"total_points"`
	TotalAttempts     int     `json:"total_attempts"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
	PassRate          float64 `json:"pass_rate"`

	Questions []QuestionAnalysis `json:"questions"`

	GeneratedAt time.Time `json:"generated_at"`
}

type QuestionAnalysis struct {
	QuestionID   uint                `json:"question_id"`
	QuestionText string              `json:"question_text"`
	QuestionType models.QuestionType `json:"question_type"`

	// TotalAnswers counts graded answers only; pending short answers are
	// excluded so the percentage never moves retroactively.
	TotalAnswers      int     `json:"total_answers"`
	CorrectCount      int     `json:"correct_count"`
	CorrectPercentage float64 `json:"correct_percentage"`
	Difficulty        string  `json:"difficulty"`

	ChoiceDistribution []ChoiceCount `json:"choice_distribution,omitempty"`
}

type ChoiceCount struct {
	ChoiceID   uint    `json:"choice_id"`
	ChoiceText string  `json:"choice_text"`
	IsCorrect  bool    `json:"is_correct"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type analyticsService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *slog.Logger
}

func NewAnalyticsService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
	}
}

func (s *analyticsService) GetQuizAnalytics(ctx context.Context, quizID, teacherID uint) (*QuizAnalytics, error) {
	quiz, err := s.repo.Quizzes().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		if ok, roleErr := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); roleErr != nil || !ok {
			return nil, ErrQuizAccessDenied
		}
	}

	cacheKey := quizAnalyticsKey(quizID)
	var cached QuizAnalytics
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Analytics cache read failed", "quiz_id", quizID, "error", err)
	}

	analytics, err := s.buildQuizAnalytics(ctx, quiz)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, analytics, analyticsCacheTTL); err != nil {
		s.logger.Warn("Analytics cache write failed", "quiz_id", quizID, "error", err)
	}
	return analytics, nil
}

func (s *analyticsService) InvalidateQuizAnalytics(ctx context.Context, quizID uint) error {
	return s.cache.Delete(ctx, quizAnalyticsKey(quizID))
}

func (s *analyticsService) buildQuizAnalytics(ctx context.Context, quiz *models.Quiz) (*QuizAnalytics, error) {
	attempts, err := s.repo.Attempts().GetFinishedByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	analytics := &QuizAnalytics{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		TotalPoints: quiz.TotalPoints,
		GeneratedAt: time.Now().UTC(),
	}

	if len(attempts) > 0 {
		var sum float64
		passed := 0
		analytics.LowestScore = attempts[0].Score
		for _, attempt := range attempts {
			sum += attempt.Score
			if attempt.Score > analytics.HighestScore {
				analytics.HighestScore = attempt.Score
			}
			if attempt.Score < analytics.LowestScore {
				analytics.LowestScore = attempt.Score
			}
			if quiz.TotalPoints > 0 && attempt.Score/quiz.TotalPoints*100 >= quiz.PassingScore {
				passed++
			}
		}
		analytics.TotalAttempts = len(attempts)
		analytics.AverageScore = sum / float64(len(attempts))
		if quiz.TotalPoints > 0 {
			analytics.AveragePercentage = analytics.AverageScore / quiz.TotalPoints * 100
		}
		analytics.PassRate = float64(passed) / float64(len(attempts)) * 100
	}

	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		qa, err := s.analyzeQuestion(ctx, question)
		if err != nil {
			return nil, err
		}
		analytics.Questions = append(analytics.Questions, *qa)
	}

	return analytics, nil
}

func (s *analyticsService) analyzeQuestion(ctx context.Context, question *models.QuizQuestion) (*QuestionAnalysis, error) {
	answers, err := s.repo.Answers().GetByQuestion(ctx, question.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	qa := &QuestionAnalysis{
		QuestionID:   question.ID,
		QuestionText: question.QuestionText,
		QuestionType: question.QuestionType,
	}

	choiceCounts := make(map[uint]int)
	for _, answer := range answers {
		if answer.SelectedChoiceID != nil {
			choiceCounts[*answer.SelectedChoiceID]++
		}
		if answer.IsUngraded() {
			continue
		}
		qa.TotalAnswers++
		if *answer.IsCorrect {
			qa.CorrectCount++
		}
	}

	// No graded answers means no basis for a difficulty call.
	qa.Difficulty = DifficultyUnknown
	if qa.TotalAnswers > 0 {
		qa.CorrectPercentage = float64(qa.CorrectCount) / float64(qa.TotalAnswers) * 100
		qa.Difficulty = difficultyBucket(qa.CorrectPercentage)
	}

	if question.QuestionType.IsObjective() {
		selections := 0
		for _, n := range choiceCounts {
			selections += n
		}
		for _, choice := range question.Choices {
			cc := ChoiceCount{
				ChoiceID:   choice.ID,
				ChoiceText: choice.ChoiceText,
				IsCorrect:  choice.IsCorrect,
				Count:      choiceCounts[choice.ID],
			}
			if selections > 0 {
				cc.Percentage = float64(cc.Count) / float64(selections) * 100
			}
			qa.ChoiceDistribution = append(qa.ChoiceDistribution, cc)
		}
	}

	return qa, nil
}

func difficultyBucket(correctPercentage float64) string {
	switch {
	case correctPercentage >= 75:
		return DifficultyEasy
	case correctPercentage >= 50:
		return DifficultyMedium
	case correctPercentage >= 25:
		return DifficultyHard
	default:
		return DifficultyVeryHard
	}
}

func quizAnalyticsKey(quizID uint) string {
	return fmt.Sprintf("analytics:quiz:%d", quizID)
}
