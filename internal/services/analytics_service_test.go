package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/scholaris-edu/lms-service/internal/cache"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// memoryCache is an in-process CacheService backed by a map, so analytics
// tests can exercise hits, misses and invalidation without Redis.
type memoryCache struct {
	entries map[string][]byte
	sets    int
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, _ string) error {
	return nil
}

func boolPtr(v bool) *bool { return &v }

func analyticsQuiz() *models.Quiz {
	return &models.Quiz{
		ID:           1,
		Title:        "Fractions Review",
		TeacherID:    20,
		TotalPoints:  10,
		PassingScore: 60,
		Questions: []models.QuizQuestion{
			{
				ID:           2,
				QuizID:       1,
				QuestionText: "Which fraction is largest?",
				QuestionType: models.MultipleChoice,
				Points:       6,
				Choices: []models.QuizChoice{
					{ID: 21, QuestionID: 2, ChoiceText: "1/2", IsCorrect: false},
					{ID: 22, QuestionID: 2, ChoiceText: "3/4", IsCorrect: true},
				},
			},
			{
				ID:           3,
				QuizID:       1,
				QuestionText: "Explain your reasoning.",
				QuestionType: models.ShortAnswer,
				Points:       4,
			},
		},
	}
}

func TestGetQuizAnalytics_ComputesAttemptStatistics(t *testing.T) {
	repo := NewMockRepository()
	service := NewAnalyticsService(repo, newMemoryCache(), testLogger())

	quiz := analyticsQuiz()
	repo.quizzes.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.attempts.On("GetFinishedByQuiz", mock.Anything, uint(1)).
		Return([]*models.QuizAttempt{
			{ID: 10, Score: 9},
			{ID: 11, Score: 6},
			{ID: 12, Score: 3},
		}, nil)
	repo.answers.On("GetByQuestion", mock.Anything, uint(2)).Return([]*models.QuizAnswer{}, nil)
	repo.answers.On("GetByQuestion", mock.Anything, uint(3)).Return([]*models.QuizAnswer{}, nil)

	analytics, err := service.GetQuizAnalytics(context.Background(), 1, 20)

	assert.NoError(t, err)
	assert.Equal(t, 3, analytics.TotalAttempts)
	assert.InDelta(t, 6.0, analytics.AverageScore, 0.001)
	assert.InDelta(t, 60.0, analytics.AveragePercentage, 0.001)
	assert.Equal(t, 9.0, analytics.HighestScore)
	assert.Equal(t, 3.0, analytics.LowestScore)
	// 9/10 and 6/10 clear the 60% passing score; 3/10 does not.
	assert.InDelta(t, 66.667, analytics.PassRate, 0.001)
	assert.Len(t, analytics.Questions, 2)
	// No graded answers yet, so no difficulty call.
	assert.Equal(t, DifficultyUnknown, analytics.Questions[0].Difficulty)
}

func TestGetQuizAnalytics_ItemAnalysisSkipsUngraded(t *testing.T) {
	repo := NewMockRepository()
	service := NewAnalyticsService(repo, newMemoryCache(), testLogger())

	quiz := analyticsQuiz()
	repo.quizzes.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.attempts.On("GetFinishedByQuiz", mock.Anything, uint(1)).
		Return([]*models.QuizAttempt{}, nil)

	choice21 := uint(21)
	choice22 := uint(22)
	repo.answers.On("GetByQuestion", mock.Anything, uint(2)).
		Return([]*models.QuizAnswer{
			{ID: 30, SelectedChoiceID: &choice22, IsCorrect: boolPtr(true), PointsEarned: 6},
			{ID: 31, SelectedChoiceID: &choice22, IsCorrect: boolPtr(true), PointsEarned: 6},
			{ID: 32, SelectedChoiceID: &choice21, IsCorrect: boolPtr(false)},
		}, nil)
	repo.answers.On("GetByQuestion", mock.Anything, uint(3)).
		Return([]*models.QuizAnswer{
			{ID: 33, TextAnswer: "graded", IsCorrect: boolPtr(true), PointsEarned: 4},
			{ID: 34, TextAnswer: "awaiting review"}, // still ungraded
		}, nil)

	analytics, err := service.GetQuizAnalytics(context.Background(), 1, 20)

	assert.NoError(t, err)

	mc := analytics.Questions[0]
	assert.Equal(t, 3, mc.TotalAnswers)
	assert.Equal(t, 2, mc.CorrectCount)
	assert.InDelta(t, 66.667, mc.CorrectPercentage, 0.001)
	assert.Equal(t, DifficultyMedium, mc.Difficulty)
	assert.Len(t, mc.ChoiceDistribution, 2)
	assert.Equal(t, 1, mc.ChoiceDistribution[0].Count)
	assert.InDelta(t, 33.333, mc.ChoiceDistribution[0].Percentage, 0.001)
	assert.Equal(t, 2, mc.ChoiceDistribution[1].Count)
	assert.InDelta(t, 66.667, mc.ChoiceDistribution[1].Percentage, 0.001)

	sa := analytics.Questions[1]
	assert.Equal(t, 1, sa.TotalAnswers)
	assert.Equal(t, 1, sa.CorrectCount)
	assert.Empty(t, sa.ChoiceDistribution)
}

func TestGetQuizAnalytics_ServedFromCache(t *testing.T) {
	repo := NewMockRepository()
	memCache := newMemoryCache()
	service := NewAnalyticsService(repo, memCache, testLogger())

	quiz := analyticsQuiz()
	repo.quizzes.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.attempts.On("GetFinishedByQuiz", mock.Anything, uint(1)).
		Return([]*models.QuizAttempt{{ID: 10, Score: 9}}, nil).Once()
	repo.answers.On("GetByQuestion", mock.Anything, mock.Anything).
		Return([]*models.QuizAnswer{}, nil)

	first, err := service.GetQuizAnalytics(context.Background(), 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 1, memCache.sets)

	second, err := service.GetQuizAnalytics(context.Background(), 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, first.TotalAttempts, second.TotalAttempts)
	// Attempts were only queried once; the second call hit the cache.
	repo.attempts.AssertNumberOfCalls(t, "GetFinishedByQuiz", 1)
}

func TestGetQuizAnalytics_OtherTeachersQuiz(t *testing.T) {
	repo := NewMockRepository()
	service := NewAnalyticsService(repo, newMemoryCache(), testLogger())

	quiz := analyticsQuiz()
	repo.quizzes.On("GetByIDWithQuestions", mock.Anything, uint(1)).Return(quiz, nil)
	repo.users.On("HasRole", mock.Anything, uint(99), models.RoleAdmin).Return(false, nil)

	_, err := service.GetQuizAnalytics(context.Background(), 1, 99)

	assert.ErrorIs(t, err, ErrQuizAccessDenied)
}

func TestInvalidateQuizAnalytics(t *testing.T) {
	repo := NewMockRepository()
	memCache := newMemoryCache()
	service := NewAnalyticsService(repo, memCache, testLogger())

	err := service.InvalidateQuizAnalytics(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, []string{"analytics:quiz:1"}, memCache.deletes)
}

func TestDifficultyBucket(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, DifficultyEasy},
		{75, DifficultyEasy},
		{74.9, DifficultyMedium},
		{50, DifficultyMedium},
		{49.9, DifficultyHard},
		{25, DifficultyHard},
		{24.9, DifficultyVeryHard},
		{0, DifficultyVeryHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, difficultyBucket(tt.pct), "pct %.1f", tt.pct)
	}
}
