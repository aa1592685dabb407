package services

import (
	"context"
	"testing"

	"github.com/scholaris-edu/lms-service/internal/events"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func pendingShortAnswer() *models.QuizAnswer {
	return &models.QuizAnswer{
		ID:         30,
		AttemptID:  10,
		QuestionID: 2,
		TextAnswer: "Because the denominators differ.",
		Question: models.QuizQuestion{
			ID:           2,
			QuizID:       1,
			QuestionType: models.ShortAnswer,
			Points:       4,
		},
		Attempt: models.QuizAttempt{
			ID:        10,
			QuizID:    1,
			StudentID: 5,
			Status:    models.AttemptSubmitted,
			Score:     6,
			Quiz: models.Quiz{
				ID:                1,
				Code:              "QZA1B2C3D4",
				Title:             "Fractions Review",
				TeacherID:         20,
				SubjectOfferingID: 7,
				Quarter:           models.QuarterFirst,
				GradeComponent:    models.ComponentWrittenWork,
				TotalPoints:       10,
			},
		},
	}
}

func TestGradeAnswer_PromotesAttemptToGraded(t *testing.T) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher()
	memCache := newMemoryCache()
	analytics := NewAnalyticsService(repo, memCache, testLogger())
	service := NewGradingService(repo, publisher, testLogger(), utils.NewValidator(), analytics)

	answer := pendingShortAnswer()
	correct := true
	gradedSibling := &models.QuizAnswer{
		ID: 29, AttemptID: 10, QuestionID: 1,
		IsCorrect: &correct, PointsEarned: 6,
	}
	attempt := &models.QuizAttempt{
		ID: 10, QuizID: 1, StudentID: 5,
		Status: models.AttemptSubmitted, Score: 6,
	}

	repo.answers.On("GetByIDWithDetails", mock.Anything, uint(30)).Return(answer, nil)
	repo.answers.On("Update", mock.Anything, answer).Return(nil)
	repo.answers.On("GetByAttempt", mock.Anything, uint(10)).
		Return([]*models.QuizAnswer{gradedSibling, answer}, nil)
	repo.attempts.On("GetByID", mock.Anything, uint(10)).Return(attempt, nil)
	repo.attempts.On("Update", mock.Anything, attempt).Return(nil)

	// Component recompute after the score change.
	repo.quizzes.On("GetForGradebook", mock.Anything, uint(7), models.QuarterFirst, models.ComponentWrittenWork).
		Return([]*models.Quiz{{ID: 1, TotalPoints: 10}}, nil)
	repo.attempts.On("GetBestScores", mock.Anything, uint(5), []uint{1}).
		Return(map[uint]float64{1: 9}, nil)
	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterFirst).
		Return(nil, gorm.ErrRecordNotFound)
	repo.grades.On("Save", mock.Anything, mock.AnythingOfType("*models.QuarterlyGrade")).Return(nil)

	// Topic sync once the attempt is fully graded.
	repo.attempts.On("GetByQuizAndStudent", mock.Anything, uint(1), uint(5)).
		Return([]*models.QuizAttempt{attempt}, nil)
	repo.topicPerformance.On("Save", mock.Anything, mock.AnythingOfType("*models.QuizTopicPerformance")).Return(nil)

	var logged *models.GradeChangeLog
	repo.changeLogs.On("Create", mock.Anything, mock.AnythingOfType("*models.GradeChangeLog")).
		Run(func(args mock.Arguments) {
			logged = args.Get(1).(*models.GradeChangeLog)
		}).Return(nil)

	req := &GradeAnswerRequest{IsCorrect: true, PointsEarned: 3}
	graded, err := service.GradeAnswer(context.Background(), 30, req, 20)

	assert.NoError(t, err)
	assert.True(t, *graded.IsCorrect)
	assert.Equal(t, 3.0, graded.PointsEarned)
	assert.True(t, graded.IsManuallyGraded)
	assert.Equal(t, uint(20), *graded.GradedByID)

	assert.Equal(t, models.AttemptGraded, attempt.Status)
	assert.Equal(t, 9.0, attempt.Score)

	assert.Equal(t, models.GradeChangeCreate, logged.ChangeType)
	assert.Equal(t, "N/A", logged.PreviousValue)
	assert.Equal(t, "3.0", logged.NewValue)

	assert.Len(t, publisher.Events, 1)
	assert.Equal(t, string(events.EventAttemptGraded), string(publisher.Events[0].Type))
	payload := publisher.Events[0].Data.(events.AttemptGradedEvent)
	assert.Equal(t, 9.0, payload.Score)

	// The cached item-analysis report is stale now.
	assert.Contains(t, memCache.deletes, "analytics:quiz:1")
	repo.AssertExpectations(t)
}

func TestGradeAnswer_RegradeLogsPreviousScore(t *testing.T) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher()
	service := NewGradingService(repo, publisher, testLogger(), utils.NewValidator(), nil)

	answer := pendingShortAnswer()
	wrong := false
	answer.IsCorrect = &wrong
	answer.PointsEarned = 1
	answer.IsManuallyGraded = true

	ungradedSibling := &models.QuizAnswer{ID: 29, AttemptID: 10, QuestionID: 1}
	attempt := &models.QuizAttempt{
		ID: 10, QuizID: 1, StudentID: 5,
		Status: models.AttemptSubmitted, Score: 1,
	}

	repo.answers.On("GetByIDWithDetails", mock.Anything, uint(30)).Return(answer, nil)
	repo.answers.On("Update", mock.Anything, answer).Return(nil)
	repo.answers.On("GetByAttempt", mock.Anything, uint(10)).
		Return([]*models.QuizAnswer{ungradedSibling, answer}, nil)
	repo.attempts.On("GetByID", mock.Anything, uint(10)).Return(attempt, nil)
	repo.attempts.On("Update", mock.Anything, attempt).Return(nil)
	repo.quizzes.On("GetForGradebook", mock.Anything, uint(7), models.QuarterFirst, models.ComponentWrittenWork).
		Return([]*models.Quiz{{ID: 1, TotalPoints: 10}}, nil)
	repo.attempts.On("GetBestScores", mock.Anything, uint(5), []uint{1}).
		Return(map[uint]float64{}, nil)
	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterFirst).
		Return(nil, gorm.ErrRecordNotFound)
	repo.grades.On("Save", mock.Anything, mock.AnythingOfType("*models.QuarterlyGrade")).Return(nil)

	var logged *models.GradeChangeLog
	repo.changeLogs.On("Create", mock.Anything, mock.AnythingOfType("*models.GradeChangeLog")).
		Run(func(args mock.Arguments) {
			logged = args.Get(1).(*models.GradeChangeLog)
		}).Return(nil)

	req := &GradeAnswerRequest{IsCorrect: true, PointsEarned: 3}
	_, err := service.GradeAnswer(context.Background(), 30, req, 20)

	assert.NoError(t, err)
	assert.Equal(t, models.GradeChangeUpdate, logged.ChangeType)
	assert.Equal(t, "1.0", logged.PreviousValue)

	// A sibling is still ungraded, so the attempt stays submitted and no
	// grading event goes out.
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	assert.Empty(t, publisher.Events)
	repo.topicPerformance.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGradeAnswer_PointsExceedQuestion(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradingService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator(), nil)

	answer := pendingShortAnswer()
	repo.answers.On("GetByIDWithDetails", mock.Anything, uint(30)).Return(answer, nil)

	req := &GradeAnswerRequest{IsCorrect: true, PointsEarned: 5}
	_, err := service.GradeAnswer(context.Background(), 30, req, 20)

	assert.ErrorIs(t, err, ErrGradingInvalidScore)
}

func TestGradeAnswer_OtherTeachersQuiz(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradingService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator(), nil)

	answer := pendingShortAnswer()
	repo.answers.On("GetByIDWithDetails", mock.Anything, uint(30)).Return(answer, nil)
	repo.users.On("HasRole", mock.Anything, uint(99), models.RoleAdmin).Return(false, nil)

	req := &GradeAnswerRequest{IsCorrect: true, PointsEarned: 3}
	_, err := service.GradeAnswer(context.Background(), 30, req, 99)

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
}

func TestGradeAnswer_AttemptStillInProgress(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradingService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator(), nil)

	answer := pendingShortAnswer()
	answer.Attempt.Status = models.AttemptInProgress
	repo.answers.On("GetByIDWithDetails", mock.Anything, uint(30)).Return(answer, nil)

	req := &GradeAnswerRequest{IsCorrect: true, PointsEarned: 3}
	_, err := service.GradeAnswer(context.Background(), 30, req, 20)

	assert.ErrorIs(t, err, ErrAttemptNotActive)
}

func TestGetPendingAnswers(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradingService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator(), nil)

	quiz := &models.Quiz{ID: 1, TeacherID: 20}
	repo.quizzes.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)
	repo.answers.On("GetPendingByQuiz", mock.Anything, uint(1)).
		Return([]*models.QuizAnswer{{ID: 30}, {ID: 31}}, nil)

	answers, err := service.GetPendingAnswers(context.Background(), 1, 20)

	assert.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestGetPendingAnswers_OtherTeachersQuiz(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradingService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator(), nil)

	quiz := &models.Quiz{ID: 1, TeacherID: 20}
	repo.quizzes.On("GetByID", mock.Anything, uint(1)).Return(quiz, nil)
	repo.users.On("HasRole", mock.Anything, uint(99), models.RoleAdmin).Return(false, nil)

	_, err := service.GetPendingAnswers(context.Background(), 1, 99)

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
}
