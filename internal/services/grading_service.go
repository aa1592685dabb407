package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholaris-edu/lms-service/internal/events"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/utils"
	"gorm.io/gorm"
)

// GradingService handles the teacher side of grading: the manual queue for
// short answers, rescoring, and the audit trail.
type GradingService interface {
	GetPendingAnswers(ctx context.Context, quizID, teacherID uint) ([]*models.QuizAnswer, error)
	GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, teacherID uint) (*models.QuizAnswer, error)
	GetChangeLog(ctx context.Context, filters repositories.ChangeLogFilters) ([]*models.GradeChangeLog, int64, error)
}

type GradeAnswerRequest struct {
	IsCorrect    bool    `json:"is_correct"`
	PointsEarned float64 `json:"points_earned" validate:"min=0"`
	Feedback     *string `json:"feedback" validate:"omitempty,max=2000"`
}

type gradingService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
	analytics AnalyticsService // nil skips cache invalidation
}

func NewGradingService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator, analytics AnalyticsService) GradingService {
	return &gradingService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		analytics: analytics,
	}
}

func (s *gradingService) GetPendingAnswers(ctx context.Context, quizID, teacherID uint) ([]*models.QuizAnswer, error) {
	quiz, err := s.repo.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if err := s.authorizeQuiz(ctx, quiz, teacherID, "grade"); err != nil {
		return nil, err
	}

	answers, err := s.repo.Answers().GetPendingByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending answers: %w", err)
	}
	return answers, nil
}

func (s *gradingService) GradeAnswer(ctx context.Context, answerID uint, req *GradeAnswerRequest, teacherID uint) (*models.QuizAnswer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	answer, err := s.repo.Answers().GetByIDWithDetails(ctx, answerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	quiz := &answer.Attempt.Quiz
	if err := s.authorizeQuiz(ctx, quiz, teacherID, "grade"); err != nil {
		return nil, err
	}
	if !answer.Attempt.IsFinished() {
		return nil, ErrAttemptNotActive
	}
	if req.PointsEarned > answer.Question.Points {
		return nil, ErrGradingInvalidScore
	}

	changeType := models.GradeChangeCreate
	previous := "N/A"
	if !answer.IsUngraded() {
		changeType = models.GradeChangeUpdate
		previous = fmt.Sprintf("%.1f", answer.PointsEarned)
	}

	now := time.Now()
	isCorrect := req.IsCorrect
	answer.IsCorrect = &isCorrect
	answer.PointsEarned = req.PointsEarned
	answer.IsManuallyGraded = true
	answer.GradedByID = &teacherID
	answer.GradedAt = &now
	answer.Feedback = req.Feedback

	var attempt *models.QuizAttempt
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Answers().Update(ctx, answer); err != nil {
			return fmt.Errorf("failed to update answer: %w", err)
		}

		attempt, err = s.rescoreAttempt(ctx, tx, answer.AttemptID)
		if err != nil {
			return err
		}

		if _, err := recomputeComponent(ctx, tx, attempt.StudentID, quiz.SubjectOfferingID, quiz.Quarter, quiz.GradeComponent); err != nil {
			return err
		}
		if attempt.Status == models.AttemptGraded {
			if err := syncTopicPerformance(ctx, tx, quiz, attempt.StudentID); err != nil {
				return err
			}
		}

		entry := &models.GradeChangeLog{
			TeacherID:         &teacherID,
			StudentID:         &attempt.StudentID,
			SubjectOfferingID: &quiz.SubjectOfferingID,
			Activity:          fmt.Sprintf("Graded answer on quiz %s", quiz.Code),
			PreviousValue:     previous,
			NewValue:          fmt.Sprintf("%.1f", req.PointsEarned),
			ChangeType:        changeType,
		}
		if err := tx.ChangeLogs().Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record grade change: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptGraded {
		event := events.NewEvent(events.EventAttemptGraded, events.AttemptGradedEvent{
			AttemptID:   attempt.ID,
			QuizID:      quiz.ID,
			StudentID:   attempt.StudentID,
			Score:       attempt.Score,
			TotalPoints: quiz.TotalPoints,
			GradedByID:  teacherID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish grading event", "attempt_id", attempt.ID, "error", err)
		}
	}

	// The manual verdict changed the item-analysis inputs.
	if s.analytics != nil {
		if err := s.analytics.InvalidateQuizAnalytics(ctx, quiz.ID); err != nil {
			s.logger.Warn("Failed to invalidate quiz analytics", "quiz_id", quiz.ID, "error", err)
		}
	}

	s.logger.Info("Answer graded",
		"answer_id", answerID,
		"teacher_id", teacherID,
		"points", req.PointsEarned)

	return s.repo.Answers().GetByIDWithDetails(ctx, answerID)
}

func (s *gradingService) GetChangeLog(ctx context.Context, filters repositories.ChangeLogFilters) ([]*models.GradeChangeLog, int64, error) {
	return s.repo.ChangeLogs().List(ctx, filters)
}

// rescoreAttempt recomputes the attempt total from its graded answers and
// promotes the attempt to GRADED once nothing is left ungraded.
func (s *gradingService) rescoreAttempt(ctx context.Context, tx repositories.Repository, attemptID uint) (*models.QuizAttempt, error) {
	answers, err := tx.Answers().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	var score float64
	pending := false
	for _, a := range answers {
		if a.IsUngraded() {
			pending = true
			continue
		}
		score += a.PointsEarned
	}

	attempt, err := tx.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	attempt.Score = score
	if pending {
		attempt.Status = models.AttemptSubmitted
	} else {
		attempt.Status = models.AttemptGraded
	}
	if err := tx.Attempts().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to update attempt: %w", err)
	}
	return attempt, nil
}

func (s *gradingService) authorizeQuiz(ctx context.Context, quiz *models.Quiz, teacherID uint, action string) error {
	if quiz.TeacherID == teacherID {
		return nil
	}
	if ok, err := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); err == nil && ok {
		return nil
	}
	return NewPermissionError(teacherID, quiz.ID, "quiz", action, "quiz belongs to another teacher")
}
