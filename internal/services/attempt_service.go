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

// AttemptService manages the student side of quiz taking: starting, answering
// and submitting attempts.
type AttemptService interface {
	Start(ctx context.Context, quizID, studentID uint) (*models.QuizAttempt, error)
	GetByID(ctx context.Context, attemptID, userID uint) (*models.QuizAttempt, error)
	SaveAnswer(ctx context.Context, attemptID, studentID uint, req *SaveAnswerRequest) (*models.QuizAnswer, error)
	Submit(ctx context.Context, attemptID, studentID uint) (*models.QuizAttempt, error)

	ListByStudent(ctx context.Context, studentID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error)
	ListByQuiz(ctx context.Context, quizID, teacherID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error)
}

type SaveAnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedChoiceID *uint   `json:"selected_choice_id"`
	TextAnswer       string  `json:"text_answer" validate:"max=10000"`
	FilePath         *string `json:"file_path"`
}

type attemptService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
	analytics AnalyticsService // nil skips cache invalidation
}

func NewAttemptService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator, analytics AnalyticsService) AttemptService {
	return &attemptService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		analytics: analytics,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, quizID, studentID uint) (*models.QuizAttempt, error) {
	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "student_id", studentID)

	quiz, err := s.repo.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	now := time.Now()
	if quiz.Status == models.QuizDraft || quiz.Status == models.QuizClosed || !quiz.IsOpenAt(now) {
		return nil, ErrQuizNotOpen
	}

	student, err := s.repo.Users().GetStudentByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	offering, err := s.repo.Users().GetSubjectOffering(ctx, quiz.SubjectOfferingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subject offering: %w", err)
	}
	if student.SectionID == nil || *student.SectionID != offering.SectionID {
		return nil, NewPermissionError(studentID, quizID, "quiz", "attempt",
			"student is not enrolled in the quiz's section")
	}

	// Starting is idempotent: an open attempt is resumed, not duplicated.
	active, err := s.repo.Attempts().GetActiveAttempt(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if active != nil {
		s.logger.Info("Resuming existing attempt", "attempt_id", active.ID)
		return s.repo.Attempts().GetByIDWithAnswers(ctx, active.ID)
	}

	count, err := s.repo.Attempts().CountByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if count > 0 && !quiz.AllowMultipleAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    models.AttemptInProgress,
		StartedAt: now,
	}
	if err := s.repo.Attempts().Create(ctx, attempt); err != nil {
		// The partial unique index on open attempts catches the race where two
		// starts arrive at once; the loser resumes the winner's attempt.
		if existing, activeErr := s.repo.Attempts().GetActiveAttempt(ctx, quizID, studentID); activeErr == nil && existing != nil {
			return s.repo.Attempts().GetByIDWithAnswers(ctx, existing.ID)
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	event := events.NewEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: attempt.StartedAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event", "attempt_id", attempt.ID, "error", err)
	}

	return s.repo.Attempts().GetByIDWithAnswers(ctx, attempt.ID)
}

func (s *attemptService) GetByID(ctx context.Context, attemptID, userID uint) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempts().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if err := s.authorizeAttemptAccess(ctx, attempt, userID); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID, studentID uint, req *SaveAnswerRequest) (*models.QuizAnswer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	quiz, err := s.repo.Quizzes().GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if err := s.checkDeadline(attempt, quiz); err != nil {
		return nil, err
	}

	question, err := s.repo.Questions().GetByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != attempt.QuizID {
		return nil, ErrQuestionNotFound
	}

	if req.SelectedChoiceID != nil {
		if !question.QuestionType.IsObjective() {
			return nil, ErrQuestionInvalidContent
		}
		if !choiceBelongsTo(question, *req.SelectedChoiceID) {
			return nil, ErrQuestionInvalidContent
		}
	}

	answer := &models.QuizAnswer{
		AttemptID:        attemptID,
		QuestionID:       req.QuestionID,
		SelectedChoiceID: req.SelectedChoiceID,
		TextAnswer:       req.TextAnswer,
		FilePath:         req.FilePath,
	}
	if err := s.repo.Answers().Upsert(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	return s.repo.Answers().GetByAttemptAndQuestion(ctx, attemptID, req.QuestionID)
}

func (s *attemptService) Submit(ctx context.Context, attemptID, studentID uint) (*models.QuizAttempt, error) {
	s.logger.Info("Submitting quiz attempt", "attempt_id", attemptID, "student_id", studentID)

	attempt, err := s.repo.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptAccessDenied
	}
	if attempt.IsFinished() {
		return nil, ErrAttemptAlreadySubmitted
	}

	quiz, err := s.repo.Quizzes().GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if time.Now().After(quiz.CloseTime) {
		return nil, ErrQuizNotOpen
	}

	var graded *models.QuizAttempt
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		graded, err = s.gradeAndFinalize(ctx, tx, attempt, quiz)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishSubmitEvents(ctx, graded, quiz)
	s.invalidateAnalytics(ctx, quiz.ID)

	return s.repo.Attempts().GetByIDWithAnswers(ctx, attemptID)
}

func (s *attemptService) ListByStudent(ctx context.Context, studentID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	return s.repo.Attempts().GetByStudent(ctx, studentID, filters)
}

func (s *attemptService) ListByQuiz(ctx context.Context, quizID, teacherID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	quiz, err := s.repo.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrQuizNotFound
		}
		return nil, 0, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.TeacherID != teacherID {
		if ok, roleErr := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); roleErr != nil || !ok {
			return nil, 0, ErrQuizAccessDenied
		}
	}
	return s.repo.Attempts().GetByQuiz(ctx, quizID, filters)
}

// ===== HELPERS =====

// gradeAndFinalize auto-grades every objective answer, totals the score,
// decides the terminal status and recomputes the affected quarterly grade
// component, all inside the caller's transaction.
func (s *attemptService) gradeAndFinalize(ctx context.Context, tx repositories.Repository, attempt *models.QuizAttempt, quiz *models.Quiz) (*models.QuizAttempt, error) {
	answers, err := tx.Answers().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	var score float64
	pendingManual := false
	for _, answer := range answers {
		question := answer.Question
		if question.QuestionType.IsObjective() && answer.SelectedChoiceID != nil {
			correct := false
			if choice := question.CorrectChoice(); choice != nil {
				correct = *answer.SelectedChoiceID == choice.ID
			}
			answer.IsCorrect = &correct
			answer.PointsEarned = 0
			if correct {
				answer.PointsEarned = question.Points
			}
			if err := tx.Answers().Update(ctx, answer); err != nil {
				return nil, fmt.Errorf("failed to grade answer: %w", err)
			}
			score += answer.PointsEarned
		} else {
			// Short answers and objective answers without a selection wait for
			// a teacher; the verdict stays nil, distinct from incorrect.
			pendingManual = true
		}
	}

	now := time.Now()
	attempt.SubmittedAt = &now
	attempt.Score = score
	// GRADED only once no answer is awaiting a verdict.
	if pendingManual {
		attempt.Status = models.AttemptSubmitted
	} else {
		attempt.Status = models.AttemptGraded
	}
	if err := tx.Attempts().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to update attempt: %w", err)
	}

	if _, err := recomputeComponent(ctx, tx, attempt.StudentID, quiz.SubjectOfferingID, quiz.Quarter, quiz.GradeComponent); err != nil {
		return nil, err
	}

	if attempt.Status == models.AttemptGraded {
		if err := syncTopicPerformance(ctx, tx, quiz, attempt.StudentID); err != nil {
			return nil, err
		}
	}

	return attempt, nil
}

func (s *attemptService) publishSubmitEvents(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) {
	event := events.NewEvent(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:     attempt.ID,
		QuizID:        quiz.ID,
		StudentID:     attempt.StudentID,
		Score:         attempt.Score,
		TotalPoints:   quiz.TotalPoints,
		PendingManual: attempt.Status == models.AttemptSubmitted,
		SubmittedAt:   *attempt.SubmittedAt,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event", "attempt_id", attempt.ID, "error", err)
	}
}

// invalidateAnalytics drops the cached item-analysis report after a
// submission changed the underlying answers.
func (s *attemptService) invalidateAnalytics(ctx context.Context, quizID uint) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.InvalidateQuizAnalytics(ctx, quizID); err != nil {
		s.logger.Warn("Failed to invalidate quiz analytics", "quiz_id", quizID, "error", err)
	}
}

// checkDeadline rejects writes after the per-attempt time limit or the quiz
// close time, whichever comes first.
func (s *attemptService) checkDeadline(attempt *models.QuizAttempt, quiz *models.Quiz) error {
	now := time.Now()
	deadline := attempt.StartedAt.Add(time.Duration(quiz.TimeLimitMinutes) * time.Minute)
	if quiz.CloseTime.Before(deadline) {
		deadline = quiz.CloseTime
	}
	if now.After(deadline) {
		return ErrAttemptTimeExpired
	}
	return nil
}

func (s *attemptService) authorizeAttemptAccess(ctx context.Context, attempt *models.QuizAttempt, userID uint) error {
	student, err := s.repo.Users().GetStudentByID(ctx, attempt.StudentID)
	if err == nil && student.UserID == userID {
		return nil
	}
	if attempt.Quiz.TeacherID == userID {
		return nil
	}
	if ok, roleErr := s.repo.Users().HasRole(ctx, userID, models.RoleAdmin); roleErr == nil && ok {
		return nil
	}
	return ErrAttemptAccessDenied
}

func choiceBelongsTo(question *models.QuizQuestion, choiceID uint) bool {
	for _, c := range question.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// syncTopicPerformance recomputes the per-topic accuracy row from the best
// finished attempt of the quiz, keyed on the quiz title as topic.
func syncTopicPerformance(ctx context.Context, tx repositories.Repository, quiz *models.Quiz, studentID uint) error {
	attempts, err := tx.Attempts().GetByQuizAndStudent(ctx, quiz.ID, studentID)
	if err != nil {
		return fmt.Errorf("failed to load attempts: %w", err)
	}

	var best *models.QuizAttempt
	for _, a := range attempts {
		if !a.IsFinished() {
			continue
		}
		if best == nil || a.Score > best.Score {
			best = a
		}
	}
	if best == nil {
		return nil
	}

	answers, err := tx.Answers().GetByAttempt(ctx, best.ID)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}

	total, correct := 0, 0
	for _, answer := range answers {
		if answer.IsUngraded() {
			continue
		}
		total++
		if *answer.IsCorrect {
			correct++
		}
	}
	if total == 0 {
		return nil
	}

	perf := &models.QuizTopicPerformance{
		StudentID:         studentID,
		SubjectOfferingID: quiz.SubjectOfferingID,
		Topic:             quiz.Title,
		TotalQuestions:    total,
		CorrectAnswers:    correct,
	}
	perf.Recalculate()
	if err := tx.TopicPerformance().Save(ctx, perf); err != nil {
		return fmt.Errorf("failed to save topic performance: %w", err)
	}
	return nil
}
