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

// QuizService manages quiz authoring and lifecycle.
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, teacherID uint) (*models.Quiz, error)
	GetByID(ctx context.Context, quizID uint) (*models.Quiz, error)
	GetByIDWithQuestions(ctx context.Context, quizID uint) (*models.Quiz, error)
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error)
	Update(ctx context.Context, quizID uint, req *UpdateQuizRequest, teacherID uint) (*models.Quiz, error)
	Delete(ctx context.Context, quizID, teacherID uint) error
	Publish(ctx context.Context, quizID, teacherID uint) (*models.Quiz, error)
	Close(ctx context.Context, quizID, teacherID uint) (*models.Quiz, error)

	AddQuestion(ctx context.Context, quizID uint, req *QuestionRequest, teacherID uint) (*models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, quizID, questionID uint, req *QuestionRequest, teacherID uint) (*models.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, quizID, questionID, teacherID uint) error
}

// ===== REQUEST STRUCTS =====

type CreateQuizRequest struct {
	SubjectOfferingID uint                  `json:"subject_offering_id" validate:"required"`
	Quarter           models.Quarter        `json:"quarter" validate:"required,quarter"`
	GradeComponent    models.GradeComponent `json:"grade_component" validate:"required,grade_component"`
	Title             string                `json:"title" validate:"required,min=1,max=255"`
	Description       string                `json:"description" validate:"max=1000"`
	OpenTime          time.Time             `json:"open_time" validate:"required"`
	CloseTime         time.Time             `json:"close_time" validate:"required"`
	TimeLimitMinutes  int                   `json:"time_limit_minutes" validate:"required,min=1,max=300"`
	PassingScore      float64               `json:"passing_score" validate:"min=0,max=100"`

	ShowCorrectAnswers    bool `json:"show_correct_answers"`
	ShuffleQuestions      bool `json:"shuffle_questions"`
	AllowMultipleAttempts bool `json:"allow_multiple_attempts"`
}

type UpdateQuizRequest struct {
	Title            *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description      *string    `json:"description" validate:"omitempty,max=1000"`
	OpenTime         *time.Time `json:"open_time"`
	CloseTime        *time.Time `json:"close_time"`
	TimeLimitMinutes *int       `json:"time_limit_minutes" validate:"omitempty,min=1,max=300"`
	PassingScore     *float64   `json:"passing_score" validate:"omitempty,min=0,max=100"`

	ShowCorrectAnswers    *bool `json:"show_correct_answers"`
	ShuffleQuestions      *bool `json:"shuffle_questions"`
	AllowMultipleAttempts *bool `json:"allow_multiple_attempts"`
}

type QuestionRequest struct {
	QuestionText string              `json:"question_text" validate:"required"`
	QuestionType models.QuestionType `json:"question_type" validate:"required,question_type"`
	Points       float64             `json:"points" validate:"required,gt=0,max=100"`
	Order        int                 `json:"order"`
	Choices      []ChoiceRequest     `json:"choices" validate:"dive"`
}

type ChoiceRequest struct {
	ChoiceText string `json:"choice_text" validate:"required,max=500"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

type quizService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewQuizService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) QuizService {
	return &quizService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== QUIZ LIFECYCLE =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, teacherID uint) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.CloseTime.After(req.OpenTime) {
		return nil, ErrQuizInvalidWindow
	}

	offering, err := s.repo.Users().GetSubjectOffering(ctx, req.SubjectOfferingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("failed to get subject offering: %w", err)
	}
	if offering.TeacherID == nil || *offering.TeacherID != teacherID {
		if ok, roleErr := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); roleErr != nil || !ok {
			return nil, NewPermissionError(teacherID, offering.ID, "subject_offering", "create_quiz",
				"quizzes can only be created by the offering's teacher")
		}
	}

	passingScore := req.PassingScore
	if passingScore == 0 {
		passingScore = 60
	}

	quiz := &models.Quiz{
		SubjectOfferingID:     req.SubjectOfferingID,
		TeacherID:             teacherID,
		Quarter:               req.Quarter,
		GradeComponent:        req.GradeComponent,
		Title:                 req.Title,
		Description:           req.Description,
		OpenTime:              req.OpenTime,
		CloseTime:             req.CloseTime,
		TimeLimitMinutes:      req.TimeLimitMinutes,
		PassingScore:          passingScore,
		Status:                models.QuizDraft,
		ShowCorrectAnswers:    req.ShowCorrectAnswers,
		ShuffleQuestions:      req.ShuffleQuestions,
		AllowMultipleAttempts: req.AllowMultipleAttempts,
	}

	if err := s.repo.Quizzes().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created",
		"quiz_id", quiz.ID,
		"code", quiz.Code,
		"teacher_id", teacherID)

	return quiz, nil
}

func (s *quizService) GetByID(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByIDWithQuestions(ctx context.Context, quizID uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quizzes().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	quiz, err := s.repo.Quizzes().GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	return s.repo.Quizzes().List(ctx, filters)
}

func (s *quizService) Update(ctx context.Context, quizID uint, req *UpdateQuizRequest, teacherID uint) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "update")
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, quiz); err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.OpenTime != nil {
		quiz.OpenTime = *req.OpenTime
	}
	if req.CloseTime != nil {
		quiz.CloseTime = *req.CloseTime
	}
	if !quiz.CloseTime.After(quiz.OpenTime) {
		return nil, ErrQuizInvalidWindow
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.AllowMultipleAttempts != nil {
		quiz.AllowMultipleAttempts = *req.AllowMultipleAttempts
	}

	if err := s.repo.Quizzes().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, quizID, teacherID uint) error {
	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "delete")
	if err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, quiz); err != nil {
		return err
	}
	if err := s.repo.Quizzes().Delete(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}

	s.logger.Info("Quiz deleted", "quiz_id", quizID, "teacher_id", teacherID)
	return nil
}

func (s *quizService) Publish(ctx context.Context, quizID, teacherID uint) (*models.Quiz, error) {
	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "publish")
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Questions().CountByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if count == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	now := time.Now()
	status := models.QuizScheduled
	if quiz.IsOpenAt(now) {
		status = models.QuizOpen
	}
	if err := s.repo.Quizzes().UpdateStatus(ctx, quizID, status); err != nil {
		return nil, fmt.Errorf("failed to publish quiz: %w", err)
	}
	quiz.Status = status

	event := events.NewEvent(events.EventQuizPublished, events.QuizPublishedEvent{
		QuizID:            quiz.ID,
		QuizCode:          quiz.Code,
		Title:             quiz.Title,
		SubjectOfferingID: quiz.SubjectOfferingID,
		TeacherID:         quiz.TeacherID,
		OpenTime:          quiz.OpenTime,
		CloseTime:         quiz.CloseTime,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz event", "quiz_id", quiz.ID, "error", err)
	}

	s.logger.Info("Quiz published", "quiz_id", quiz.ID, "status", status)
	return quiz, nil
}

func (s *quizService) Close(ctx context.Context, quizID, teacherID uint) (*models.Quiz, error) {
	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "close")
	if err != nil {
		return nil, err
	}

	if err := s.repo.Quizzes().UpdateStatus(ctx, quizID, models.QuizClosed); err != nil {
		return nil, fmt.Errorf("failed to close quiz: %w", err)
	}
	quiz.Status = models.QuizClosed

	event := events.NewEvent(events.EventQuizClosed, events.QuizPublishedEvent{
		QuizID:            quiz.ID,
		QuizCode:          quiz.Code,
		Title:             quiz.Title,
		SubjectOfferingID: quiz.SubjectOfferingID,
		TeacherID:         quiz.TeacherID,
		OpenTime:          quiz.OpenTime,
		CloseTime:         quiz.CloseTime,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish quiz event", "quiz_id", quiz.ID, "error", err)
	}

	return quiz, nil
}

// ===== QUESTION MANAGEMENT =====

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, req *QuestionRequest, teacherID uint) (*models.QuizQuestion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateQuestionContent(req); err != nil {
		return nil, err
	}

	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "add_question")
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, quiz); err != nil {
		return nil, err
	}

	question := &models.QuizQuestion{
		QuizID:       quizID,
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		Points:       req.Points,
		Order:        req.Order,
		Choices:      buildChoices(req.Choices),
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Questions().Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		return s.refreshTotalPoints(ctx, tx, quizID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question added", "quiz_id", quizID, "question_id", question.ID)
	return question, nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, quizID, questionID uint, req *QuestionRequest, teacherID uint) (*models.QuizQuestion, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateQuestionContent(req); err != nil {
		return nil, err
	}

	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "update_question")
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, quiz); err != nil {
		return nil, err
	}

	question, err := s.repo.Questions().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return nil, ErrQuestionNotFound
	}

	question.QuestionText = req.QuestionText
	question.QuestionType = req.QuestionType
	question.Points = req.Points
	question.Order = req.Order
	question.Choices = nil

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Questions().Update(ctx, question); err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}
		if err := tx.Questions().ReplaceChoices(ctx, questionID, buildChoices(req.Choices)); err != nil {
			return fmt.Errorf("failed to replace choices: %w", err)
		}
		return s.refreshTotalPoints(ctx, tx, quizID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Questions().GetByID(ctx, questionID)
}

func (s *quizService) DeleteQuestion(ctx context.Context, quizID, questionID, teacherID uint) error {
	quiz, err := s.getOwnedQuiz(ctx, quizID, teacherID, "delete_question")
	if err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, quiz); err != nil {
		return err
	}

	question, err := s.repo.Questions().GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.QuizID != quizID {
		return ErrQuestionNotFound
	}

	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Questions().Delete(ctx, questionID); err != nil {
			return fmt.Errorf("failed to delete question: %w", err)
		}
		return s.refreshTotalPoints(ctx, tx, quizID)
	})
}

// ===== HELPERS =====

func (s *quizService) getOwnedQuiz(ctx context.Context, quizID, teacherID uint, action string) (*models.Quiz, error) {
	quiz, err := s.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.TeacherID != teacherID {
		if ok, roleErr := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); roleErr == nil && ok {
			return quiz, nil
		}
		return nil, NewPermissionError(teacherID, quizID, "quiz", action, "quiz belongs to another teacher")
	}
	return quiz, nil
}

// ensureEditable blocks structural changes once any attempt exists.
func (s *quizService) ensureEditable(ctx context.Context, quiz *models.Quiz) error {
	attempts, _, err := s.repo.Attempts().GetByQuiz(ctx, quiz.ID, repositories.AttemptFilters{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if len(attempts) > 0 {
		return ErrQuizNotEditable
	}
	return nil
}

func (s *quizService) refreshTotalPoints(ctx context.Context, tx repositories.Repository, quizID uint) error {
	total, err := tx.Questions().SumPoints(ctx, quizID)
	if err != nil {
		return fmt.Errorf("failed to sum question points: %w", err)
	}
	if err := tx.Quizzes().UpdateTotalPoints(ctx, quizID, total); err != nil {
		return fmt.Errorf("failed to update total points: %w", err)
	}
	return nil
}

func buildChoices(reqs []ChoiceRequest) []models.QuizChoice {
	choices := make([]models.QuizChoice, 0, len(reqs))
	for _, c := range reqs {
		choices = append(choices, models.QuizChoice{
			ChoiceText: c.ChoiceText,
			IsCorrect:  c.IsCorrect,
			Order:      c.Order,
		})
	}
	return choices
}

// validateQuestionContent enforces the per-type choice shape: objective
// questions carry exactly one correct choice, short answers carry none.
func validateQuestionContent(req *QuestionRequest) error {
	correct := 0
	for _, c := range req.Choices {
		if c.IsCorrect {
			correct++
		}
	}

	switch req.QuestionType {
	case models.MultipleChoice:
		if len(req.Choices) < 2 || correct != 1 {
			return ErrChoicesRequired
		}
	case models.TrueFalse:
		if len(req.Choices) != 2 || correct != 1 {
			return ErrChoicesRequired
		}
	case models.ShortAnswer:
		if len(req.Choices) != 0 {
			return ErrQuestionInvalidContent
		}
	default:
		return ErrQuestionInvalidType
	}
	return nil
}
