package postgres

import (
	"context"
	"errors"

	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Student.User").
		Preload("Answers.Question.Choices").
		Preload("Answers.SelectedChoice").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Save(attempt).Error
}

func (a AttemptPostgreSQL) GetByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID)
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.applyPagination(query, filters)

	if err := query.Preload("Student.User").Order("started_at DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetByStudent(ctx context.Context, studentID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("student_id = ?", studentID)
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.applyPagination(query, filters)

	if err := query.Preload("Quiz").Order("started_at DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("started_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, quizID, studentID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ? AND status = ?", quizID, studentID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) CountByQuizAndStudent(ctx context.Context, quizID, studentID uint) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a AttemptPostgreSQL) GetFinishedByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("quiz_id = ? AND status IN ?", quizID, []models.AttemptStatus{models.AttemptSubmitted, models.AttemptGraded}).
		Preload("Student.User").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) GetBestScores(ctx context.Context, studentID uint, quizIDs []uint) (map[uint]float64, error) {
	if len(quizIDs) == 0 {
		return map[uint]float64{}, nil
	}

	type row struct {
		QuizID uint
		Best   float64
	}
	var rows []row
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Select("quiz_id, MAX(score) AS best").
		Where("student_id = ? AND quiz_id IN ? AND status IN ?", studentID, quizIDs,
			[]models.AttemptStatus{models.AttemptSubmitted, models.AttemptGraded}).
		Group("quiz_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	best := make(map[uint]float64, len(rows))
	for _, r := range rows {
		best[r.QuizID] = r.Best
	}
	return best, nil
}

func (a AttemptPostgreSQL) GetBestGradedByStudent(ctx context.Context, studentID, offeringID uint) ([]*models.QuizAttempt, error) {
	// DISTINCT ON keeps the highest-scoring graded attempt per quiz.
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Clauses(clause.Select{
			Expression: clause.Expr{SQL: "DISTINCT ON (quiz_attempts.quiz_id) quiz_attempts.*"},
		}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.student_id = ? AND quizzes.subject_offering_id = ? AND quiz_attempts.status = ?",
			studentID, offeringID, models.AttemptGraded).
		Order("quiz_attempts.quiz_id, quiz_attempts.score DESC").
		Preload("Quiz").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

func (a AttemptPostgreSQL) applyPagination(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a AnswerPostgreSQL) Upsert(ctx context.Context, answer *models.QuizAnswer) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_choice_id", "text_answer", "file_path", "updated_at",
			}),
		}).
		Create(answer).Error
}

func (a AnswerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	var answer models.QuizAnswer
	if err := a.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AnswerPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	var answer models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Preload("Attempt.Quiz").
		Preload("Question.Choices").
		Preload("SelectedChoice").
		First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AnswerPostgreSQL) Update(ctx context.Context, answer *models.QuizAnswer) error {
	return a.db.WithContext(ctx).Save(answer).Error
}

func (a AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizAnswer, error) {
	var answers []*models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Preload("Question.Choices").
		Preload("SelectedChoice").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.QuizAnswer, error) {
	var answer models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AnswerPostgreSQL) GetByQuestion(ctx context.Context, questionID uint) ([]*models.QuizAnswer, error) {
	var answers []*models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Joins("JOIN quiz_attempts ON quiz_attempts.id = quiz_answers.attempt_id").
		Where("quiz_answers.question_id = ? AND quiz_attempts.status IN ?", questionID,
			[]models.AttemptStatus{models.AttemptSubmitted, models.AttemptGraded}).
		Preload("SelectedChoice").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) CountUngraded(ctx context.Context, attemptID uint) (int64, error) {
	var count int64
	if err := a.db.WithContext(ctx).
		Model(&models.QuizAnswer{}).
		Where("attempt_id = ? AND is_correct IS NULL", attemptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a AnswerPostgreSQL) GetPendingByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAnswer, error) {
	var answers []*models.QuizAnswer
	if err := a.db.WithContext(ctx).
		Joins("JOIN quiz_attempts ON quiz_attempts.id = quiz_answers.attempt_id").
		Where("quiz_attempts.quiz_id = ? AND quiz_attempts.status = ? AND quiz_answers.is_correct IS NULL",
			quizID, models.AttemptSubmitted).
		Preload("Attempt.Student.User").
		Preload("Question").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
