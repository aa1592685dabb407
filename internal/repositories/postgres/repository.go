package postgres

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB

	quizzes   repositories.QuizRepository
	questions repositories.QuestionRepository
	attempts  repositories.AttemptRepository
	answers   repositories.AnswerRepository
	grades    repositories.GradeRepository
	forecasts repositories.ForecastRepository
	topics    repositories.TopicPerformanceRepository
	users     repositories.UserRepository
	logs      repositories.ChangeLogRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:        db,
		quizzes:   NewQuizPostgreSQL(db),
		questions: NewQuestionPostgreSQL(db),
		attempts:  NewAttemptPostgreSQL(db),
		answers:   NewAnswerPostgreSQL(db),
		grades:    NewGradePostgreSQL(db),
		forecasts: NewForecastPostgreSQL(db),
		topics:    NewTopicPerformancePostgreSQL(db),
		users:     NewUserPostgreSQL(db),
		logs:      NewChangeLogPostgreSQL(db),
	}
}

func (r *Repository) Quizzes() repositories.QuizRepository              { return r.quizzes }
func (r *Repository) Questions() repositories.QuestionRepository       { return r.questions }
func (r *Repository) Attempts() repositories.AttemptRepository         { return r.attempts }
func (r *Repository) Answers() repositories.AnswerRepository           { return r.answers }
func (r *Repository) Grades() repositories.GradeRepository             { return r.grades }
func (r *Repository) Forecasts() repositories.ForecastRepository       { return r.forecasts }
func (r *Repository) TopicPerformance() repositories.TopicPerformanceRepository {
	return r.topics
}
func (r *Repository) Users() repositories.UserRepository          { return r.users }
func (r *Repository) ChangeLogs() repositories.ChangeLogRepository { return r.logs }

// WithTransaction runs fn against a Repository bound to a single database
// transaction. fn returning an error rolls everything back.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
