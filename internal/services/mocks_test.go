package services

import (
	"context"

	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) GetBySubjectOffering(ctx context.Context, offeringID uint, quarter *models.Quarter) ([]*models.Quiz, error) {
	args := m.Called(ctx, offeringID, quarter)
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetForGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, component models.GradeComponent) ([]*models.Quiz, error) {
	args := m.Called(ctx, offeringID, quarter, component)
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) UpdateTotalPoints(ctx context.Context, id uint, totalPoints float64) error {
	args := m.Called(ctx, id, totalPoints)
	return args.Error(0)
}

func (m *MockQuizRepository) UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.QuizQuestion) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizQuestion), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.QuizQuestion) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByQuiz(ctx context.Context, quizID uint) ([]*models.QuizQuestion, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.QuizQuestion), args.Error(1)
}

func (m *MockQuestionRepository) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) SumPoints(ctx context.Context, quizID uint) (float64, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockQuestionRepository) ReplaceChoices(ctx context.Context, questionID uint, choices []models.QuizChoice) error {
	args := m.Called(ctx, questionID, choices)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, quizID, filters)
	return args.Get(0).([]*models.QuizAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetByStudent(ctx context.Context, studentID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, studentID, filters)
	return args.Get(0).([]*models.QuizAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, quizID, studentID)
	return args.Get(0).([]*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetActiveAttempt(ctx context.Context, quizID, studentID uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, quizID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) CountByQuizAndStudent(ctx context.Context, quizID, studentID uint) (int64, error) {
	args := m.Called(ctx, quizID, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) GetFinishedByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.QuizAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetBestScores(ctx context.Context, studentID uint, quizIDs []uint) (map[uint]float64, error) {
	args := m.Called(ctx, studentID, quizIDs)
	return args.Get(0).(map[uint]float64), args.Error(1)
}

func (m *MockAttemptRepository) GetBestGradedByStudent(ctx context.Context, studentID, offeringID uint) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, studentID, offeringID)
	return args.Get(0).([]*models.QuizAttempt), args.Error(1)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Upsert(ctx context.Context, answer *models.QuizAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByID(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAnswer), args.Error(1)
}

func (m *MockAnswerRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAnswer), args.Error(1)
}

func (m *MockAnswerRepository) Update(ctx context.Context, answer *models.QuizAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.QuizAnswer, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*models.QuizAnswer), args.Error(1)
}

func (m *MockAnswerRepository) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (*models.QuizAnswer, error) {
	args := m.Called(ctx, attemptID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizAnswer), args.Error(1)
}

func (m *MockAnswerRepository) GetByQuestion(ctx context.Context, questionID uint) ([]*models.QuizAnswer, error) {
	args := m.Called(ctx, questionID)
	return args.Get(0).([]*models.QuizAnswer), args.Error(1)
}

func (m *MockAnswerRepository) CountUngraded(ctx context.Context, attemptID uint) (int64, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAnswerRepository) GetPendingByQuiz(ctx context.Context, quizID uint) ([]*models.QuizAnswer, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]*models.QuizAnswer), args.Error(1)
}

// MockGradeRepository is a mock implementation of GradeRepository
type MockGradeRepository struct {
	mock.Mock
}

func (m *MockGradeRepository) GetByScope(ctx context.Context, studentID, offeringID uint, quarter models.Quarter) (*models.QuarterlyGrade, error) {
	args := m.Called(ctx, studentID, offeringID, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuarterlyGrade), args.Error(1)
}

func (m *MockGradeRepository) Save(ctx context.Context, grade *models.QuarterlyGrade) error {
	args := m.Called(ctx, grade)
	return args.Error(0)
}

func (m *MockGradeRepository) ListByOffering(ctx context.Context, offeringID uint, quarter models.Quarter) ([]*models.QuarterlyGrade, error) {
	args := m.Called(ctx, offeringID, quarter)
	return args.Get(0).([]*models.QuarterlyGrade), args.Error(1)
}

func (m *MockGradeRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.QuarterlyGrade, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]*models.QuarterlyGrade), args.Error(1)
}

func (m *MockGradeRepository) ListByStudentAndOffering(ctx context.Context, studentID, offeringID uint) ([]*models.QuarterlyGrade, error) {
	args := m.Called(ctx, studentID, offeringID)
	return args.Get(0).([]*models.QuarterlyGrade), args.Error(1)
}

// MockChangeLogRepository is a mock implementation of ChangeLogRepository
type MockChangeLogRepository struct {
	mock.Mock
}

func (m *MockChangeLogRepository) Create(ctx context.Context, entry *models.GradeChangeLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockChangeLogRepository) List(ctx context.Context, filters repositories.ChangeLogFilters) ([]*models.GradeChangeLog, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.GradeChangeLog), args.Get(1).(int64), args.Error(2)
}

// MockForecastRepository is a mock implementation of ForecastRepository
type MockForecastRepository struct {
	mock.Mock
}

func (m *MockForecastRepository) GetByScope(ctx context.Context, studentID, offeringID uint) (*models.GradeForecast, error) {
	args := m.Called(ctx, studentID, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GradeForecast), args.Error(1)
}

func (m *MockForecastRepository) ListByOffering(ctx context.Context, offeringID uint) ([]*models.GradeForecast, error) {
	args := m.Called(ctx, offeringID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GradeForecast), args.Error(1)
}

func (m *MockForecastRepository) Save(ctx context.Context, forecast *models.GradeForecast) error {
	args := m.Called(ctx, forecast)
	return args.Error(0)
}

func (m *MockForecastRepository) DeleteByScope(ctx context.Context, studentID, offeringID uint) error {
	args := m.Called(ctx, studentID, offeringID)
	return args.Error(0)
}

// MockTopicPerformanceRepository is a mock implementation of TopicPerformanceRepository
type MockTopicPerformanceRepository struct {
	mock.Mock
}

func (m *MockTopicPerformanceRepository) GetByScope(ctx context.Context, studentID, offeringID uint) ([]*models.QuizTopicPerformance, error) {
	args := m.Called(ctx, studentID, offeringID)
	return args.Get(0).([]*models.QuizTopicPerformance), args.Error(1)
}

func (m *MockTopicPerformanceRepository) GetByTopic(ctx context.Context, studentID, offeringID uint, topic string) (*models.QuizTopicPerformance, error) {
	args := m.Called(ctx, studentID, offeringID, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizTopicPerformance), args.Error(1)
}

func (m *MockTopicPerformanceRepository) Save(ctx context.Context, perf *models.QuizTopicPerformance) error {
	args := m.Called(ctx, perf)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) HasRole(ctx context.Context, id uint, role models.UserRole) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetStudentByID(ctx context.Context, id uint) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockUserRepository) GetStudentByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockUserRepository) GetStudentsBySection(ctx context.Context, sectionID uint) ([]*models.Student, error) {
	args := m.Called(ctx, sectionID)
	return args.Get(0).([]*models.Student), args.Error(1)
}

func (m *MockUserRepository) GetSubjectOffering(ctx context.Context, id uint) (*models.SubjectOffering, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubjectOffering), args.Error(1)
}

func (m *MockUserRepository) GetStudentsByOffering(ctx context.Context, offeringID uint) ([]*models.Student, error) {
	args := m.Called(ctx, offeringID)
	return args.Get(0).([]*models.Student), args.Error(1)
}

// MockRepository bundles the entity mocks behind the aggregate interface.
// WithTransaction runs the callback against the same mocks, so expectations
// set on the sub-repositories cover transactional calls too.
type MockRepository struct {
	quizzes          *MockQuizRepository
	questions        *MockQuestionRepository
	attempts         *MockAttemptRepository
	answers          *MockAnswerRepository
	grades           *MockGradeRepository
	forecasts        *MockForecastRepository
	topicPerformance *MockTopicPerformanceRepository
	users            *MockUserRepository
	changeLogs       *MockChangeLogRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		quizzes:          new(MockQuizRepository),
		questions:        new(MockQuestionRepository),
		attempts:         new(MockAttemptRepository),
		answers:          new(MockAnswerRepository),
		grades:           new(MockGradeRepository),
		forecasts:        new(MockForecastRepository),
		topicPerformance: new(MockTopicPerformanceRepository),
		users:            new(MockUserRepository),
		changeLogs:       new(MockChangeLogRepository),
	}
}

func (r *MockRepository) Quizzes() repositories.QuizRepository         { return r.quizzes }
func (r *MockRepository) Questions() repositories.QuestionRepository   { return r.questions }
func (r *MockRepository) Attempts() repositories.AttemptRepository     { return r.attempts }
func (r *MockRepository) Answers() repositories.AnswerRepository       { return r.answers }
func (r *MockRepository) Grades() repositories.GradeRepository         { return r.grades }
func (r *MockRepository) Forecasts() repositories.ForecastRepository   { return r.forecasts }
func (r *MockRepository) Users() repositories.UserRepository           { return r.users }
func (r *MockRepository) ChangeLogs() repositories.ChangeLogRepository { return r.changeLogs }

func (r *MockRepository) TopicPerformance() repositories.TopicPerformanceRepository {
	return r.topicPerformance
}

func (r *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

// AssertExpectations verifies all sub-repository expectations at once.
func (r *MockRepository) AssertExpectations(t mock.TestingT) {
	r.quizzes.AssertExpectations(t)
	r.questions.AssertExpectations(t)
	r.attempts.AssertExpectations(t)
	r.answers.AssertExpectations(t)
	r.grades.AssertExpectations(t)
	r.forecasts.AssertExpectations(t)
	r.topicPerformance.AssertExpectations(t)
	r.users.AssertExpectations(t)
	r.changeLogs.AssertExpectations(t)
}
