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

func TestRecomputeComponent_BestAttemptPerQuiz(t *testing.T) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher()
	service := NewGradebookService(repo, publisher, testLogger(), utils.NewValidator())

	quizzes := []*models.Quiz{
		{ID: 1, TotalPoints: 10},
		{ID: 2, TotalPoints: 20},
		{ID: 3, TotalPoints: 15}, // never attempted
	}
	repo.quizzes.On("GetForGradebook", mock.Anything, uint(7), models.QuarterFirst, models.ComponentWrittenWork).
		Return(quizzes, nil)
	repo.attempts.On("GetBestScores", mock.Anything, uint(5), []uint{1, 2, 3}).
		Return(map[uint]float64{1: 8, 2: 15}, nil)
	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterFirst).
		Return(nil, gorm.ErrRecordNotFound)

	var saved *models.QuarterlyGrade
	repo.grades.On("Save", mock.Anything, mock.AnythingOfType("*models.QuarterlyGrade")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.QuarterlyGrade)
		}).Return(nil)

	grade, err := service.RecomputeComponent(context.Background(), 5, 7, models.QuarterFirst, models.ComponentWrittenWork)

	assert.NoError(t, err)
	// Only attempted quizzes count: 8+15 over 10+20.
	assert.Equal(t, 23.0, saved.WrittenWorkScore)
	assert.Equal(t, 30.0, saved.WrittenWorkTotal)
	// New row gets the default 40-40-20 weights.
	assert.Equal(t, models.DefaultWrittenWorkWeight, saved.WrittenWorkWeight)
	// 23/30*100*0.4 = 30.666...
	assert.InDelta(t, 30.6667, grade.FinalGrade, 0.001)

	assert.Len(t, publisher.Events, 1)
	assert.Equal(t, string(events.EventGradeUpdated), string(publisher.Events[0].Type))
	repo.AssertExpectations(t)
}

func TestRecomputeComponent_PreservesExistingWeights(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	existing := &models.QuarterlyGrade{
		ID:                    11,
		StudentID:             5,
		SubjectOfferingID:     7,
		Quarter:               models.QuarterFirst,
		PerformanceTaskScore:  9,
		PerformanceTaskTotal:  10,
		WrittenWorkWeight:     0.50,
		PerformanceTaskWeight: 0.30,
		QuarterlyExamWeight:   0.20,
	}

	repo.quizzes.On("GetForGradebook", mock.Anything, uint(7), models.QuarterFirst, models.ComponentWrittenWork).
		Return([]*models.Quiz{{ID: 1, TotalPoints: 10}}, nil)
	repo.attempts.On("GetBestScores", mock.Anything, uint(5), []uint{1}).
		Return(map[uint]float64{1: 8}, nil)
	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterFirst).
		Return(existing, nil)
	repo.grades.On("Save", mock.Anything, existing).Return(nil)

	grade, err := service.RecomputeComponent(context.Background(), 5, 7, models.QuarterFirst, models.ComponentWrittenWork)

	assert.NoError(t, err)
	assert.Equal(t, 0.50, grade.WrittenWorkWeight)
	// 80*0.5 + 90*0.3 + 0 = 67
	assert.InDelta(t, 67.0, grade.FinalGrade, 0.001)
}

func TestUpdateWeights_RejectsInvalidSum(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	req := &UpdateWeightsRequest{
		WrittenWorkWeight:     0.50,
		PerformanceTaskWeight: 0.40,
		QuarterlyExamWeight:   0.20,
	}
	_, err := service.UpdateWeights(context.Background(), 5, 7, models.QuarterFirst, req, 20)

	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestUpdateWeights_RecomputesAndLogsChange(t *testing.T) {
	repo := NewMockRepository()
	publisher := events.NewMockEventPublisher()
	service := NewGradebookService(repo, publisher, testLogger(), utils.NewValidator())

	teacherID := uint(20)
	grade := &models.QuarterlyGrade{
		ID:                    11,
		StudentID:             5,
		SubjectOfferingID:     7,
		Quarter:               models.QuarterFirst,
		WrittenWorkScore:      40,
		WrittenWorkTotal:      50,
		PerformanceTaskScore:  18,
		PerformanceTaskTotal:  20,
		QuarterlyExamScore:    45,
		QuarterlyExamTotal:    50,
		WrittenWorkWeight:     0.40,
		PerformanceTaskWeight: 0.40,
		QuarterlyExamWeight:   0.20,
		FinalGrade:            86,
	}

	repo.users.On("GetSubjectOffering", mock.Anything, uint(7)).
		Return(&models.SubjectOffering{ID: 7, SectionID: 3, TeacherID: &teacherID}, nil)
	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterFirst).Return(grade, nil)
	repo.grades.On("Save", mock.Anything, grade).Return(nil)

	var logged *models.GradeChangeLog
	repo.changeLogs.On("Create", mock.Anything, mock.AnythingOfType("*models.GradeChangeLog")).
		Run(func(args mock.Arguments) {
			logged = args.Get(1).(*models.GradeChangeLog)
		}).Return(nil)

	req := &UpdateWeightsRequest{
		WrittenWorkWeight:     0.50,
		PerformanceTaskWeight: 0.30,
		QuarterlyExamWeight:   0.20,
	}
	updated, err := service.UpdateWeights(context.Background(), 5, 7, models.QuarterFirst, req, teacherID)

	assert.NoError(t, err)
	// 80*0.5 + 90*0.3 + 90*0.2 = 85
	assert.InDelta(t, 85.0, updated.FinalGrade, 0.001)

	assert.Equal(t, models.GradeChangeUpdate, logged.ChangeType)
	assert.Equal(t, "86.00", logged.PreviousValue)
	assert.Equal(t, "85.00", logged.NewValue)

	assert.Len(t, publisher.Events, 1)
	repo.AssertExpectations(t)
}

func TestUpdateWeights_OtherTeachersGradebook(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	owner := uint(20)
	repo.users.On("GetSubjectOffering", mock.Anything, uint(7)).
		Return(&models.SubjectOffering{ID: 7, SectionID: 3, TeacherID: &owner}, nil)
	repo.users.On("HasRole", mock.Anything, uint(99), models.RoleAdmin).Return(false, nil)

	req := &UpdateWeightsRequest{
		WrittenWorkWeight:     0.40,
		PerformanceTaskWeight: 0.40,
		QuarterlyExamWeight:   0.20,
	}
	_, err := service.UpdateWeights(context.Background(), 5, 7, models.QuarterFirst, req, 99)

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
}

func TestGetQuarterlyGrade_NotFound(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	repo.grades.On("GetByScope", mock.Anything, uint(5), uint(7), models.QuarterSecond).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetQuarterlyGrade(context.Background(), 5, 7, models.QuarterSecond)

	assert.ErrorIs(t, err, ErrGradeNotFound)
}

func TestGetQuarterSummary_AveragesPresentQuarters(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	repo.grades.On("ListByStudentAndOffering", mock.Anything, uint(5), uint(7)).
		Return([]*models.QuarterlyGrade{
			{Quarter: models.QuarterFirst, FinalGrade: 84},
			{Quarter: models.QuarterSecond, FinalGrade: 90},
		}, nil)

	summary, err := service.GetQuarterSummary(context.Background(), 5, 7)

	assert.NoError(t, err)
	assert.Len(t, summary.Quarters, 2)
	// Missing quarters stay out of the average.
	assert.InDelta(t, 87.0, summary.Average, 0.001)
}

func TestGetQuarterSummary_NoGradesYet(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	repo.grades.On("ListByStudentAndOffering", mock.Anything, uint(5), uint(7)).
		Return([]*models.QuarterlyGrade{}, nil)

	summary, err := service.GetQuarterSummary(context.Background(), 5, 7)

	assert.NoError(t, err)
	assert.Empty(t, summary.Quarters)
	assert.Equal(t, 0.0, summary.Average)
}

func TestExportGradebook_ProducesWorkbook(t *testing.T) {
	repo := NewMockRepository()
	service := NewGradebookService(repo, events.NewMockEventPublisher(), testLogger(), utils.NewValidator())

	teacherID := uint(20)
	repo.users.On("GetSubjectOffering", mock.Anything, uint(7)).
		Return(&models.SubjectOffering{ID: 7, SectionID: 3, TeacherID: &teacherID}, nil)
	repo.grades.On("ListByOffering", mock.Anything, uint(7), models.QuarterFirst).
		Return([]*models.QuarterlyGrade{
			{
				StudentID:        5,
				Quarter:          models.QuarterFirst,
				WrittenWorkScore: 23, WrittenWorkTotal: 30,
				FinalGrade: 76.7,
				Student: models.Student{
					ID:   5,
					User: models.User{FirstName: "Juan", LastName: "Dela Cruz"},
				},
			},
		}, nil)

	data, err := service.ExportGradebook(context.Background(), 7, models.QuarterFirst, teacherID)

	assert.NoError(t, err)
	assert.NotEmpty(t, data)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
