package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scholaris-edu/lms-service/internal/events"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// GradebookService maintains quarterly grades: recomputation from quiz
// attempts, weight overrides, class views and export.
type GradebookService interface {
	RecomputeComponent(ctx context.Context, studentID, offeringID uint, quarter models.Quarter, component models.GradeComponent) (*models.QuarterlyGrade, error)
	GetQuarterlyGrade(ctx context.Context, studentID, offeringID uint, quarter models.Quarter) (*models.QuarterlyGrade, error)
	GetStudentGrades(ctx context.Context, studentID uint) ([]*models.QuarterlyGrade, error)
	GetQuarterSummary(ctx context.Context, studentID, offeringID uint) (*QuarterSummary, error)
	GetClassGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, teacherID uint) ([]*models.QuarterlyGrade, error)
	UpdateWeights(ctx context.Context, studentID, offeringID uint, quarter models.Quarter, req *UpdateWeightsRequest, teacherID uint) (*models.QuarterlyGrade, error)
	ExportGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, teacherID uint) ([]byte, error)
}

// QuarterSummary is one student's year-to-date view of a subject offering:
// every quarter graded so far plus the running average over those quarters.
type QuarterSummary struct {
	StudentID         uint                     `json:"student_id"`
	SubjectOfferingID uint                     `json:"subject_offering_id"`
	Quarters          []*models.QuarterlyGrade `json:"quarters"`
	Average           float64                  `json:"average"`
}

type UpdateWeightsRequest struct {
	WrittenWorkWeight     float64 `json:"written_work_weight" validate:"min=0,max=1"`
	PerformanceTaskWeight float64 `json:"performance_task_weight" validate:"min=0,max=1"`
	QuarterlyExamWeight   float64 `json:"quarterly_exam_weight" validate:"min=0,max=1"`
}

type gradebookService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewGradebookService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) GradebookService {
	return &gradebookService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// RecomputeComponent rebuilds one component bucket of a quarterly grade from
// scratch and re-derives the final grade.
func (s *gradebookService) RecomputeComponent(ctx context.Context, studentID, offeringID uint, quarter models.Quarter, component models.GradeComponent) (*models.QuarterlyGrade, error) {
	var grade *models.QuarterlyGrade
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var txErr error
		grade, txErr = recomputeComponent(ctx, tx, studentID, offeringID, quarter, component)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishGradeUpdated(ctx, grade)
	return grade, nil
}

func (s *gradebookService) GetQuarterlyGrade(ctx context.Context, studentID, offeringID uint, quarter models.Quarter) (*models.QuarterlyGrade, error) {
	grade, err := s.repo.Grades().GetByScope(ctx, studentID, offeringID, quarter)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGradeNotFound
		}
		return nil, fmt.Errorf("failed to get quarterly grade: %w", err)
	}
	return grade, nil
}

func (s *gradebookService) GetStudentGrades(ctx context.Context, studentID uint) ([]*models.QuarterlyGrade, error) {
	grades, err := s.repo.Grades().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	return grades, nil
}

// GetQuarterSummary averages only the quarters that have a grade row, so a
// mid-year summary is not dragged down by quarters that have not happened.
func (s *gradebookService) GetQuarterSummary(ctx context.Context, studentID, offeringID uint) (*QuarterSummary, error) {
	grades, err := s.repo.Grades().ListByStudentAndOffering(ctx, studentID, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}

	summary := &QuarterSummary{
		StudentID:         studentID,
		SubjectOfferingID: offeringID,
		Quarters:          grades,
	}
	if len(grades) > 0 {
		var sum float64
		for _, grade := range grades {
			sum += grade.FinalGrade
		}
		summary.Average = sum / float64(len(grades))
	}
	return summary, nil
}

func (s *gradebookService) GetClassGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, teacherID uint) ([]*models.QuarterlyGrade, error) {
	if err := s.authorizeOffering(ctx, offeringID, teacherID, "view_gradebook"); err != nil {
		return nil, err
	}
	grades, err := s.repo.Grades().ListByOffering(ctx, offeringID, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to list gradebook: %w", err)
	}
	return grades, nil
}

func (s *gradebookService) UpdateWeights(ctx context.Context, studentID, offeringID uint, quarter models.Quarter, req *UpdateWeightsRequest, teacherID uint) (*models.QuarterlyGrade, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	weights := models.ComponentScores{
		WrittenWorkWeight:     req.WrittenWorkWeight,
		PerformanceTaskWeight: req.PerformanceTaskWeight,
		QuarterlyExamWeight:   req.QuarterlyExamWeight,
	}
	if !weights.WeightsValid() {
		return nil, ErrInvalidWeights
	}

	if err := s.authorizeOffering(ctx, offeringID, teacherID, "update_weights"); err != nil {
		return nil, err
	}

	grade, err := s.GetQuarterlyGrade(ctx, studentID, offeringID, quarter)
	if err != nil {
		return nil, err
	}

	previous := grade.FinalGrade
	grade.WrittenWorkWeight = req.WrittenWorkWeight
	grade.PerformanceTaskWeight = req.PerformanceTaskWeight
	grade.QuarterlyExamWeight = req.QuarterlyExamWeight
	grade.FinalGrade = models.ComputeFinalGrade(grade.Components())

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Grades().Save(ctx, grade); err != nil {
			return fmt.Errorf("failed to save grade: %w", err)
		}
		entry := &models.GradeChangeLog{
			TeacherID:         &teacherID,
			StudentID:         &studentID,
			SubjectOfferingID: &offeringID,
			Activity:          fmt.Sprintf("Adjusted %s component weights", quarter),
			PreviousValue:     fmt.Sprintf("%.2f", previous),
			NewValue:          fmt.Sprintf("%.2f", grade.FinalGrade),
			ChangeType:        models.GradeChangeUpdate,
		}
		if err := tx.ChangeLogs().Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record grade change: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishGradeUpdated(ctx, grade)

	s.logger.Info("Grade weights updated",
		"student_id", studentID,
		"subject_offering_id", offeringID,
		"quarter", quarter,
		"final_grade", grade.FinalGrade)

	return grade, nil
}

// ExportGradebook renders the class gradebook for one quarter as an Excel
// workbook.
func (s *gradebookService) ExportGradebook(ctx context.Context, offeringID uint, quarter models.Quarter, teacherID uint) ([]byte, error) {
	grades, err := s.GetClassGradebook(ctx, offeringID, quarter, teacherID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Gradebook"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Student ID", "Student Name", "Quarter",
		"Written Work", "Performance Task", "Quarterly Exam",
		"WW Weight", "PT Weight", "QE Weight", "Final Grade", "Remarks",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, grade := range grades {
		row := []interface{}{
			grade.StudentID,
			grade.Student.User.FullName(),
			string(grade.Quarter),
			fmt.Sprintf("%.1f/%.1f", grade.WrittenWorkScore, grade.WrittenWorkTotal),
			fmt.Sprintf("%.1f/%.1f", grade.PerformanceTaskScore, grade.PerformanceTaskTotal),
			fmt.Sprintf("%.1f/%.1f", grade.QuarterlyExamScore, grade.QuarterlyExamTotal),
			grade.WrittenWorkWeight,
			grade.PerformanceTaskWeight,
			grade.QuarterlyExamWeight,
			grade.FinalGrade,
			grade.Remarks,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *gradebookService) authorizeOffering(ctx context.Context, offeringID, teacherID uint, action string) error {
	offering, err := s.repo.Users().GetSubjectOffering(ctx, offeringID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfferingNotFound
		}
		return fmt.Errorf("failed to get subject offering: %w", err)
	}
	if offering.TeacherID != nil && *offering.TeacherID == teacherID {
		return nil
	}
	if ok, roleErr := s.repo.Users().HasRole(ctx, teacherID, models.RoleAdmin); roleErr == nil && ok {
		return nil
	}
	return NewPermissionError(teacherID, offeringID, "subject_offering", action,
		"gradebook belongs to another teacher")
}

func (s *gradebookService) publishGradeUpdated(ctx context.Context, grade *models.QuarterlyGrade) {
	event := events.NewEvent(events.EventGradeUpdated, events.GradeUpdatedEvent{
		StudentID:         grade.StudentID,
		SubjectOfferingID: grade.SubjectOfferingID,
		Quarter:           string(grade.Quarter),
		FinalGrade:        grade.FinalGrade,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish grade event",
			"student_id", grade.StudentID,
			"error", err)
	}
}

// recomputeComponent rebuilds one (student, offering, quarter, component)
// bucket from the best finished attempt per quiz. The bucket is always
// rebuilt whole; nothing is ever added to a previous value.
func recomputeComponent(ctx context.Context, tx repositories.Repository, studentID, offeringID uint, quarter models.Quarter, component models.GradeComponent) (*models.QuarterlyGrade, error) {
	quizzes, err := tx.Quizzes().GetForGradebook(ctx, offeringID, quarter, component)
	if err != nil {
		return nil, fmt.Errorf("failed to load quizzes: %w", err)
	}

	quizIDs := make([]uint, 0, len(quizzes))
	for _, quiz := range quizzes {
		quizIDs = append(quizIDs, quiz.ID)
	}

	best, err := tx.Attempts().GetBestScores(ctx, studentID, quizIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load best scores: %w", err)
	}

	// Only quizzes the student actually finished count toward the bucket, so
	// an unattempted open quiz does not drag the grade down early.
	var score, total float64
	for _, quiz := range quizzes {
		if s, ok := best[quiz.ID]; ok {
			score += s
			total += quiz.TotalPoints
		}
	}

	grade, err := tx.Grades().GetByScope(ctx, studentID, offeringID, quarter)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load quarterly grade: %w", err)
		}
		grade = &models.QuarterlyGrade{
			StudentID:             studentID,
			SubjectOfferingID:     offeringID,
			Quarter:               quarter,
			WrittenWorkWeight:     models.DefaultWrittenWorkWeight,
			PerformanceTaskWeight: models.DefaultPerformanceTaskWeight,
			QuarterlyExamWeight:   models.DefaultQuarterlyExamWeight,
		}
	}

	grade.SetComponent(component, score, total)
	grade.FinalGrade = models.ComputeFinalGrade(grade.Components())

	if err := tx.Grades().Save(ctx, grade); err != nil {
		return nil, fmt.Errorf("failed to save quarterly grade: %w", err)
	}
	return grade, nil
}
