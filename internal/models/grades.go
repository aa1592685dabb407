package models

import (
	"math"
	"time"
)

// Default DepEd-style component weights.
const (
	DefaultWrittenWorkWeight     = 0.40
	DefaultPerformanceTaskWeight = 0.40
	DefaultQuarterlyExamWeight   = 0.20

	// WeightSumTolerance is the allowed drift of the three weights from 1.0.
	WeightSumTolerance = 0.01
)

// ComponentScores carries the raw score/total pairs and weights of one
// quarterly grade row, decoupled from persistence so the final-grade
// derivation stays a pure function.
type ComponentScores struct {
	WrittenWorkScore float64
	WrittenWorkTotal float64

	PerformanceTaskScore float64
	PerformanceTaskTotal float64

	QuarterlyExamScore float64
	QuarterlyExamTotal float64

	WrittenWorkWeight     float64
	PerformanceTaskWeight float64
	QuarterlyExamWeight   float64
}

// WeightsValid reports whether the three weights sum to 1.0 within tolerance.
func (c ComponentScores) WeightsValid() bool {
	sum := c.WrittenWorkWeight + c.PerformanceTaskWeight + c.QuarterlyExamWeight
	return math.Abs(sum-1.0) <= WeightSumTolerance
}

// ComputeFinalGrade derives the weighted final grade (0-100) from component
// scores. A component whose total is zero contributes 0 rather than NaN.
func ComputeFinalGrade(c ComponentScores) float64 {
	return componentPct(c.WrittenWorkScore, c.WrittenWorkTotal)*c.WrittenWorkWeight +
		componentPct(c.PerformanceTaskScore, c.PerformanceTaskTotal)*c.PerformanceTaskWeight +
		componentPct(c.QuarterlyExamScore, c.QuarterlyExamTotal)*c.QuarterlyExamWeight
}

func componentPct(score, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return score / total * 100
}

// QuarterlyGrade stores one student's component scores and derived final grade
// for a quarter of a subject offering. FinalGrade is a cached derivation —
// callers mutate the components and must recompute via ComputeFinalGrade
// before saving; it is never independently settable.
type QuarterlyGrade struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	StudentID         uint    `json:"student_id" gorm:"not null;index;uniqueIndex:idx_qgrade_scope"`
	SubjectOfferingID uint    `json:"subject_offering_id" gorm:"not null;index;uniqueIndex:idx_qgrade_scope"`
	Quarter           Quarter `json:"quarter" gorm:"not null;size:2;uniqueIndex:idx_qgrade_scope" validate:"required,quarter"`

	WrittenWorkScore float64 `json:"written_work_score" gorm:"default:0"`
	WrittenWorkTotal float64 `json:"written_work_total" gorm:"default:0"`

	PerformanceTaskScore float64 `json:"performance_task_score" gorm:"default:0"`
	PerformanceTaskTotal float64 `json:"performance_task_total" gorm:"default:0"`

	QuarterlyExamScore float64 `json:"quarterly_exam_score" gorm:"default:0"`
	QuarterlyExamTotal float64 `json:"quarterly_exam_total" gorm:"default:0"`

	WrittenWorkWeight     float64 `json:"written_work_weight" gorm:"default:0.40" validate:"min=0,max=1"`
	PerformanceTaskWeight float64 `json:"performance_task_weight" gorm:"default:0.40" validate:"min=0,max=1"`
	QuarterlyExamWeight   float64 `json:"quarterly_exam_weight" gorm:"default:0.20" validate:"min=0,max=1"`

	FinalGrade float64 `json:"final_grade" gorm:"default:0"`
	Remarks    string  `json:"remarks" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student         Student         `json:"student" gorm:"foreignKey:StudentID"`
	SubjectOffering SubjectOffering `json:"subject_offering" gorm:"foreignKey:SubjectOfferingID"`
}

func (QuarterlyGrade) TableName() string {
	return "quarterly_grades"
}

// Components extracts the score/weight snapshot used by ComputeFinalGrade.
func (g *QuarterlyGrade) Components() ComponentScores {
	return ComponentScores{
		WrittenWorkScore:      g.WrittenWorkScore,
		WrittenWorkTotal:      g.WrittenWorkTotal,
		PerformanceTaskScore:  g.PerformanceTaskScore,
		PerformanceTaskTotal:  g.PerformanceTaskTotal,
		QuarterlyExamScore:    g.QuarterlyExamScore,
		QuarterlyExamTotal:    g.QuarterlyExamTotal,
		WrittenWorkWeight:     g.WrittenWorkWeight,
		PerformanceTaskWeight: g.PerformanceTaskWeight,
		QuarterlyExamWeight:   g.QuarterlyExamWeight,
	}
}

// SetComponent writes a score/total pair into the bucket selected by the
// grade component tag.
func (g *QuarterlyGrade) SetComponent(component GradeComponent, score, total float64) {
	switch component {
	case ComponentWrittenWork:
		g.WrittenWorkScore = score
		g.WrittenWorkTotal = total
	case ComponentPerformanceTask:
		g.PerformanceTaskScore = score
		g.PerformanceTaskTotal = total
	case ComponentQuarterlyExam:
		g.QuarterlyExamScore = score
		g.QuarterlyExamTotal = total
	}
}
