package models

import "time"

type GradeChangeType string

const (
	GradeChangeCreate GradeChangeType = "CREATE"
	GradeChangeUpdate GradeChangeType = "UPDATE"
)

// GradeChangeLog records every mutation a teacher makes to a grade-bearing
// record (manual answer grading, quarterly grade edits) for later audit.
type GradeChangeLog struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	TeacherID         *uint           `json:"teacher_id" gorm:"index"`
	StudentID         *uint           `json:"student_id" gorm:"index"`
	SubjectOfferingID *uint           `json:"subject_offering_id" gorm:"index"`
	Activity          string          `json:"activity" gorm:"not null;size:255"`
	PreviousValue     string          `json:"previous_value" gorm:"size:50;default:N/A"`
	NewValue          string          `json:"new_value" gorm:"size:50"`
	ChangeType        GradeChangeType `json:"change_type" gorm:"not null;size:6"`

	CreatedAt time.Time `json:"created_at"`

	Teacher *User    `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (GradeChangeLog) TableName() string {
	return "grade_change_logs"
}
