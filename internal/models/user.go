package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

type GradeLevel string

const (
	Grade7  GradeLevel = "GRADE_7"
	Grade8  GradeLevel = "GRADE_8"
	Grade9  GradeLevel = "GRADE_9"
	Grade10 GradeLevel = "GRADE_10"
)

// User is a minimal read-side copy of the identity record; this service does
// not own user data.
type User struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	SchoolID  string   `json:"school_id" gorm:"uniqueIndex;not null;size:50"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100"`
	Role      UserRole `json:"role" gorm:"not null;size:20;index" validate:"required,user_role"`
	IsActive  bool     `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}

type Section struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Name       string     `json:"name" gorm:"not null;size:50;uniqueIndex:idx_section_name_level"`
	GradeLevel GradeLevel `json:"grade_level" gorm:"not null;size:20;uniqueIndex:idx_section_name_level"`
	AdviserID  *uint      `json:"adviser_id"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`

	Adviser *User `json:"adviser,omitempty" gorm:"foreignKey:AdviserID"`
}

func (Section) TableName() string {
	return "sections"
}

// SubjectOffering is a subject taught to one section by one teacher, e.g.
// "Mathematics 7 — Section A". Quizzes and grades hang off the offering, not
// the bare subject.
type SubjectOffering struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:100;uniqueIndex:idx_offering_name_section"`
	SectionID uint   `json:"section_id" gorm:"not null;index;uniqueIndex:idx_offering_name_section"`
	TeacherID *uint  `json:"teacher_id" gorm:"index"`
	Room      string `json:"room" gorm:"size:50"`
	Schedule  string `json:"schedule" gorm:"size:100"`

	Section Section `json:"section" gorm:"foreignKey:SectionID"`
	Teacher *User   `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

func (SubjectOffering) TableName() string {
	return "subject_offerings"
}

type Student struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"not null;uniqueIndex"`
	GradeLevel GradeLevel `json:"grade_level" gorm:"not null;size:20"`
	SectionID  *uint      `json:"section_id" gorm:"index"`

	User    User     `json:"user" gorm:"foreignKey:UserID"`
	Section *Section `json:"section,omitempty" gorm:"foreignKey:SectionID"`
}

func (Student) TableName() string {
	return "students"
}
