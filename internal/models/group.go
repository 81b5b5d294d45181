package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupStatus captures the lifecycle of a scheduled offering.
type GroupStatus string

const (
	GroupStatusDraft           GroupStatus = "DRAFT"
	GroupStatusOpen            GroupStatus = "OPEN"
	GroupStatusInProgress      GroupStatus = "IN_PROGRESS"
	GroupStatusGradesSubmitted GroupStatus = "GRADES_SUBMITTED"
	GroupStatusCompleted       GroupStatus = "COMPLETED"
	GroupStatusCancelled       GroupStatus = "CANCELLED"
)

// Group is one offering of a level taught by a teacher.
type Group struct {
	ID          string      `db:"id" json:"id"`
	LevelID     string      `db:"level_id" json:"level_id"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	ClassroomID *string     `db:"classroom_id" json:"classroom_id,omitempty"`
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	MinCapacity int         `db:"min_capacity" json:"min_capacity"`
	MaxCapacity int         `db:"max_capacity" json:"max_capacity"`
	Status      GroupStatus `db:"status" json:"status"`
	StartDate   time.Time   `db:"start_date" json:"start_date"`
	EndDate     time.Time   `db:"end_date" json:"end_date"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`

	Schedules []GroupSchedule `db:"-" json:"schedules,omitempty"`
}

// GroupSchedule is a weekly time slot of a group.
type GroupSchedule struct {
	ID        string `db:"id" json:"id"`
	GroupID   string `db:"group_id" json:"group_id"`
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// GroupDetail is a group joined with its level and course.
type GroupDetail struct {
	Group
	LevelName        string          `db:"level_name" json:"level_name"`
	LevelBasePrice   decimal.Decimal `db:"level_base_price" json:"level_base_price"`
	CourseID         string          `db:"course_id" json:"course_id"`
	CourseCode       string          `db:"course_code" json:"course_code"`
	CourseName       string          `db:"course_name" json:"course_name"`
	PreviousCourseID *string         `db:"previous_course_id" json:"previous_course_id,omitempty"`
}

// Course returns the course portion of the detail.
func (d GroupDetail) Course() *Course {
	return &Course{ID: d.CourseID, Code: d.CourseCode, Name: d.CourseName, PreviousCourseID: d.PreviousCourseID}
}
