package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
)

// Valid reports whether the status is one of the known values.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusCancelled, EnrollmentStatusPending:
		return true
	}
	return false
}

// Enrollment binds a student to a group with a frozen price snapshot.
type Enrollment struct {
	ID                 string           `db:"id" json:"id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	GroupID            string           `db:"group_id" json:"group_id"`
	Status             EnrollmentStatus `db:"status" json:"status"`
	AgreedPrice        decimal.Decimal  `db:"agreed_price" json:"agreed_price"`
	DiscountPercentage decimal.Decimal  `db:"discount_percentage" json:"discount_percentage"`
	AgreementID        *string          `db:"agreement_id" json:"agreement_id,omitempty"`
	EnrollmentDate     time.Time        `db:"enrollment_date" json:"enrollment_date"`
	StartDate          time.Time        `db:"start_date" json:"start_date"`
	EndDate            time.Time        `db:"end_date" json:"end_date"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	CreatedByID        *string          `db:"created_by_id" json:"created_by_id,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student, group, level and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	GroupCode   string `db:"group_code" json:"group_code"`
	GroupName   string `db:"group_name" json:"group_name"`
	LevelID     string `db:"level_id" json:"level_id"`
	LevelName   string `db:"level_name" json:"level_name"`
	CourseID    string `db:"course_id" json:"course_id"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	GroupID   string
	CourseID  string
	Year      int
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
