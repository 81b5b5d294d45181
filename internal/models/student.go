package models

import (
	"strings"
	"time"
)

// StudentStatus describes the lifecycle state of a learner.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusInactive  StudentStatus = "INACTIVE"
	StudentStatusGraduated StudentStatus = "GRADUATED"
	StudentStatusWithdrawn StudentStatus = "WITHDRAWN"
)

// Student represents a learner registered in the academy.
type Student struct {
	ID              string        `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"user_id"`
	FirstName       string        `db:"first_name" json:"first_name"`
	PaternalSurname string        `db:"paternal_surname" json:"paternal_surname"`
	MaternalSurname *string       `db:"maternal_surname" json:"maternal_surname,omitempty"`
	DocumentType    string        `db:"document_type" json:"document_type"`
	DocumentNumber  string        `db:"document_number" json:"document_number"`
	BirthDate       *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	SchoolID        *string       `db:"school_id" json:"school_id,omitempty"`
	Status          StudentStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time    `db:"deleted_at" json:"deleted_at,omitempty"`
}

// FullName joins the student's names.
func (s Student) FullName() string {
	return joinNames(s.FirstName, s.PaternalSurname, s.MaternalSurname)
}

// StudentDetail adds the owning user and school to a student.
type StudentDetail struct {
	Student
	Username   string  `db:"username" json:"username"`
	Email      string  `db:"email" json:"email"`
	SchoolName *string `db:"school_name" json:"school_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	SchoolID  string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

func joinNames(first, paternal string, maternal *string) string {
	parts := []string{strings.TrimSpace(first), strings.TrimSpace(paternal)}
	if maternal != nil && strings.TrimSpace(*maternal) != "" {
		parts = append(parts, strings.TrimSpace(*maternal))
	}
	return strings.Join(parts, " ")
}
