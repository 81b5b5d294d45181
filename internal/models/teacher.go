package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	PaternalSurname string     `db:"paternal_surname" json:"paternal_surname"`
	MaternalSurname *string    `db:"maternal_surname" json:"maternal_surname,omitempty"`
	HireDate        *time.Time `db:"hire_date" json:"hire_date,omitempty"`
	Specialty       *string    `db:"specialty" json:"specialty,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// FullName joins the teacher's names.
func (t Teacher) FullName() string {
	return joinNames(t.FirstName, t.PaternalSurname, t.MaternalSurname)
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
