package dto

import "github.com/noah-isme/academy-adp-api/internal/models"

// CreateStudentRequest onboards a student with its login identity.
type CreateStudentRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"firstName" validate:"required"`
	PaternalSurname string  `json:"paternalSurname" validate:"required"`
	MaternalSurname *string `json:"maternalSurname,omitempty"`
	DocumentType    string  `json:"documentType" validate:"required"`
	DocumentNumber  string  `json:"documentNumber" validate:"required"`
	BirthDate       string  `json:"birthDate,omitempty"`
	SchoolID        *string `json:"schoolId,omitempty"`
}

// CreateTeacherRequest onboards a teacher with its login identity.
type CreateTeacherRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	FirstName       string  `json:"firstName" validate:"required"`
	PaternalSurname string  `json:"paternalSurname" validate:"required"`
	MaternalSurname *string `json:"maternalSurname,omitempty"`
	HireDate        string  `json:"hireDate,omitempty"`
	Specialty       *string `json:"specialty,omitempty"`
}

// StudentCreated returns the new student and its initial credentials.
type StudentCreated struct {
	Student     *models.Student    `json:"student"`
	Credentials *IssuedCredentials `json:"credentials"`
}

// TeacherCreated returns the new teacher and its initial credentials.
type TeacherCreated struct {
	Teacher     *models.Teacher    `json:"teacher"`
	Credentials *IssuedCredentials `json:"credentials"`
}
