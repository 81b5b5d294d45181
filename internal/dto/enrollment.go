package dto

import (
	"github.com/noah-isme/academy-adp-api/internal/models"
)

// CreateEnrollmentRequest enrolls a student into a group, or into a course whose group is resolved automatically.
type CreateEnrollmentRequest struct {
	StudentID string  `json:"studentId" validate:"required"`
	GroupID   *string `json:"groupId,omitempty"`
	CourseID  *string `json:"courseId,omitempty"`
}

// IssuedCredentials is the one-time login pair returned after enrollment.
type IssuedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// EnrollmentCreated is returned by the single enrollment flow. Credentials is nil when rotation was skipped.
type EnrollmentCreated struct {
	Enrollment  *models.EnrollmentDetail `json:"enrollment"`
	Credentials *IssuedCredentials       `json:"credentials,omitempty"`
}

// UpdateEnrollmentStatusRequest changes an enrollment lifecycle state.
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=ACTIVE COMPLETED CANCELLED PENDING"`
}

// PromoteRequest moves a batch of students into a fresh group of the next course.
type PromoteRequest struct {
	NextCourseID string   `json:"nextCourseId" validate:"required"`
	StartDate    Date     `json:"startDate"`
	StudentIDs   []string `json:"studentIds" validate:"required,min=1,dive,required"`
}

// PromotionFailure explains why one student was not promoted.
type PromotionFailure struct {
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// PromotionResult aggregates a promotion batch.
type PromotionResult struct {
	Group         *models.Group      `json:"group"`
	PromotedCount int                `json:"promotedCount"`
	SkippedCount  int                `json:"skippedCount"`
	Failures      []PromotionFailure `json:"failures"`
}
