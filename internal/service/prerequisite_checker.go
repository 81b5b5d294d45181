package service

import (
	"context"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

type approvedReportReader interface {
	HasApprovedForCourse(ctx context.Context, studentID, courseID string) (bool, error)
}

// PrerequisiteChecker decides whether a student cleared a course's prerequisite.
// Only APPROVED report cards count; a COMPLETED enrollment alone does not.
type PrerequisiteChecker struct {
	reports approvedReportReader
}

// NewPrerequisiteChecker constructs a PrerequisiteChecker.
func NewPrerequisiteChecker(reports approvedReportReader) *PrerequisiteChecker {
	return &PrerequisiteChecker{reports: reports}
}

// IsSatisfied returns true when the course has no prerequisite or the student owns an
// APPROVED report card for it.
func (c *PrerequisiteChecker) IsSatisfied(ctx context.Context, studentID string, course *models.Course) (bool, error) {
	if course == nil || course.PreviousCourseID == nil || *course.PreviousCourseID == "" {
		return true, nil
	}
	return c.reports.HasApprovedForCourse(ctx, studentID, *course.PreviousCourseID)
}
