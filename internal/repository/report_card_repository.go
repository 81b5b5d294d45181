package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

// ReportCardRepository reads period summaries used for prerequisite clearance.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs a ReportCardRepository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// HasApprovedForCourse reports whether the student owns an APPROVED report card on an
// enrollment whose group belongs to the course.
func (r *ReportCardRepository) HasApprovedForCourse(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM report_cards rc
        JOIN enrollments e ON e.id = rc.enrollment_id
        JOIN groups g ON g.id = e.group_id
        JOIN levels l ON l.id = g.level_id
        WHERE e.student_id = $1 AND l.course_id = $2 AND rc.status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.ReportCardApproved); err != nil {
		return false, fmt.Errorf("check approved report card: %w", err)
	}
	return exists, nil
}
