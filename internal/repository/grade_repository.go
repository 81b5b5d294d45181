package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

// GradeRepository reads evaluation results.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// LatestCompetencyScores returns, per ACTIVE or COMPLETED enrollment in the course, the most
// recent grade of each core competency.
func (r *GradeRepository) LatestCompetencyScores(ctx context.Context, courseID string) ([]models.CompetencyScore, error) {
	args := []interface{}{courseID, models.EnrollmentStatusActive, models.EnrollmentStatusCompleted}
	placeholders := make([]string, 0, len(models.CoreCompetencies))
	for _, competency := range models.CoreCompetencies {
		args = append(args, competency)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT DISTINCT ON (gr.enrollment_id, gr.evaluation_type)
        e.student_id, s.first_name || ' ' || s.paternal_surname AS student_name, gr.enrollment_id, gr.evaluation_type, gr.value
        FROM grades gr
        JOIN enrollments e ON e.id = gr.enrollment_id
        JOIN students s ON s.id = e.student_id
        JOIN groups g ON g.id = e.group_id
        JOIN levels l ON l.id = g.level_id
        WHERE l.course_id = $1 AND e.status IN ($2, $3) AND s.deleted_at IS NULL
        AND gr.evaluation_type IN (%s)
        ORDER BY gr.enrollment_id, gr.evaluation_type, gr.evaluated_at DESC, gr.created_at DESC`, strings.Join(placeholders, ", "))

	var scores []models.CompetencyScore
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list competency scores: %w", err)
	}
	return scores, nil
}
