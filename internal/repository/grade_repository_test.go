package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

func TestReportCardRepositoryHasApprovedForCourseQueryShape(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.student_id = $1 AND l.course_id = $2 AND rc.status = $3)")).
		WithArgs("s1", "course-a", models.ReportCardApproved).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasApprovedForCourse(context.Background(), "s1", "course-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryLatestCompetencyScores(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND gr.evaluation_type IN ($4, $5, $6, $7, $8, $9)")).
		WithArgs("course-a", models.EnrollmentStatusActive, models.EnrollmentStatusCompleted,
			models.EvaluationSpeaking, models.EvaluationListening, models.EvaluationReading,
			models.EvaluationWriting, models.EvaluationVocabulary, models.EvaluationGrammar).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name", "enrollment_id", "evaluation_type", "value"}).
			AddRow("s1", "Ana Lopez", "e1", "SPEAKING", "60.00").
			AddRow("s1", "Ana Lopez", "e1", "LISTENING", "70.00"))

	scores, err := repo.LatestCompetencyScores(context.Background(), "course-a")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, models.EvaluationListening, scores[1].EvaluationType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
