package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

func TestReportCardRepositoryHasApprovedForCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportCardRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("stu-1", "course-1", models.ReportCardApproved).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasApprovedForCourse(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("stu-2", "course-1", models.ReportCardApproved).
		WillReturnError(errors.New("connection reset"))

	_, err = repo.HasApprovedForCourse(context.Background(), "stu-2", "course-1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
