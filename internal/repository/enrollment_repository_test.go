package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

var enrollmentDetailColumns = []string{"id", "student_id", "group_id", "status", "agreed_price", "discount_percentage", "agreement_id",
	"enrollment_date", "start_date", "end_date", "notes", "created_by_id", "created_at", "updated_at",
	"student_name", "group_code", "group_name", "level_id", "level_name", "course_id", "course_name"}

func TestEnrollmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(enrollmentDetailColumns).
		AddRow("e1", "s1", "g1", "ACTIVE", "297.50", "15.0000", "agr-1", now, now, now, nil, "admin", now, now,
			"Ana Lopez", "ENG1-2026-AUTO", "English I 2026", "l1", "Level 1", "course-a", "English I")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN courses c ON c.id = l.course_id WHERE c.id = $1 AND EXTRACT(YEAR FROM e.enrollment_date) = $2 AND e.status = $3 ORDER BY e.enrollment_date DESC LIMIT 20 OFFSET 0")).
		WithArgs("course-a", 2026, models.EnrollmentStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs("course-a", 2026, models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.EnrollmentFilter{CourseID: "course-a", Year: 2026, Status: models.EnrollmentStatusActive})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.True(t, items[0].AgreedPrice.Equal(decimal.RequireFromString("297.50")))
	assert.Equal(t, "English I", items[0].CourseName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindDetailByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDetailByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWithinTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	enrollment := &models.Enrollment{StudentID: "s1", GroupID: "g1", AgreedPrice: decimal.NewFromInt(450), DiscountPercentage: decimal.Zero}
	require.NoError(t, repo.Create(context.Background(), tx, enrollment))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.False(t, enrollment.EnrollmentDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("e1", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2")).
		WithArgs("missing", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "e1", models.EnrollmentStatusCancelled))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", models.EnrollmentStatusCancelled), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCountActiveByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = $2")).
		WithArgs("s1", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveByStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
