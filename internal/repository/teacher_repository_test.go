package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

var teacherRowColumns = []string{"id", "user_id", "first_name", "paternal_surname", "maternal_surname", "hire_date", "specialty", "active", "created_at", "updated_at", "deleted_at"}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + teacherColumns + " FROM teachers WHERE deleted_at IS NULL AND active = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).AddRow("t1", "u1", "Rosa", "Diaz", nil, now, nil, true, now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE deleted_at IS NULL AND active = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindFirstActiveIsDeterministic(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE AND deleted_at IS NULL ORDER BY created_at, id LIMIT 1")).
		WillReturnRows(sqlmock.NewRows(teacherRowColumns).AddRow("t1", "u1", "Rosa", "Diaz", nil, nil, nil, true, now, now, nil))

	teacher, err := repo.FindFirstActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindFirstActiveNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE active = TRUE").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindFirstActive(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateAndSoftDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET active = FALSE, deleted_at = $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	teacher := &models.Teacher{UserID: "u1", FirstName: "Rosa", PaternalSurname: "Diaz", Active: true}
	require.NoError(t, repo.Create(context.Background(), nil, teacher))
	require.NoError(t, repo.SoftDelete(context.Background(), teacher.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
