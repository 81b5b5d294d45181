package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

var groupRowColumns = []string{"id", "level_id", "teacher_id", "classroom_id", "code", "name", "min_capacity", "max_capacity", "status", "start_date", "end_date", "created_at", "updated_at"}

func TestAgreementRepositoryFindBySchoolID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAgreementRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM agreements WHERE school_id = $1")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "discount_type", "discount_value", "start_date", "end_date", "is_active", "created_at", "updated_at"}).
			AddRow("agr-1", "school-1", "PERCENTAGE", "15.00", now, nil, true, now, now))

	agreement, err := repo.FindBySchoolID(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, models.DiscountTypePercentage, agreement.DiscountType)
	assert.True(t, agreement.DiscountValue.Equal(decimal.NewFromInt(15)))
	assert.Nil(t, agreement.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1")).
		WithArgs("course-b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "previous_course_id", "base_price", "duration_weeks", "total_hours", "created_at", "updated_at"}).
			AddRow("course-b", "ENG2", "English II", "course-a", "380.00", 8, 40, now, now))

	course, err := repo.FindByID(context.Background(), "course-b")
	require.NoError(t, err)
	require.NotNil(t, course.PreviousCourseID)
	assert.Equal(t, "course-a", *course.PreviousCourseID)
	assert.Equal(t, 8, *course.DurationWeeks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepositoryFindFirstByCourseOrdersByIndex(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM levels WHERE course_id = $1 ORDER BY order_index, created_at LIMIT 1")).
		WithArgs("course-a").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindFirstByCourse(context.Background(), nil, "course-a")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLevelRepositoryCreateDuplicateDefault(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLevelRepository(db)

	mock.ExpectExec("INSERT INTO levels").WillReturnError(&pq.Error{Code: "23505", Constraint: "levels_default_per_course"})

	err := repo.Create(context.Background(), nil, &models.Level{CourseID: "course-a", Code: "ENG1-L1", IsDefault: true, BasePrice: decimal.NewFromInt(450)})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryFindLatestAvailableByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	mock.ExpectQuery(`WHERE l.course_id = \$1 AND g.status = \$2\s+AND \(g.max_capacity <= 0 OR \(SELECT COUNT\(\*\) FROM enrollments e\s+WHERE e.group_id = g.id AND e.status IN \(\$3, \$4\)\) < g.max_capacity\)\s+ORDER BY g.start_date DESC`).
		WithArgs("course-a", models.GroupStatusOpen, models.EnrollmentStatusActive, models.EnrollmentStatusPending).
		WillReturnRows(sqlmock.NewRows(groupRowColumns).
			AddRow("group-1", "level-1", "t1", nil, "ENG1-2026-AUTO", "English I 2026", 1, 30, "OPEN", now, now.AddDate(0, 6, 0), now, now))

	group, err := repo.FindLatestAvailableByCourse(context.Background(), nil, "course-a")
	require.NoError(t, err)
	assert.Equal(t, "group-1", group.ID)
	assert.Equal(t, models.GroupStatusOpen, group.Status)

	mock.ExpectQuery("FROM groups g JOIN levels l").
		WithArgs("course-b", models.GroupStatusOpen, models.EnrollmentStatusActive, models.EnrollmentStatusPending).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindLatestAvailableByCourse(context.Background(), nil, "course-b")
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListCodesWithPrefix(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM groups WHERE code LIKE $1 ORDER BY code")).
		WithArgs(`ENG\_1-2026-AUTO%`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("ENG_1-2026-AUTO").AddRow("ENG_1-2026-AUTO-2"))

	codes, err := repo.ListCodesWithPrefix(context.Background(), nil, "ENG_1-2026-AUTO")
	require.NoError(t, err)
	assert.Equal(t, []string{"ENG_1-2026-AUTO", "ENG_1-2026-AUTO-2"}, codes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryCreateWithSchedules(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO groups").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	group := &models.Group{
		LevelID: "level-1", TeacherID: "t1", Code: "ENG1-2026-AUTO", Name: "English I 2026",
		MinCapacity: 1, MaxCapacity: 30, Status: models.GroupStatusOpen,
		Schedules: []models.GroupSchedule{
			{DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "12:00"},
			{DayOfWeek: "WEDNESDAY", StartTime: "08:00", EndTime: "12:00"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), tx, group))
	require.NoError(t, tx.Commit())
	for _, slot := range group.Schedules {
		assert.Equal(t, group.ID, slot.GroupID)
		assert.NotEmpty(t, slot.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryLockAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups g WHERE g.id = $1 FOR UPDATE")).
		WithArgs("group-1").
		WillReturnRows(sqlmock.NewRows(groupRowColumns).
			AddRow("group-1", "level-1", "t1", nil, "G1", "Group", 1, 2, "OPEN", now, now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE group_id = $1 AND status IN ($2, $3)")).
		WithArgs("group-1", models.EnrollmentStatusActive, models.EnrollmentStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	group, err := repo.LockForUpdate(context.Background(), nil, "group-1")
	require.NoError(t, err)
	taken, err := repo.CountSeatsTaken(context.Background(), nil, "group-1")
	require.NoError(t, err)
	assert.Equal(t, group.MaxCapacity, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	now := time.Now()
	columns := append(append([]string{}, groupRowColumns...), "level_name", "level_base_price", "course_id", "course_code", "course_name", "previous_course_id")
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups g JOIN levels l ON l.id = g.level_id JOIN courses c ON c.id = l.course_id")).
		WithArgs("group-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("group-1", "level-1", "t1", nil, "G1", "Group", 1, 30, "OPEN", now, now, now, now, "Level 1", "350.00", "course-c", "ENG3", "English III", nil))

	detail, err := repo.FindDetailByID(context.Background(), "group-1")
	require.NoError(t, err)
	assert.True(t, detail.LevelBasePrice.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, "English III", detail.Course().Name)
	assert.Nil(t, detail.Course().PreviousCourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
