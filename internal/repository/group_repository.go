package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

const groupColumns = `g.id, g.level_id, g.teacher_id, g.classroom_id, g.code, g.name, g.min_capacity, g.max_capacity,
        g.status, g.start_date, g.end_date, g.created_at, g.updated_at`

// GroupRepository persists scheduled offerings and their weekly slots.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindLatestAvailableByCourse returns the most recently started OPEN group of any level of the
// course that still has a free seat. ACTIVE and PENDING enrollments occupy seats.
func (r *GroupRepository) FindLatestAvailableByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups g JOIN levels l ON l.id = g.level_id
        WHERE l.course_id = $1 AND g.status = $2
        AND (g.max_capacity <= 0 OR (SELECT COUNT(*) FROM enrollments e
            WHERE e.group_id = g.id AND e.status IN ($3, $4)) < g.max_capacity)
        ORDER BY g.start_date DESC, g.created_at DESC LIMIT 1`, groupColumns)
	var group models.Group
	err := sqlx.GetContext(ctx, pickExec(r.db, exec), &group, query, courseID, models.GroupStatusOpen,
		models.EnrollmentStatusActive, models.EnrollmentStatusPending)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListCodesWithPrefix returns every group code starting with prefix.
func (r *GroupRepository) ListCodesWithPrefix(ctx context.Context, exec sqlx.ExtContext, prefix string) ([]string, error) {
	const query = `SELECT code FROM groups WHERE code LIKE $1 ORDER BY code`
	var codes []string
	if err := sqlx.SelectContext(ctx, pickExec(r.db, exec), &codes, query, escapeLike(prefix)+"%"); err != nil {
		return nil, fmt.Errorf("list group codes: %w", err)
	}
	return codes, nil
}

// FindDetailByID returns the group joined with its level and course.
func (r *GroupRepository) FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        l.name AS level_name, l.base_price AS level_base_price,
        c.id AS course_id, c.code AS course_code, c.name AS course_name, c.previous_course_id
        FROM groups g JOIN levels l ON l.id = g.level_id JOIN courses c ON c.id = l.course_id
        WHERE g.id = $1`, groupColumns)
	var detail models.GroupDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LockForUpdate loads the group row holding a row lock until the transaction ends.
func (r *GroupRepository) LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups g WHERE g.id = $1 FOR UPDATE`, groupColumns)
	var group models.Group
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// CountSeatsTaken counts enrollments occupying a seat in the group.
func (r *GroupRepository) CountSeatsTaken(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE group_id = $1 AND status IN ($2, $3)`
	var count int
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &count, query, groupID, models.EnrollmentStatusActive, models.EnrollmentStatusPending); err != nil {
		return 0, fmt.Errorf("count group seats: %w", err)
	}
	return count, nil
}

// Create inserts the group and its schedule slots. Group codes are unique.
func (r *GroupRepository) Create(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	target := pickExec(r.db, exec)

	const query = `INSERT INTO groups (id, level_id, teacher_id, classroom_id, code, name, min_capacity, max_capacity, status, start_date, end_date, created_at, updated_at)
        VALUES (:id, :level_id, :teacher_id, :classroom_id, :code, :name, :min_capacity, :max_capacity, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	const slotQuery = `INSERT INTO group_schedules (id, group_id, day_of_week, start_time, end_time)
        VALUES (:id, :group_id, :day_of_week, :start_time, :end_time)`
	for i := range group.Schedules {
		slot := &group.Schedules[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.GroupID = group.ID
		if _, err := sqlx.NamedExecContext(ctx, target, slotQuery, slot); err != nil {
			return fmt.Errorf("create group schedule: %w", err)
		}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}
