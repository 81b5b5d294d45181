package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

// LevelRepository persists course levels.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository constructs a LevelRepository.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// FindFirstByCourse returns the lowest ordered level of a course.
func (r *LevelRepository) FindFirstByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Level, error) {
	const query = `SELECT id, course_id, code, name, order_index, base_price, duration_weeks, total_hours, is_default, created_at, updated_at
        FROM levels WHERE course_id = $1 ORDER BY order_index, created_at LIMIT 1`
	var level models.Level
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &level, query, courseID); err != nil {
		return nil, err
	}
	return &level, nil
}

// Create inserts a level. A second default level for the same course violates levels_default_per_course.
func (r *LevelRepository) Create(ctx context.Context, exec sqlx.ExtContext, level *models.Level) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if level.CreatedAt.IsZero() {
		level.CreatedAt = now
	}
	level.UpdatedAt = now

	const query = `INSERT INTO levels (id, course_id, code, name, order_index, base_price, duration_weeks, total_hours, is_default, created_at, updated_at)
        VALUES (:id, :course_id, :code, :name, :order_index, :base_price, :duration_weeks, :total_hours, :is_default, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, level); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}
