package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/models"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

type teacherPoolReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindFirstActive(ctx context.Context) (*models.Teacher, error)
}

// TeacherPool selects the teacher assigned to automatically created groups.
type TeacherPool struct {
	teachers      teacherPoolReader
	poolTeacherID string
	logger        *zap.Logger
}

// NewTeacherPool constructs a TeacherPool. poolTeacherID may be empty.
func NewTeacherPool(teachers teacherPoolReader, poolTeacherID string, logger *zap.Logger) *TeacherPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherPool{teachers: teachers, poolTeacherID: poolTeacherID, logger: logger}
}

// Pick returns the designated pool teacher when usable, otherwise the earliest registered active teacher.
func (p *TeacherPool) Pick(ctx context.Context) (*models.Teacher, error) {
	if p.poolTeacherID != "" {
		teacher, err := p.teachers.FindByID(ctx, p.poolTeacherID)
		switch {
		case err == nil && teacher.Active:
			return teacher, nil
		case err == nil:
			p.logger.Warn("pool teacher inactive, falling back", zap.String("teacher_id", p.poolTeacherID))
		case errors.Is(err, sql.ErrNoRows):
			p.logger.Warn("pool teacher not found, falling back", zap.String("teacher_id", p.poolTeacherID))
		default:
			return nil, appErrors.Internal(err, "failed to load pool teacher")
		}
	}

	teacher, err := p.teachers.FindFirstActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoTeacherAvailable, "")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}
