package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/repository"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

const (
	defaultLevelPrice       = 450
	defaultLevelWeeks       = 4
	defaultLevelHours       = 20
	defaultGroupMonths      = 6
	defaultGroupMinCapacity = 1
	defaultGroupMaxCapacity = 30
	defaultResolverAttempts = 3
)

var defaultWeeklySlots = []models.GroupSchedule{
	{DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "12:00"},
	{DayOfWeek: "WEDNESDAY", StartTime: "08:00", EndTime: "12:00"},
	{DayOfWeek: "FRIDAY", StartTime: "08:00", EndTime: "12:00"},
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type levelStore interface {
	FindFirstByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Level, error)
	Create(ctx context.Context, exec sqlx.ExtContext, level *models.Level) error
}

type groupStore interface {
	FindLatestAvailableByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (*models.Group, error)
	ListCodesWithPrefix(ctx context.Context, exec sqlx.ExtContext, prefix string) ([]string, error)
	Create(ctx context.Context, exec sqlx.ExtContext, group *models.Group) error
}

type teacherPicker interface {
	Pick(ctx context.Context) (*models.Teacher, error)
}

// StructureResolverConfig tunes default structure creation.
type StructureResolverConfig struct {
	DefaultLevelPrice decimal.Decimal
	MaxAttempts       int
}

// StructureResolver finds or creates the level and group a course enrollment attaches to.
type StructureResolver struct {
	courses  courseReader
	levels   levelStore
	groups   groupStore
	teachers teacherPicker
	tx       txProvider
	cfg      StructureResolverConfig
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewStructureResolver wires resolver dependencies.
func NewStructureResolver(courses courseReader, levels levelStore, groups groupStore, teachers teacherPicker, tx txProvider, cfg StructureResolverConfig, metrics *MetricsService, logger *zap.Logger) *StructureResolver {
	if cfg.DefaultLevelPrice.IsZero() {
		cfg.DefaultLevelPrice = decimal.NewFromInt(defaultLevelPrice)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultResolverAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructureResolver{
		courses:  courses,
		levels:   levels,
		groups:   groups,
		teachers: teachers,
		tx:       tx,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ResolveGroupForCourse returns the latest started OPEN group of the course with a free seat,
// creating a default level and group when none exists. Concurrent creators collide on unique constraints and the
// loser retries the lookup.
func (r *StructureResolver) ResolveGroupForCourse(ctx context.Context, courseID string) (string, error) {
	course, err := r.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return "", appErrors.Internal(err, "failed to load course")
	}

	for attempt := 1; ; attempt++ {
		groupID, err := r.resolveOnce(ctx, course)
		if err == nil {
			return groupID, nil
		}
		if repository.IsUniqueViolation(err) && attempt < r.cfg.MaxAttempts {
			r.logger.Info("default structure created concurrently, retrying lookup",
				zap.String("course_id", course.ID), zap.Int("attempt", attempt))
			continue
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return "", appErr
		}
		return "", appErrors.Persistence(err, "failed to resolve group for course")
	}
}

func (r *StructureResolver) resolveOnce(ctx context.Context, course *models.Course) (groupID string, err error) {
	if r.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := r.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := r.groups.FindLatestAvailableByCourse(ctx, tx, course.ID)
	if err == nil {
		if err = tx.Commit(); err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	level, err := ensureLevel(ctx, tx, r.levels, course, defaultLevelTemplate(course, r.cfg.DefaultLevelPrice, false))
	if err != nil {
		return "", err
	}

	teacher, err := r.teachers.Pick(ctx)
	if err != nil {
		return "", err
	}

	now := r.now().UTC()
	year := now.Year()
	code, err := freeGroupCode(ctx, tx, r.groups, fmt.Sprintf("%s-%d-AUTO", course.Code, year))
	if err != nil {
		return "", err
	}
	group := &models.Group{
		LevelID:     level.ID,
		TeacherID:   teacher.ID,
		Code:        code,
		Name:        fmt.Sprintf("%s %d", course.Name, year),
		MinCapacity: defaultGroupMinCapacity,
		MaxCapacity: defaultGroupMaxCapacity,
		Status:      models.GroupStatusOpen,
		StartDate:   now,
		EndDate:     now.AddDate(0, defaultGroupMonths, 0),
		Schedules:   weeklySlots(),
	}
	if err = r.groups.Create(ctx, tx, group); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	r.metrics.RecordGroupCreated("resolver")

	r.logger.Info("default group created",
		zap.String("course_id", course.ID),
		zap.String("group_id", group.ID),
		zap.String("code", group.Code),
		zap.String("teacher_id", teacher.ID))
	return group.ID, nil
}

type levelTemplate struct {
	price decimal.Decimal
	weeks int
	hours int
}

// defaultLevelTemplate derives the synthesized level; fromCourse takes duration and hours from the
// course when it defines them.
func defaultLevelTemplate(course *models.Course, price decimal.Decimal, fromCourse bool) levelTemplate {
	tmpl := levelTemplate{price: price, weeks: defaultLevelWeeks, hours: defaultLevelHours}
	if fromCourse {
		if course.DurationWeeks != nil && *course.DurationWeeks > 0 {
			tmpl.weeks = *course.DurationWeeks
		}
		if course.TotalHours != nil && *course.TotalHours > 0 {
			tmpl.hours = *course.TotalHours
		}
	}
	return tmpl
}

// ensureLevel returns the first level of the course by order_index, creating the default one when
// the course has none.
func ensureLevel(ctx context.Context, exec sqlx.ExtContext, levels levelStore, course *models.Course, tmpl levelTemplate) (*models.Level, error) {
	level, err := levels.FindFirstByCourse(ctx, exec, course.ID)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	level = &models.Level{
		CourseID:      course.ID,
		Code:          course.Code + "-L1",
		Name:          course.Name + " - Level 1",
		OrderIndex:    1,
		BasePrice:     tmpl.price,
		DurationWeeks: tmpl.weeks,
		TotalHours:    tmpl.hours,
		IsDefault:     true,
	}
	if err := levels.Create(ctx, exec, level); err != nil {
		return nil, err
	}
	return level, nil
}

func weeklySlots() []models.GroupSchedule {
	slots := make([]models.GroupSchedule, len(defaultWeeklySlots))
	copy(slots, defaultWeeklySlots)
	return slots
}

// freeGroupCode returns base when unused, otherwise base-N with the smallest free N >= 2.
func freeGroupCode(ctx context.Context, exec sqlx.ExtContext, groups groupStore, base string) (string, error) {
	codes, err := groups.ListCodesWithPrefix(ctx, exec, base)
	if err != nil {
		return "", err
	}
	return nextGroupCode(base, codes), nil
}

func nextGroupCode(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, code := range taken {
		used[code] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
