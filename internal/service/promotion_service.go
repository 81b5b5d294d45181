package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/dto"
	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/repository"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

const (
	promotionGroupCapacity = 20
	promotionNotes         = "Automatic Promotion"
)

type promotionGroupStore interface {
	groupStore
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error)
	CountSeatsTaken(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error)
}

type enrollmentCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
}

// PromotionServiceConfig tunes promotion group creation. DefaultLevelPrice prices a level
// synthesized for a course without levels.
type PromotionServiceConfig struct {
	GroupMonths       int
	MaxAttempts       int
	DefaultLevelPrice decimal.Decimal
}

// PromotionServiceDeps groups collaborators of PromotionService.
type PromotionServiceDeps struct {
	Courses     courseReader
	Levels      levelStore
	Groups      promotionGroupStore
	Teachers    teacherPicker
	Students    studentReader
	Agreements  agreementReader
	Enrollments enrollmentCreator
	Pricing     *PricingCalculator
	Tx          txProvider
	Notifier    notificationPublisher
	Cache       cacheInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// PromotionService moves a batch of students into a fresh group of the next course.
type PromotionService struct {
	deps PromotionServiceDeps
	cfg  PromotionServiceConfig
	now  func() time.Time
}

// NewPromotionService constructs a PromotionService.
func NewPromotionService(deps PromotionServiceDeps, cfg PromotionServiceConfig) *PromotionService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Pricing == nil {
		deps.Pricing = NewPricingCalculator()
	}
	if cfg.GroupMonths <= 0 {
		cfg.GroupMonths = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultResolverAttempts
	}
	if cfg.DefaultLevelPrice.IsZero() {
		cfg.DefaultLevelPrice = decimal.NewFromInt(defaultLevelPrice)
	}
	return &PromotionService{deps: deps, cfg: cfg, now: time.Now}
}

// Promote creates one group for the next course and enrolls each student in its own transaction.
// Group creation failures abort the run; per student failures are collected.
func (s *PromotionService) Promote(ctx context.Context, req dto.PromoteRequest, actorID string) (*dto.PromotionResult, error) {
	if err := s.deps.Validator.Struct(req); err != nil || req.StartDate.IsZero() {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "nextCourseId, startDate and studentIds are required")
	}

	course, err := s.deps.Courses.FindByID(ctx, req.NextCourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}

	group, err := s.createGroup(ctx, course, req.StartDate.Time)
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.RecordGroupCreated("promotion")

	result := &dto.PromotionResult{Group: group, Failures: []dto.PromotionFailure{}}
	seen := make(map[string]struct{}, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, dup := seen[studentID]; dup {
			result.Failures = append(result.Failures, dto.PromotionFailure{StudentID: studentID, Reason: "student listed more than once"})
			continue
		}
		seen[studentID] = struct{}{}

		if err := s.promoteStudent(ctx, studentID, course, group, actorID); err != nil {
			s.deps.Logger.Warn("student promotion failed",
				zap.String("student_id", studentID),
				zap.String("group_id", group.ID),
				zap.Error(err))
			result.Failures = append(result.Failures, dto.PromotionFailure{StudentID: studentID, Reason: failureReason(err)})
			continue
		}
		result.PromotedCount++
	}
	result.SkippedCount = len(result.Failures)

	s.deps.Logger.Info("promotion completed",
		zap.String("course_id", course.ID),
		zap.String("group_id", group.ID),
		zap.Int("promoted", result.PromotedCount),
		zap.Int("skipped", result.SkippedCount))
	s.deps.Metrics.RecordPromotion(result.PromotedCount, result.SkippedCount)
	s.afterCommit(ctx, Notification{
		Type:          NotificationPromotionCompleted,
		GroupID:       group.ID,
		PromotedCount: result.PromotedCount,
		SkippedCount:  result.SkippedCount,
	})
	return result, nil
}

func (s *PromotionService) createGroup(ctx context.Context, course *models.Course, startDate time.Time) (*models.Group, error) {
	for attempt := 1; ; attempt++ {
		group, err := s.createGroupOnce(ctx, course, startDate)
		if err == nil {
			return group, nil
		}
		if repository.IsUniqueViolation(err) && attempt < s.cfg.MaxAttempts {
			s.deps.Logger.Info("promotion group code taken, retrying",
				zap.String("course_id", course.ID), zap.Int("attempt", attempt))
			continue
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Persistence(err, "failed to create promotion group")
	}
}

func (s *PromotionService) createGroupOnce(ctx context.Context, course *models.Course, startDate time.Time) (group *models.Group, err error) {
	if s.deps.Tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.deps.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	level, err := ensureLevel(ctx, tx, s.deps.Levels, course, defaultLevelTemplate(course, s.cfg.DefaultLevelPrice, true))
	if err != nil {
		return nil, err
	}
	teacher, err := s.deps.Teachers.Pick(ctx)
	if err != nil {
		return nil, err
	}

	start := startDate.UTC()
	code, err := freeGroupCode(ctx, tx, s.deps.Groups, fmt.Sprintf("%s-%s-PROMO", course.Code, start.Format("20060102")))
	if err != nil {
		return nil, err
	}
	group = &models.Group{
		LevelID:     level.ID,
		TeacherID:   teacher.ID,
		Code:        code,
		Name:        "Auto-generated group — " + course.Name,
		MinCapacity: defaultGroupMinCapacity,
		MaxCapacity: promotionGroupCapacity,
		Status:      models.GroupStatusOpen,
		StartDate:   start,
		EndDate:     start.AddDate(0, s.cfg.GroupMonths, 0),
	}
	if err = s.deps.Groups.Create(ctx, tx, group); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	s.deps.Logger.Info("promotion group created",
		zap.String("course_id", course.ID),
		zap.String("group_id", group.ID),
		zap.String("code", group.Code),
		zap.String("teacher_id", teacher.ID))
	return group, nil
}

func (s *PromotionService) promoteStudent(ctx context.Context, studentID string, course *models.Course, group *models.Group, actorID string) (err error) {
	student, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to load student")
	}
	agreement, err := loadAgreement(ctx, s.deps.Agreements, student)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	quote := s.deps.Pricing.ComputePrice(course.BasePrice, agreement, now)
	notes := promotionNotes
	enrollment := &models.Enrollment{
		StudentID:          student.ID,
		GroupID:            group.ID,
		Status:             models.EnrollmentStatusActive,
		AgreedPrice:        quote.FinalPrice,
		DiscountPercentage: quote.DiscountPercentage,
		AgreementID:        quote.AgreementID,
		EnrollmentDate:     now,
		StartDate:          group.StartDate,
		EndDate:            group.EndDate,
		Notes:              &notes,
		CreatedByID:        optionalString(actorID),
	}

	tx, err := s.deps.Tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Persistence(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := s.deps.Groups.LockForUpdate(ctx, tx, group.ID)
	if err != nil {
		return appErrors.Persistence(err, "failed to lock group")
	}
	taken, err := s.deps.Groups.CountSeatsTaken(ctx, tx, group.ID)
	if err != nil {
		return appErrors.Persistence(err, "failed to count group seats")
	}
	if locked.MaxCapacity > 0 && taken >= locked.MaxCapacity {
		return appErrors.Clone(appErrors.ErrGroupFull, fmt.Sprintf("group %s has no free seats", locked.Code))
	}

	if err = s.deps.Enrollments.Create(ctx, tx, enrollment); err != nil {
		return appErrors.Persistence(err, "failed to create enrollment")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Persistence(err, "failed to commit enrollment")
	}
	return nil
}

func (s *PromotionService) afterCommit(ctx context.Context, notification Notification) {
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Publish(ctx, notification); err != nil {
			s.deps.Logger.Warn("publish notification failed", zap.String("type", notification.Type), zap.Error(err))
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx, eligibilityCachePattern); err != nil {
			s.deps.Logger.Warn("invalidate eligibility cache failed", zap.Error(err))
		}
	}
}

func failureReason(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
