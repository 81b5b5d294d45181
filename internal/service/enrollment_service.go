package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/dto"
	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/repository"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type agreementReader interface {
	FindBySchoolID(ctx context.Context, schoolID string) (*models.Agreement, error)
}

type groupResolver interface {
	ResolveGroupForCourse(ctx context.Context, courseID string) (string, error)
}

type enrollmentGroupReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.GroupDetail, error)
	LockForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error)
	CountSeatsTaken(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error)
}

type prerequisiteVerifier interface {
	IsSatisfied(ctx context.Context, studentID string, course *models.Course) (bool, error)
}

type credentialRotator interface {
	Issue(firstName, paternalSurname string) (*Credentials, error)
	ReissueCredentials(ctx context.Context, exec sqlx.ExtContext, userID string, creds *Credentials) error
}

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	CountActiveByStudent(ctx context.Context, studentID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type notificationPublisher interface {
	Publish(ctx context.Context, notification Notification) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// EnrollmentServiceConfig tunes the single enrollment flow.
type EnrollmentServiceConfig struct {
	RotateOnReenroll bool
}

// EnrollmentService orchestrates single enrollments and exposes enrollment read paths.
type EnrollmentService struct {
	students      studentReader
	agreements    agreementReader
	courses       courseReader
	groups        enrollmentGroupReader
	enrollments   enrollmentStore
	resolver      groupResolver
	prerequisites prerequisiteVerifier
	pricing       *PricingCalculator
	credentials   credentialRotator
	tx            txProvider
	notifier      notificationPublisher
	cache         cacheInvalidator
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	cfg           EnrollmentServiceConfig
	now           func() time.Time
}

// EnrollmentServiceDeps groups collaborators of EnrollmentService.
type EnrollmentServiceDeps struct {
	Students      studentReader
	Agreements    agreementReader
	Courses       courseReader
	Groups        enrollmentGroupReader
	Enrollments   enrollmentStore
	Resolver      groupResolver
	Prerequisites prerequisiteVerifier
	Pricing       *PricingCalculator
	Credentials   credentialRotator
	Tx            txProvider
	Notifier      notificationPublisher
	Cache         cacheInvalidator
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(deps EnrollmentServiceDeps, cfg EnrollmentServiceConfig) *EnrollmentService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Pricing == nil {
		deps.Pricing = NewPricingCalculator()
	}
	return &EnrollmentService{
		students:      deps.Students,
		agreements:    deps.Agreements,
		courses:       deps.Courses,
		groups:        deps.Groups,
		enrollments:   deps.Enrollments,
		resolver:      deps.Resolver,
		prerequisites: deps.Prerequisites,
		pricing:       deps.Pricing,
		credentials:   deps.Credentials,
		tx:            deps.Tx,
		notifier:      deps.Notifier,
		cache:         deps.Cache,
		metrics:       deps.Metrics,
		validator:     deps.Validator,
		logger:        deps.Logger,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Create enrolls a student into a group, resolving the group from the course when needed. The
// credential rotation and the enrollment insert commit together.
func (s *EnrollmentService) Create(ctx context.Context, req dto.CreateEnrollmentRequest, actorID string) (*dto.EnrollmentCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "studentId is required")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	agreement, err := loadAgreement(ctx, s.agreements, student)
	if err != nil {
		return nil, err
	}

	groupID := derefString(req.GroupID)
	prerequisiteChecked := false
	if groupID == "" {
		courseID := derefString(req.CourseID)
		if courseID == "" {
			return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "either groupId or courseId is required")
		}
		// Prerequisite runs before the resolver, which may create a level and group.
		course, err := s.loadCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if err := s.checkPrerequisite(ctx, student.ID, course); err != nil {
			return nil, err
		}
		prerequisiteChecked = true
		if groupID, err = s.resolver.ResolveGroupForCourse(ctx, courseID); err != nil {
			return nil, err
		}
	}

	group, err := s.groups.FindDetailByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Internal(err, "failed to load group")
	}

	if !prerequisiteChecked {
		if err := s.checkPrerequisite(ctx, student.ID, group.Course()); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	quote := s.pricing.ComputePrice(group.LevelBasePrice, agreement, now)

	var creds *Credentials
	rotate, err := s.shouldRotate(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if rotate {
		if creds, err = s.credentials.Issue(student.FirstName, student.PaternalSurname); err != nil {
			return nil, appErrors.Internal(err, "failed to issue credentials")
		}
	}

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
		CreatedByID:        optionalString(actorID),
	}
	if err := s.persist(ctx, student, enrollment, creds); err != nil {
		return nil, err
	}

	detail, err := s.enrollments.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("group_id", group.ID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("agreed_price", quote.FinalPrice.StringFixed(pricePrecision)),
		zap.Bool("credentials_rotated", creds != nil))
	s.afterCommit(ctx, Notification{
		Type:         NotificationEnrollmentCreated,
		StudentID:    student.ID,
		EnrollmentID: enrollment.ID,
		GroupID:      group.ID,
	})
	s.metrics.RecordEnrollment(quote.AgreementID != nil)

	result := &dto.EnrollmentCreated{Enrollment: detail}
	if creds != nil {
		result.Credentials = &dto.IssuedCredentials{Username: creds.Username, Password: creds.PlainPassword}
	}
	return result, nil
}

func (s *EnrollmentService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if s.courses == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "course reader missing")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *EnrollmentService) checkPrerequisite(ctx context.Context, studentID string, course *models.Course) error {
	ok, err := s.prerequisites.IsSatisfied(ctx, studentID, course)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrPrerequisiteNotMet,
			fmt.Sprintf("student has not passed the prerequisite of course %s", course.Name))
	}
	return nil
}

func (s *EnrollmentService) persist(ctx context.Context, student *models.Student, enrollment *models.Enrollment, creds *Credentials) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Persistence(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	group, err := s.groups.LockForUpdate(ctx, tx, enrollment.GroupID)
	if err != nil {
		return appErrors.Persistence(err, "failed to lock group")
	}
	taken, err := s.groups.CountSeatsTaken(ctx, tx, enrollment.GroupID)
	if err != nil {
		return appErrors.Persistence(err, "failed to count group seats")
	}
	if group.MaxCapacity > 0 && taken >= group.MaxCapacity {
		return appErrors.Clone(appErrors.ErrGroupFull, fmt.Sprintf("group %s has no free seats", group.Code))
	}

	if creds != nil {
		if err = s.credentials.ReissueCredentials(ctx, tx, student.UserID, creds); err != nil {
			return appErrors.Persistence(err, "failed to update student credentials")
		}
	}
	if err = s.enrollments.Create(ctx, tx, enrollment); err != nil {
		return appErrors.Persistence(err, "failed to create enrollment")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Persistence(err, "failed to commit enrollment")
	}
	return nil
}

func (s *EnrollmentService) shouldRotate(ctx context.Context, studentID string) (bool, error) {
	if s.cfg.RotateOnReenroll {
		return true, nil
	}
	active, err := s.enrollments.CountActiveByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Internal(err, "failed to count active enrollments")
	}
	return active == 0, nil
}

// afterCommit runs best effort side effects; failures never change the result.
func (s *EnrollmentService) afterCommit(ctx context.Context, notification Notification) {
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, notification); err != nil {
			s.logger.Warn("publish notification failed", zap.String("type", notification.Type), zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eligibilityCachePattern); err != nil {
			s.logger.Warn("invalidate eligibility cache failed", zap.Error(err))
		}
	}
}

// Get returns an enrollment with its student, group, level and course.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	return detail, nil
}

// List returns paginated enrollments.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidRequest, "invalid enrollment status")
	}
	items, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return items, newPagination(filter.Page, filter.PageSize, total), nil
}

// UpdateStatus moves an enrollment to another lifecycle state. The price snapshot is untouched.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid enrollment status")
	}
	if err := s.enrollments.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Persistence(err, "failed to update enrollment status")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eligibilityCachePattern); err != nil {
			s.logger.Warn("invalidate eligibility cache failed", zap.Error(err))
		}
	}
	s.logger.Info("enrollment status changed", zap.String("enrollment_id", id), zap.String("status", string(req.Status)))
	return s.Get(ctx, id)
}

func loadAgreement(ctx context.Context, agreements agreementReader, student *models.Student) (*models.Agreement, error) {
	if student.SchoolID == nil || *student.SchoolID == "" {
		return nil, nil
	}
	agreement, err := agreements.FindBySchoolID(ctx, *student.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to load school agreement")
	}
	return agreement, nil
}

func newPagination(page, size, total int) *models.Pagination {
	page, size = repository.NormalizePage(page, size)
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
