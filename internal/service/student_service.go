package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/internal/dto"
	"github.com/noah-isme/academy-adp-api/internal/models"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	SoftDelete(ctx context.Context, id string) error
}

// StudentService handles student onboarding and lookups.
type StudentService struct {
	repo      studentRepository
	users     userAccountStore
	issuer    credentialGenerator
	tx        txProvider
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, users userAccountStore, issuer credentialGenerator, tx txProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, issuer: issuer, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns paginated students.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	return student, nil
}

// Create registers a student together with its login user.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*dto.StudentCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid student payload")
	}
	birthDate, err := parseOptionalDate(req.BirthDate, "birthDate")
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		FirstName:       req.FirstName,
		PaternalSurname: req.PaternalSurname,
		MaternalSurname: req.MaternalSurname,
		DocumentType:    req.DocumentType,
		DocumentNumber:  req.DocumentNumber,
		BirthDate:       birthDate,
		SchoolID:        req.SchoolID,
		Status:          models.StudentStatusActive,
	}
	user, creds, err := newAccount(ctx, s.users, s.issuer, req.Email, req.FirstName, req.PaternalSurname, student.FullName(), models.RoleStudent)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, user, student); err != nil {
		return nil, err
	}
	s.invalidateEligibility(ctx)

	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.String("user_id", user.ID), zap.Object("credentials", creds))
	return &dto.StudentCreated{
		Student:     student,
		Credentials: &dto.IssuedCredentials{Username: creds.Username, Password: creds.PlainPassword},
	}, nil
}

func (s *StudentService) persist(ctx context.Context, user *models.User, student *models.Student) (err error) {
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

	if err = s.users.Create(ctx, tx, user); err != nil {
		return onboardingError(err, "failed to create user")
	}
	student.UserID = user.ID
	if err = s.repo.Create(ctx, tx, student); err != nil {
		return onboardingError(err, "failed to create student")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Persistence(err, "failed to commit student")
	}
	return nil
}

// SoftDelete hides a student from listings. Existing enrollments are kept.
func (s *StudentService) SoftDelete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Persistence(err, "failed to delete student")
	}
	s.invalidateEligibility(ctx)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

func (s *StudentService) invalidateEligibility(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eligibilityCachePattern); err != nil {
		s.logger.Warn("invalidate eligibility cache failed", zap.Error(err))
	}
}
