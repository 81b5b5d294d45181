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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, teacher *models.Teacher) error
	SoftDelete(ctx context.Context, id string) error
}

// TeacherService handles teacher onboarding.
type TeacherService struct {
	repo      teacherRepository
	users     userAccountStore
	issuer    credentialGenerator
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, users userAccountStore, issuer credentialGenerator, tx txProvider, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, issuer: issuer, tx: tx, validator: validate, logger: logger}
}

// List returns paginated teachers.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	return teachers, newPagination(filter.Page, filter.PageSize, total), nil
}

// Create registers a teacher together with its login user.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*dto.TeacherCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidRequest.Code, appErrors.ErrInvalidRequest.Status, "invalid teacher payload")
	}
	hireDate, err := parseOptionalDate(req.HireDate, "hireDate")
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		FirstName:       req.FirstName,
		PaternalSurname: req.PaternalSurname,
		MaternalSurname: req.MaternalSurname,
		HireDate:        hireDate,
		Specialty:       req.Specialty,
		Active:          true,
	}
	user, creds, err := newAccount(ctx, s.users, s.issuer, req.Email, req.FirstName, req.PaternalSurname, teacher.FullName(), models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, user, teacher); err != nil {
		return nil, err
	}

	s.logger.Info("teacher registered", zap.String("teacher_id", teacher.ID), zap.String("user_id", user.ID), zap.Object("credentials", creds))
	return &dto.TeacherCreated{
		Teacher:     teacher,
		Credentials: &dto.IssuedCredentials{Username: creds.Username, Password: creds.PlainPassword},
	}, nil
}

func (s *TeacherService) persist(ctx context.Context, user *models.User, teacher *models.Teacher) (err error) {
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
	teacher.UserID = user.ID
	if err = s.repo.Create(ctx, tx, teacher); err != nil {
		return onboardingError(err, "failed to create teacher")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Persistence(err, "failed to commit teacher")
	}
	return nil
}

// SoftDelete deactivates a teacher and hides it from listings. Groups keep their teacher reference.
func (s *TeacherService) SoftDelete(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Persistence(err, "failed to delete teacher")
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}
