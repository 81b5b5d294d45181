package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-adp-api/internal/models"
	"github.com/noah-isme/academy-adp-api/internal/repository"
	appErrors "github.com/noah-isme/academy-adp-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type userAccountStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
}

type credentialGenerator interface {
	Issue(firstName, paternalSurname string) (*Credentials, error)
}

// newAccount checks the email is free and prepares a user with fresh credentials. The user is
// not persisted.
func newAccount(ctx context.Context, users userAccountStore, issuer credentialGenerator, email, firstName, surname, fullName string, role models.UserRole) (*models.User, *Credentials, error) {
	email = strings.TrimSpace(email)
	taken, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to check email")
	}
	if taken {
		return nil, nil, appErrors.Clone(appErrors.ErrDuplicateUser, "")
	}
	creds, err := issuer.Issue(firstName, surname)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to issue credentials")
	}
	user := &models.User{
		Username:     creds.Username,
		Email:        email,
		PasswordHash: creds.PasswordHash,
		FullName:     fullName,
		Role:         role,
		Active:       true,
	}
	return user, creds, nil
}

// parseOptionalDate parses YYYY-MM-DD; empty input yields nil.
func parseOptionalDate(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, field+" must use the YYYY-MM-DD format")
	}
	return &parsed, nil
}

// onboardingError maps storage errors raised while creating a user and its profile.
func onboardingError(err error, message string) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrDuplicateUser, "")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Persistence(err, message)
}
