package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLength   = 8
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	usernameSuffixes = 1000
)

// Credentials is a freshly issued login pair. PlainPassword is shown to the caller once.
type Credentials struct {
	Username      string `json:"username"`
	PlainPassword string `json:"-"`
	PasswordHash  string `json:"-"`
}

// String redacts the secret parts.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %s, Password: [REDACTED]}", c.Username)
}

// MarshalLogObject keeps secrets out of structured logs.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("username", c.Username)
	return nil
}

type credentialWriter interface {
	UpdateCredentials(ctx context.Context, exec sqlx.ExtContext, id, username, passwordHash string) error
}

// CredentialIssuer generates login credentials and rotates them on a user.
type CredentialIssuer struct {
	users  credentialWriter
	cost   int
	random io.Reader
	logger *zap.Logger
}

// NewCredentialIssuer constructs a CredentialIssuer hashing with the given bcrypt cost.
func NewCredentialIssuer(users credentialWriter, cost int, logger *zap.Logger) *CredentialIssuer {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialIssuer{users: users, cost: cost, random: rand.Reader, logger: logger}
}

// Issue builds username = initial + surname + three random digits and a random 8 character password.
func (i *CredentialIssuer) Issue(firstName, paternalSurname string) (*Credentials, error) {
	suffix, err := i.randomInt(usernameSuffixes)
	if err != nil {
		return nil, fmt.Errorf("generate username suffix: %w", err)
	}
	password, err := i.randomPassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), i.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &Credentials{
		Username:      fmt.Sprintf("%s%s%03d", initial(firstName), normalizeSurname(paternalSurname), suffix),
		PlainPassword: password,
		PasswordHash:  string(hash),
	}, nil
}

// ReissueCredentials overwrites the stored username and hash of userID.
func (i *CredentialIssuer) ReissueCredentials(ctx context.Context, exec sqlx.ExtContext, userID string, creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are required")
	}
	if err := i.users.UpdateCredentials(ctx, exec, userID, creds.Username, creds.PasswordHash); err != nil {
		return err
	}
	i.logger.Info("credentials reissued", zap.String("user_id", userID), zap.Object("credentials", creds))
	return nil
}

func (i *CredentialIssuer) randomInt(max int64) (int64, error) {
	n, err := rand.Int(i.random, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

func (i *CredentialIssuer) randomPassword() (string, error) {
	var b strings.Builder
	b.Grow(passwordLength)
	for n := 0; n < passwordLength; n++ {
		idx, err := i.randomInt(int64(len(passwordAlphabet)))
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx])
	}
	return b.String(), nil
}

func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return string(unicode.ToUpper(r))
	}
	return ""
}

func normalizeSurname(surname string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, surname))
}
