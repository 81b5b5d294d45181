package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

type credentialCall struct {
	userID, username, hash string
	inTx                   bool
}

type mockCredentialWriter struct {
	calls []credentialCall
	err   error
}

func (m *mockCredentialWriter) UpdateCredentials(ctx context.Context, exec sqlx.ExtContext, id, username, passwordHash string) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, credentialCall{userID: id, username: username, hash: passwordHash, inTx: exec != nil})
	return nil
}

func TestCredentialIssuerIssueFormat(t *testing.T) {
	issuer := NewCredentialIssuer(&mockCredentialWriter{}, bcrypt.MinCost, nil)

	creds, err := issuer.Issue("juan", "de la Cruz")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^JDELACRUZ\d{3}$`), creds.Username)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{8}$`), creds.PlainPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(creds.PlainPassword)))
	assert.NotContains(t, creds.PasswordHash, creds.PlainPassword)
}

func TestCredentialIssuerIssueVaries(t *testing.T) {
	issuer := NewCredentialIssuer(&mockCredentialWriter{}, bcrypt.MinCost, nil)
	first, err := issuer.Issue("Ana", "Lopez")
	require.NoError(t, err)
	second, err := issuer.Issue("Ana", "Lopez")
	require.NoError(t, err)
	assert.NotEqual(t, first.PlainPassword, second.PlainPassword)
	assert.NotEqual(t, first.PasswordHash, second.PasswordHash)
}

func TestCredentialIssuerIssueRandomFailure(t *testing.T) {
	issuer := NewCredentialIssuer(&mockCredentialWriter{}, bcrypt.MinCost, nil)
	issuer.random = bytes.NewReader(nil)

	_, err := issuer.Issue("Ana", "Lopez")
	require.Error(t, err)
}

func TestCredentialsNeverPrintPassword(t *testing.T) {
	creds := Credentials{Username: "ALOPEZ123", PlainPassword: "s3cretPw", PasswordHash: "$2a$hash"}
	assert.NotContains(t, creds.String(), "s3cretPw")
	assert.NotContains(t, fmt.Sprintf("%v", creds), "s3cretPw")

	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).Info("issued", zap.Any("credentials", creds))
	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, fmt.Sprint(logs.All()[0].ContextMap()), "s3cretPw")
	assert.NotContains(t, fmt.Sprint(logs.All()[0].ContextMap()), "$2a$hash")
}

func TestReissueCredentialsWritesUsernameAndHash(t *testing.T) {
	writer := &mockCredentialWriter{}
	core, logs := observer.New(zap.InfoLevel)
	issuer := NewCredentialIssuer(writer, bcrypt.MinCost, zap.New(core))

	creds, err := issuer.Issue("Ana", "Lopez")
	require.NoError(t, err)
	require.NoError(t, issuer.ReissueCredentials(context.Background(), nil, "user-1", creds))

	require.Len(t, writer.calls, 1)
	assert.Equal(t, "user-1", writer.calls[0].userID)
	assert.Equal(t, creds.Username, writer.calls[0].username)
	assert.Equal(t, creds.PasswordHash, writer.calls[0].hash)
	for _, entry := range logs.All() {
		assert.NotContains(t, fmt.Sprint(entry.ContextMap()), creds.PlainPassword)
	}
}

func TestReissueCredentialsPropagatesError(t *testing.T) {
	writer := &mockCredentialWriter{err: errors.New("db down")}
	issuer := NewCredentialIssuer(writer, bcrypt.MinCost, nil)
	err := issuer.ReissueCredentials(context.Background(), nil, "user-1", &Credentials{Username: "X"})
	require.Error(t, err)
	require.Error(t, issuer.ReissueCredentials(context.Background(), nil, "user-1", nil))
}
