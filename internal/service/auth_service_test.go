package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seapay/config"
	"seapay/pkg/apperror"
	"seapay/pkg/logger"
)

func newAuthFixture(t *testing.T, password string) *AuthServiceImpl {
	t.Helper()
	hashSvc := NewArgon2HashService()
	hash, err := hashSvc.Hash(password)
	require.NoError(t, err)

	tokenSvc := NewJWTTokenService("test-secret-0123456789", time.Hour, "seapay")
	return NewAuthService(config.AuthConfig{
		OperatorUsername:     "operator",
		OperatorPasswordHash: hash,
	}, hashSvc, tokenSvc, logger.NewWithWriter("error", io.Discard))
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthFixture(t, "correct horse battery staple")

	token, expiresAt, err := svc.Login(context.Background(), "operator", "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthFixture(t, "correct horse battery staple")

	_, _, err := svc.Login(context.Background(), "operator", "guess")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestLogin_WrongUsername(t *testing.T) {
	svc := newAuthFixture(t, "correct horse battery staple")

	_, _, err := svc.Login(context.Background(), "admin", "correct horse battery staple")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestLogin_DisabledWithoutHash(t *testing.T) {
	tokenSvc := NewJWTTokenService("test-secret-0123456789", time.Hour, "seapay")
	svc := NewAuthService(config.AuthConfig{OperatorUsername: "operator"},
		NewArgon2HashService(), tokenSvc, logger.NewWithWriter("error", io.Discard))

	_, _, err := svc.Login(context.Background(), "operator", "anything")
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_001", appErr.Code)
}
