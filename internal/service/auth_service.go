package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/rs/zerolog"

	"seapay/config"
	"seapay/internal/core/ports"
	"seapay/pkg/apperror"
)

// AuthServiceImpl authenticates the configured operator account. There is
// a single operator credential; the hash lives in configuration, not in
// the database.
type AuthServiceImpl struct {
	cfg      config.AuthConfig
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(cfg config.AuthConfig, hashSvc ports.HashService, tokenSvc ports.TokenService, log zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		cfg:      cfg,
		hashSvc:  hashSvc,
		tokenSvc: tokenSvc,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

var _ ports.AuthService = (*AuthServiceImpl)(nil)

// Login verifies the operator credential and issues a session token.
// Username and password failures are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.cfg.OperatorPasswordHash == "" {
		s.log.Error().Msg("operator password hash not configured, login disabled")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.OperatorUsername)) == 1

	match, err := s.hashSvc.Verify(password, s.cfg.OperatorPasswordHash)
	if err != nil {
		s.log.Error().Err(err).Msg("password hash verification failed")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}
	if !usernameOK || !match {
		s.log.Warn().Str("username", username).Msg("failed login attempt")
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(err)
	}

	s.log.Info().Str("username", username).Msg("operator logged in")
	return token, expiresAt, nil
}
