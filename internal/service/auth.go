package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/auth"
)

// Session is what a successful moderator login returns.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService guards the moderation API. It holds only the bcrypt hash of
// the admin secret; the plaintext is dropped after construction.
type AuthService struct {
	secretHash string // empty when no admin secret is configured
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	logger     *slog.Logger
}

var _ auth.Authorizer = (*AuthService)(nil)

// NewAuthService hashes adminSecret once. An empty adminSecret is allowed
// and leaves the admin API answering ErrMisconfigured.
func NewAuthService(
	adminSecret string,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) (*AuthService, error) {
	s := &AuthService{
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
	if adminSecret == "" {
		return s, nil
	}

	hash, err := passwords.Hash(adminSecret)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing admin secret: %w", err)
	}
	s.secretHash = hash
	return s, nil
}

// Configured reports whether an admin secret is set.
func (s *AuthService) Configured() bool {
	return s.secretHash != ""
}

// Login exchanges the admin secret for a session token.
func (s *AuthService) Login(_ context.Context, password string) (*Session, error) {
	if !s.Configured() {
		return nil, apperror.Misconfigured("admin access is not configured")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}

	if err := s.verifySecret(password); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(auth.ModeratorSubject)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session: %w", err)
	}

	s.logger.Info("moderator session issued", slog.Time("expires_at", expiresAt))
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Authorize accepts a valid session token or, failing that, the raw admin
// secret. A token that is present but invalid is rejected outright rather
// than falling through to the secret.
func (s *AuthService) Authorize(_ context.Context, token, secret string) error {
	if !s.Configured() {
		return apperror.Misconfigured("admin access is not configured")
	}

	switch {
	case token != "":
		subject, err := s.tokens.Validate(token)
		if err != nil {
			s.logger.Debug("moderator token rejected", slog.String("error", err.Error()))
			return apperror.Unauthorized("invalid or expired session")
		}
		if subject != auth.ModeratorSubject {
			return apperror.Unauthorized("invalid session subject")
		}
		return nil
	case secret != "":
		return s.verifySecret(secret)
	default:
		return apperror.Unauthorized("moderator credential required")
	}
}

func (s *AuthService) verifySecret(candidate string) error {
	// The stored secret is at most 72 bytes, so anything longer cannot match.
	if len(candidate) > 72 {
		return apperror.Unauthorized("Invalid password")
	}

	err := s.passwords.Verify(s.secretHash, candidate)
	if err == nil {
		return nil
	}
	if errors.Is(err, auth.ErrMismatch) {
		s.logger.Warn("moderator credential rejected")
		return apperror.Unauthorized("Invalid password")
	}
	return fmt.Errorf("service/auth: verifying secret: %w", err)
}
