package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wellness-directory/internal/apperror"
	"github.com/sakif/wellness-directory/internal/auth"
)

const testAdminSecret = "correct-horse-battery"

func newTestAuthService(t *testing.T, secret string) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-session-secret-32-chars!!", time.Minute)
	require.NoError(t, err)
	svc, err := NewAuthService(secret, tokens, auth.NewPasswordService(4), newTestLogger(t))
	require.NoError(t, err)
	return svc
}

func TestAuthLogin(t *testing.T) {
	svc := newTestAuthService(t, testAdminSecret)

	sess, err := svc.Login(context.Background(), testAdminSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	assert.NoError(t, svc.Authorize(context.Background(), sess.Token, ""))
}

func TestAuthLogin_Failures(t *testing.T) {
	svc := newTestAuthService(t, testAdminSecret)

	_, err := svc.Login(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(context.Background(), strings.Repeat("x", 100))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAuthUnconfigured(t *testing.T) {
	svc := newTestAuthService(t, "")

	assert.False(t, svc.Configured())

	_, err := svc.Login(context.Background(), "anything")
	assert.ErrorIs(t, err, apperror.ErrMisconfigured)
	assert.ErrorIs(t, svc.Authorize(context.Background(), "", "anything"), apperror.ErrMisconfigured)
}

func TestAuthorize(t *testing.T) {
	svc := newTestAuthService(t, testAdminSecret)
	sess, err := svc.Login(context.Background(), testAdminSecret)
	require.NoError(t, err)

	other, err := auth.NewTokenService("a-different-secret-entirely!!", time.Minute)
	require.NoError(t, err)
	foreign, _, err := other.Issue(auth.ModeratorSubject)
	require.NoError(t, err)

	tests := []struct {
		name          string
		token, secret string
		wantErr       error
	}{
		{"session token", sess.Token, "", nil},
		{"raw secret", "", testAdminSecret, nil},
		{"wrong secret", "", "nope", apperror.ErrUnauthorized},
		{"nothing", "", "", apperror.ErrUnauthorized},
		{"garbage token", "abc", "", apperror.ErrUnauthorized},
		{"foreign token", foreign, "", apperror.ErrUnauthorized},
		{"bad token does not fall back to secret", "abc", testAdminSecret, apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(context.Background(), tt.token, tt.secret)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAuthService_SecretTooLong(t *testing.T) {
	tokens, err := auth.NewTokenService("test-session-secret-32-chars!!", time.Minute)
	require.NoError(t, err)

	_, err = NewAuthService(strings.Repeat("s", 73), tokens, auth.NewPasswordService(4), newTestLogger(t))
	assert.Error(t, err)
}
