package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/wellness-directory/internal/apperror"
)

// SecretHeader carries the raw admin secret for callers without a session.
const SecretHeader = "X-Admin-Password"

// Authorizer decides whether a presented credential belongs to a moderator.
// Either argument may be empty. Errors wrap apperror.ErrUnauthorized, or
// apperror.ErrMisconfigured when no admin secret is set.
type Authorizer interface {
	Authorize(ctx context.Context, token, secret string) error
}

// RequireModerator rejects requests without a valid moderator credential
// before they reach the handler.
func RequireModerator(a Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			secret := r.Header.Get(SecretHeader)

			if err := a.Authorize(r.Context(), token, secret); err != nil {
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	body := map[string]string{"error": "unauthorized", "message": "valid moderator credential required"}
	if errors.Is(err, apperror.ErrMisconfigured) {
		status = http.StatusInternalServerError
		body = map[string]string{"error": "misconfigured", "message": "admin access is not configured"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
