package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/logging"
	"github.com/playtube/backend/internal/models"
)

// AccessTokenCookie names the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// AccessVerifier validates an access token and returns the embedded user id.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// UserLoader resolves a user id to its stored record.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// RequireAuth gates protected routes. It extracts the access token from the
// accessToken cookie or the Authorization header, validates it, loads the
// user it names, and attaches the sanitized record to the request context.
// Any failure short-circuits with 401 before the wrapped handler runs.
func RequireAuth(verifier AccessVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := bearerToken(r)
			if token == "" {
				logger.Warn("missing access token", "path", r.URL.Path)
				unauthorized(w, "unauthorized request")
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				logger.Warn("access token rejected", "error", err)
				unauthorized(w, "invalid or expired access token")
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				logger.Warn("token subject not found", "userId", userID, "error", err)
				unauthorized(w, "user not found")
				return
			}

			// Strip credentials before the record travels with the request.
			user.Password = ""
			user.RefreshToken = ""

			next.ServeHTTP(w, r.WithContext(auth.WithUser(ctx, user)))
		})
	}
}

// bearerToken prefers the access token cookie over the Authorization header.
func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"data":       nil,
	})
}
