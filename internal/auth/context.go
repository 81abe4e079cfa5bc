package auth

import (
	"context"

	"github.com/playtube/backend/internal/models"
)

type ctxKey string

const userKey ctxKey = "authenticatedUser"

// WithUser stores the authenticated user on the context. The auth guard
// calls this after resolving the access token; the stored record is already
// sanitized (no password hash, no refresh token).
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user set by the auth guard.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
