package handlers

import (
	"net/http"

	"github.com/playtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Subscriptions  SubscriptionStore
	Videos         VideoStore
	Media          MediaStore
	Verifier       middleware.AccessVerifier
	AuthLimiter    RateLimiter
	MaxUploadBytes int64
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Protected
// routes are wrapped by the auth guard so handlers always see an
// authenticated user on the context.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := NewHealthHandler()
	authH := AuthHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Limiter:        deps.AuthLimiter,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	users := UserHandler{
		Users:          deps.Users,
		Media:          deps.Media,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	channels := ChannelHandler{
		Users:         deps.Users,
		Subscriptions: deps.Subscriptions,
		Videos:        deps.Videos,
	}

	guard := middleware.RequireAuth(deps.Verifier, deps.Users)

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", authH.Register)
	mux.HandleFunc("/api/v1/users/login", authH.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", authH.Refresh)

	mux.Handle("/api/v1/users/logout", guard(http.HandlerFunc(authH.Logout)))
	mux.Handle("/api/v1/users/getuser", guard(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("/api/v1/users/change-password", guard(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("/api/v1/users/update-details", guard(http.HandlerFunc(users.UpdateDetails)))
	mux.Handle("/api/v1/users/update-avatar", guard(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("/api/v1/users/update-coverimage", guard(http.HandlerFunc(users.UpdateCoverImage)))
	mux.Handle("/api/v1/users/history", guard(http.HandlerFunc(channels.History)))
	mux.Handle("/api/v1/users/channel/{username}", guard(http.HandlerFunc(channels.Profile)))
	mux.Handle("/api/v1/users/channel/{username}/subscribe", guard(http.HandlerFunc(channels.ToggleSubscription)))
	mux.Handle("/api/v1/videos/{id}/view", guard(http.HandlerFunc(channels.RecordView)))
}
