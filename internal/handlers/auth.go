package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/logging"
	"github.com/playtube/backend/internal/middleware"
	"github.com/playtube/backend/internal/models"
	"github.com/playtube/backend/internal/repositories"
)

const defaultMaxUploadBytes = 8 << 20

// RefreshTokenCookie names the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// AuthHandler implements registration and the session lifecycle endpoints.
type AuthHandler struct {
	Users          UserStore
	Sessions       SessionManager
	Media          MediaStore
	Limiter        RateLimiter
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /api/v1/users/register requests: multipart form with
// the profile fields, a required avatar file, and an optional cover image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many registration attempts", nil)
		return
	}

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart request body", nil)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := strings.TrimSpace(r.FormValue("password"))
	fullName := strings.TrimSpace(r.FormValue("fullName"))

	if username == "" || email == "" || password == "" || fullName == "" {
		logger.Warn("register missing required fields", "username", username, "email", email)
		respondJSON(ctx, w, http.StatusBadRequest, "all fields are required", nil)
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("register invalid email", "email", email, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid email address", nil)
		return
	}

	if _, err := h.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		logger.Warn("register existing account", "username", username, "email", email)
		respondJSON(ctx, w, http.StatusConflict, "user already exists", nil)
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("register user lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts", nil)
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		logger.Warn("register missing avatar", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "avatar is required", nil)
		return
	}
	defer avatarFile.Close()

	avatarURL, err := h.Media.Save(ctx, "avatars", avatarHeader.Filename, avatarFile)
	if err != nil || avatarURL == "" {
		logger.Error("register avatar upload failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "avatar upload failed", nil)
		return
	}

	// Cover image is optional and a failed upload is tolerated: the account
	// is still created with an empty cover URL.
	coverURL := ""
	if coverFile, coverHeader, err := r.FormFile("coverImage"); err == nil {
		url, err := h.Media.Save(ctx, "covers", coverHeader.Filename, coverFile)
		if err != nil {
			logger.Warn("register cover image upload failed", "error", err)
		} else {
			coverURL = url
		}
		coverFile.Close()
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to secure password", nil)
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   strings.ToLower(username),
		Email:      email,
		FullName:   fullName,
		Password:   hashed,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", user.Username)
			respondJSON(ctx, w, http.StatusConflict, "user already exists", nil)
			return
		}
		logger.Error("register failed to create user", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to create account", nil)
		return
	}

	created, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		logger.Error("register read-back failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "user registration could not be confirmed", nil)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "user registered successfully", created.Public())
}

// Login handles POST /api/v1/users/login requests. Accounts are looked up by
// username or email; either identifier works.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many login attempts", nil)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if (req.Username == "" && req.Email == "") || strings.TrimSpace(req.Password) == "" {
		logger.Warn("login missing credentials")
		respondJSON(ctx, w, http.StatusBadRequest, "username or email and password are required", nil)
		return
	}

	user, err := h.Users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login user not found", "username", req.Username, "email", req.Email)
			respondJSON(ctx, w, http.StatusNotFound, "user not found", nil)
			return
		}
		logger.Error("login user lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to verify credentials", nil)
		return
	}

	if err := auth.VerifyPassword(user.Password, req.Password); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to create session", nil)
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, "logged in successfully", loginResponse{
		User:   user.Public(),
		Tokens: tokens,
	})
}

// Logout handles POST /api/v1/users/logout requests. The auth guard supplies
// the caller's identity; the stored refresh token is cleared and both
// cookies are expired.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		logger.Error("failed to revoke session", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to end session", nil)
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, "logged out successfully", nil)
}

// Refresh handles POST /api/v1/users/refresh-token requests. The refresh
// token is read from the cookie first, falling back to the request body. On
// success a rotated pair is delivered both as cookies and in the payload.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondJSON(ctx, w, http.StatusTooManyRequests, "too many refresh attempts", nil)
		return
	}

	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	if presented == "" {
		logger.Warn("missing refresh token")
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenMismatch):
			logger.Warn("refresh token rejected", "error", err)
			respondJSON(ctx, w, http.StatusUnauthorized, "invalid or expired refresh token", nil)
		case errors.Is(err, repositories.ErrNotFound):
			logger.Warn("refresh token subject missing", "error", err)
			respondJSON(ctx, w, http.StatusNotFound, "user not found", nil)
		default:
			logger.Error("refresh failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, "unable to refresh session", nil)
		}
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, "session refreshed", tokens)
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User   models.PublicUser `json:"user"`
	Tokens models.TokenPair  `json:"tokens"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func setAuthCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
