package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/logging"
	"github.com/playtube/backend/internal/repositories"
)

// UserHandler implements the authenticated profile management endpoints.
// Every handler expects the auth guard to have attached the caller to the
// request context.
type UserHandler struct {
	Users          UserStore
	Media          MediaStore
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// CurrentUser handles GET /api/v1/users/getuser requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "current user fetched", user.Public())
}

// ChangePassword handles POST /api/v1/users/change-password requests. Both
// the old and the new password are required.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change-password payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "old and new password are required", nil)
		return
	}

	// Load the full record; the context user is sanitized and carries no
	// password hash.
	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		logger.Error("change-password user lookup failed", "error", err, "userId", caller.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load account", nil)
		return
	}

	if err := auth.VerifyPassword(user.Password, req.OldPassword); err != nil {
		logger.Warn("change-password old password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, "incorrect password", nil)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change-password failed to hash", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to secure password", nil)
		return
	}

	user.Password = hashed
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("change-password update failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to update password", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "password changed successfully", nil)
}

// UpdateDetails handles PATCH /api/v1/users/update-details requests: a
// partial update of full name, email, and password, confirmed by the current
// password.
func (h UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update-details payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if strings.TrimSpace(req.OldPassword) == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "current password is required", nil)
		return
	}

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		logger.Error("update-details user lookup failed", "error", err, "userId", caller.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load account", nil)
		return
	}

	if err := auth.VerifyPassword(user.Password, req.OldPassword); err != nil {
		logger.Warn("update-details password mismatch", "userId", user.ID)
		respondJSON(ctx, w, http.StatusUnauthorized, "incorrect password", nil)
		return
	}

	if fullName := strings.TrimSpace(req.FullName); fullName != "" {
		user.FullName = fullName
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, "invalid email address", nil)
			return
		}
		user.Email = email
	}
	if newPassword := strings.TrimSpace(req.NewPassword); newPassword != "" {
		hashed, err := auth.HashPassword(newPassword)
		if err != nil {
			logger.Error("update-details failed to hash", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, "failed to secure password", nil)
			return
		}
		user.Password = hashed
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, "email already in use", nil)
			return
		}
		logger.Error("update-details update failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to update account", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "account details updated", user.Public())
}

// UpdateAvatar handles PATCH /api/v1/users/update-avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars")
}

// UpdateCoverImage handles PATCH /api/v1/users/update-coverimage requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers")
}

// updateImage uploads a single replacement image and persists its URL on the
// caller's record.
func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, folder string) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	caller, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		logger.Warn("invalid image payload", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, "invalid multipart request body", nil)
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, field+" file is required", nil)
		return
	}
	defer file.Close()

	url, err := h.Media.Save(ctx, folder, header.Filename, file)
	if err != nil || url == "" {
		logger.Error("image upload failed", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, field+" upload failed", nil)
		return
	}

	user, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		logger.Error("image update user lookup failed", "error", err, "userId", caller.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load account", nil)
		return
	}

	switch field {
	case "avatar":
		user.Avatar = url
	default:
		user.CoverImage = url
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("image update failed", "field", field, "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "failed to update "+field, nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, field+" updated successfully", user.Public())
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateDetailsRequest struct {
	FullName    string `json:"newfullName"`
	Email       string `json:"newEmail"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
