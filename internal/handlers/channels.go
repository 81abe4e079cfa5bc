package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/logging"
	"github.com/playtube/backend/internal/models"
	"github.com/playtube/backend/internal/repositories"
)

// ChannelHandler implements the read-model endpoints: channel profile and
// watch history, plus the subscribe toggle and view recording that feed
// them.
type ChannelHandler struct {
	Users         UserStore
	Subscriptions SubscriptionStore
	Videos        VideoStore
	NowFunc       func() time.Time
}

// Profile handles GET /api/v1/users/channel/{username} requests.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "channel_profile")
	defer span.End()

	viewer, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "username is required", nil)
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, "channel not found", nil)
			return
		}
		logging.FromContext(ctx).Error("channel profile query failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load channel profile", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "channel profile fetched", profile)
}

// History handles GET /api/v1/users/history requests, returning the caller's
// watched videos in watch order with the owner projection attached.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "watch_history")
	defer span.End()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	history, err := h.Videos.WatchHistory(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history query failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load watch history", nil)
		return
	}

	if history == nil {
		history = []models.WatchedVideo{}
	}

	respondJSON(ctx, w, http.StatusOK, "watch history fetched", history)
}

// ToggleSubscription handles POST /api/v1/users/channel/{username}/subscribe
// requests, flipping the caller's follow edge for the channel.
func (h ChannelHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	subscriber, ok := auth.UserFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, "unauthorized request", nil)
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "username is required", nil)
		return
	}

	channel, err := h.Users.FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, "channel not found", nil)
			return
		}
		logger.Error("subscription channel lookup failed", "error", err, "username", username)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to load channel", nil)
		return
	}

	if channel.ID == subscriber.ID {
		respondJSON(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel", nil)
		return
	}

	subscribed, err := h.Subscriptions.Exists(ctx, channel.ID, subscriber.ID)
	if err != nil {
		logger.Error("subscription lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to update subscription", nil)
		return
	}

	if subscribed {
		if err := h.Subscriptions.Delete(ctx, channel.ID, subscriber.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("unsubscribe failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, "unable to update subscription", nil)
			return
		}
		respondJSON(ctx, w, http.StatusOK, "unsubscribed", subscriptionState{Subscribed: false})
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    channel.ID,
		SubscriberID: subscriber.ID,
		CreatedAt:    h.now(),
	}
	if err := h.Subscriptions.Create(ctx, sub); err != nil && !errors.Is(err, repositories.ErrConflict) {
		logger.Error("subscribe failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to update subscription", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "subscribed", subscriptionState{Subscribed: true})
}

// RecordView handles POST /api/v1/videos/{id}/view requests: bumps the view
// counter and appends the video to the caller's watch history.
func (h ChannelHandler) RecordView(w http.ResponseWriter, r *http.Request) {
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

	videoID := strings.TrimSpace(r.PathValue("id"))
	if videoID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, "video id is required", nil)
		return
	}

	if err := h.Videos.RecordView(ctx, user.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, "video not found", nil)
			return
		}
		logger.Error("record view failed", "error", err, "videoId", videoID)
		respondJSON(ctx, w, http.StatusInternalServerError, "unable to record view", nil)
		return
	}

	respondJSON(ctx, w, http.StatusOK, "view recorded", nil)
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

func (h ChannelHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
