package handlers

import (
	"context"
	"io"

	"github.com/playtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the account
// handlers, including the channel profile read-model.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// SessionManager issues, rotates, and revokes authentication token pairs.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// SubscriptionStore captures operations required by the subscribe toggle.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, channelID, subscriberID string) error
	Exists(ctx context.Context, channelID, subscriberID string) (bool, error)
}

// VideoStore captures video reads plus the watch history read-model.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	RecordView(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// MediaStore uploads user media and returns a publicly accessible URL.
type MediaStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}
