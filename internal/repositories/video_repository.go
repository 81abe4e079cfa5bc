package repositories

import (
	"context"

	"github.com/playtube/backend/internal/models"
)

// VideoRepository exposes read access to videos plus the watch history
// read-model and its append path.
type VideoRepository interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	RecordView(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}
