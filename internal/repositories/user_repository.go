package repositories

import (
	"context"

	"github.com/playtube/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts. It also
// serves as the credential store: the refresh token accessors satisfy
// auth.RefreshTokenStore, and ChannelProfile builds the public channel
// read-model.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	SetRefreshToken(ctx context.Context, userID, token string) error
	RefreshToken(ctx context.Context, userID string) (string, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}
