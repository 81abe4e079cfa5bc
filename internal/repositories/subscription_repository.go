package repositories

import (
	"context"

	"github.com/playtube/backend/internal/models"
)

// SubscriptionRepository defines data access for channel follow edges.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, channelID, subscriberID string) error
	Exists(ctx context.Context, channelID, subscriberID string) (bool, error)
}
