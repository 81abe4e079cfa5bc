package app

import (
	"context"
	"time"

	"github.com/playtube/backend/internal/auth"
	"github.com/playtube/backend/internal/config"
	"github.com/playtube/backend/internal/db"
	"github.com/playtube/backend/internal/handlers"
	"github.com/playtube/backend/internal/middleware"
	"github.com/playtube/backend/internal/repositories"
	"github.com/playtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the
// HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)

	issuer := auth.NewTokenIssuer(cfg.AccessSecret, cfg.AccessTTL, cfg.RefreshSecret, cfg.RefreshTTL)
	sessions := auth.NewManager(issuer, users)

	media, err := storage.NewS3MediaStore(ctx, cfg.MediaStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	return handlers.Dependencies{
		Users:          users,
		Sessions:       sessions,
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Media:          media,
		Verifier:       issuer,
		AuthLimiter:    middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		MaxUploadBytes: cfg.MaxUploadSize,
	}, nil
}
