package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/playtube/backend/internal/models"
	"github.com/playtube/backend/internal/repositories"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. It
// implements UserStore, SubscriptionStore, VideoStore, and the session
// manager's refresh token store.
type memStore struct {
	mu     sync.Mutex
	users  map[string]models.User // keyed by id
	subs   []models.Subscription
	videos map[string]models.Video
	// watched maps user id to video ids in watch order.
	watched map[string][]string
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]models.User),
		videos:  make(map[string]models.Video),
		watched: make(map[string][]string),
	}
}

func (s *memStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username = strings.ToLower(strings.TrimSpace(username))
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	for id, other := range s.users {
		if id != user.ID && other.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	user.RefreshToken = current.RefreshToken
	s.users[user.ID] = user
	return nil
}

func (s *memStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

func (s *memStore) RefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return user.RefreshToken, nil
}

func (s *memStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username = strings.ToLower(strings.TrimSpace(username))

	var channel models.User
	found := false
	for _, user := range s.users {
		if user.Username == username {
			channel = user
			found = true
			break
		}
	}
	if !found {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}

	profile := models.ChannelProfile{
		Username:   channel.Username,
		FullName:   channel.FullName,
		Email:      channel.Email,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
		CreatedAt:  channel.CreatedAt,
	}
	for _, sub := range s.subs {
		if sub.ChannelID == channel.ID {
			profile.SubscribersCount++
			if sub.SubscriberID == viewerID {
				profile.IsSubscribed = true
			}
		}
		if sub.SubscriberID == channel.ID {
			profile.SubscribedToCount++
		}
	}
	return profile, nil
}

func (s *memStore) CreateSubscription(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subs {
		if existing.ChannelID == sub.ChannelID && existing.SubscriberID == sub.SubscriberID {
			return repositories.ErrConflict
		}
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *memStore) Delete(_ context.Context, channelID, subscriberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.ChannelID == channelID && sub.SubscriberID == subscriberID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *memStore) Exists(_ context.Context, channelID, subscriberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ChannelID == channelID && sub.SubscriberID == subscriberID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) FindVideoByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memStore) RecordView(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[videoID] = video
	s.watched[userID] = append(s.watched[userID], videoID)
	return nil
}

func (s *memStore) WatchHistory(_ context.Context, userID string) ([]models.WatchedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var history []models.WatchedVideo
	for _, videoID := range s.watched[userID] {
		video, ok := s.videos[videoID]
		if !ok {
			continue
		}
		owner := s.users[video.OwnerID]
		history = append(history, models.WatchedVideo{
			ID:          video.ID,
			VideoURL:    video.VideoURL,
			Thumbnail:   video.Thumbnail,
			Title:       video.Title,
			Description: video.Description,
			Duration:    video.Duration,
			Views:       video.Views,
			IsPublished: video.IsPublished,
			CreatedAt:   video.CreatedAt,
			Owner: models.VideoOwner{
				Username: owner.Username,
				Avatar:   owner.Avatar,
			},
		})
	}
	return history, nil
}

// subscriptionStoreAdapter renames memStore.CreateSubscription so memStore
// can satisfy both UserStore.Create and SubscriptionStore.Create.
type subscriptionStoreAdapter struct {
	*memStore
}

func (a subscriptionStoreAdapter) Create(ctx context.Context, sub models.Subscription) error {
	return a.memStore.CreateSubscription(ctx, sub)
}

// videoStoreAdapter exposes memStore's video methods under the VideoStore
// method names.
type videoStoreAdapter struct {
	*memStore
}

func (a videoStoreAdapter) FindByID(ctx context.Context, id string) (models.Video, error) {
	return a.memStore.FindVideoByID(ctx, id)
}

// fakeMedia records uploads and hands back deterministic URLs.
type fakeMedia struct {
	mu      sync.Mutex
	fail    bool
	uploads []string
}

func (m *fakeMedia) Save(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	if m.fail {
		return "", errors.New("upstream rejected upload")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("https://media.test/%s/%s", folder, filename)
	m.uploads = append(m.uploads, url)
	return url, nil
}
