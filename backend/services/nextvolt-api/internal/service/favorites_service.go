package service

import (
	"context"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

// FavoritesService edits a user's favorite station set.
type FavoritesService struct {
	users    repository.UserStore
	stations repository.StationReader
	locker   lock.Locker
	logger   *zap.Logger
}

// NewFavoritesService builds FavoritesService.
func NewFavoritesService(users repository.UserStore, stations repository.StationReader, locker lock.Locker, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{
		users:    users,
		stations: stations,
		locker:   locker,
		logger:   logger,
	}
}

// List returns the user's favorite station ids.
func (s *FavoritesService) List(ctx context.Context, userID string) ([]int64, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}

// Add marks a station as favorite. Adding twice is a no-op.
func (s *FavoritesService) Add(ctx context.Context, userID string, stationID int64) ([]int64, error) {
	return s.update(ctx, userID, func(user *models.User) (bool, error) {
		if _, err := s.stations.GetStation(ctx, stationID); err != nil {
			return false, err
		}
		return user.AddFavorite(stationID), nil
	})
}

// Remove drops a station from favorites. Unknown ids are ignored.
func (s *FavoritesService) Remove(ctx context.Context, userID string, stationID int64) ([]int64, error) {
	return s.update(ctx, userID, func(user *models.User) (bool, error) {
		return user.RemoveFavorite(stationID), nil
	})
}

func (s *FavoritesService) update(ctx context.Context, userID string, fn func(*models.User) (bool, error)) ([]int64, error) {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, apperr.Internal("lock user", err)
	}
	defer unlock()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(user)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.users.PutUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user.Favorites, nil
}
