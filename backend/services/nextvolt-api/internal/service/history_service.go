package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

// HistoryService reads and appends recommendation history.
type HistoryService struct {
	users  repository.UserStore
	locker lock.Locker
	logger *zap.Logger
}

// NewHistoryService builds HistoryService.
func NewHistoryService(users repository.UserStore, locker lock.Locker, logger *zap.Logger) *HistoryService {
	return &HistoryService{users: users, locker: locker, logger: logger}
}

// List returns the user's history, oldest first.
func (s *HistoryService) List(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.History, nil
}

// Append adds entry to the user's history. Unknown users are ignored.
func (s *HistoryService) Append(ctx context.Context, userID string, entry models.HistoryEntry) error {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return apperr.Internal("lock user", err)
	}
	defer unlock()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Debug("history for unknown user dropped", zap.String("user_id", userID))
			return nil
		}
		return err
	}
	user.History = append(user.History, entry)
	return s.users.PutUser(ctx, user)
}
