package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/password"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

var (
	// ErrCredentialsRequired is returned when username or password is blank.
	ErrCredentialsRequired = apperr.New(apperr.KindInvalidArgument, "username and password required")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
)

// Session is returned by signup and login.
type Session struct {
	User  *models.User
	Token string
}

// AuthService contains registration/login logic.
type AuthService struct {
	users     repository.UserStore
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(users repository.UserStore, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Signup registers a new user with empty favorites, history and reservations.
func (s *AuthService) Signup(ctx context.Context, username, pass string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return nil, ErrCredentialsRequired
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Favorites:    []int64{},
		History:      []models.HistoryEntry{},
		Reservations: []models.Reservation{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return &Session{User: user, Token: token}, nil
}

// Login authenticates a user and produces a JWT.
func (s *AuthService) Login(ctx context.Context, username, pass string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, pass); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokenizer.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}
