package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/service"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type sessionResponse struct {
	User  sessionUser `json:"user"`
	Token string      `json:"token"`
}

func toSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		User:  sessionUser{ID: s.User.ID, Username: s.User.Username},
		Token: s.Token,
	}
}

// NewSignupHandler returns POST /signup handler.
func NewSignupHandler(authService *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, logger, r, err)
			return
		}

		session, err := authService.Signup(r.Context(), req.Username, req.Password)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(session))
	}
}

// NewLoginHandler returns POST /login handler.
func NewLoginHandler(authService *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, logger, r, err)
			return
		}

		session, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(session))
	}
}
