package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/service"
)

// NewListFavoritesHandler returns GET /users/:id/favorites handler.
func NewListFavoritesHandler(svc *service.FavoritesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		favs, err := svc.List(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, favs)
	}
}

// NewAddFavoriteHandler returns POST /users/:id/favorites handler.
func NewAddFavoriteHandler(svc *service.FavoritesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req stationRef
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		stationID := req.id()
		if stationID == 0 {
			writeAppError(w, logger, r, apperr.InvalidArgument("station_id is required"))
			return
		}

		favs, err := svc.Add(r.Context(), pathParam(r, "id"), stationID)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, favs)
	}
}

// NewRemoveFavoriteHandler returns DELETE /users/:id/favorites/:stationId handler.
func NewRemoveFavoriteHandler(svc *service.FavoritesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stationID, err := pathInt(r, "stationId")
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		favs, err := svc.Remove(r.Context(), pathParam(r, "id"), stationID)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, favs)
	}
}

// NewHistoryHandler returns GET /users/:id/history handler.
func NewHistoryHandler(svc *service.HistoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.List(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}
