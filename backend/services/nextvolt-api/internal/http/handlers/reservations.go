package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/ledger"
)

// NewListReservationsHandler returns GET /users/:id/reservations handler.
func NewListReservationsHandler(l *ledger.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := l.List(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// NewCreateReservationHandler returns POST /users/:id/reservations handler.
func NewCreateReservationHandler(l *ledger.Ledger, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		stationRef
		Minutes *int `json:"minutes"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		stationID := req.id()
		if stationID == 0 {
			writeAppError(w, logger, r, apperr.InvalidArgument("station_id is required"))
			return
		}

		res, err := l.Create(r.Context(), ledger.CreateInput{
			UserID:    pathParam(r, "id"),
			StationID: stationID,
			Minutes:   req.Minutes,
		})
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// NewCancelReservationHandler returns DELETE /users/:id/reservations/:resId
// handler. It answers 200 with the remaining list even for unknown ids.
func NewCancelReservationHandler(l *ledger.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remaining, err := l.Cancel(r.Context(), pathParam(r, "id"), pathParam(r, "resId"))
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, remaining)
	}
}
