package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/service"
)

// ledgerFields may only change through reservations.
var ledgerFields = []string{"available", "reserved_count", "queue_time"}

// NewListStationsHandler returns GET /stations handler.
func NewListStationsHandler(svc *service.StationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stations, err := svc.List(r.Context())
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stations)
	}
}

// NewGetStationHandler returns GET /stations/:id handler.
func NewGetStationHandler(svc *service.StationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathInt(r, "id")
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		st, err := svc.Get(r.Context(), id)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// NewPatchStationHandler returns PATCH /stations/:id handler.
func NewPatchStationHandler(svc *service.StationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathInt(r, "id")
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		for _, name := range ledgerFields {
			if _, ok := fields[name]; ok {
				writeError(w, http.StatusBadRequest, name+" is managed by reservations")
				return
			}
		}

		var patch service.StationPatch
		dec := json.NewDecoder(bytes.NewReader(body))
		if err := dec.Decode(&patch); err != nil {
			writeAppError(w, logger, r, apperr.InvalidArgument("invalid station patch"))
			return
		}

		st, err := svc.Patch(r.Context(), id, patch)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
