package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps an error kind to its HTTP status. Internal errors are
// logged and answered with a generic message.
func writeAppError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, apperr.Message(err))
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument, apperr.KindPreconditionFailed:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, target interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidArgument("request body is required")
		}
		return apperr.InvalidArgument("invalid JSON body")
	}
	return nil
}

func pathParam(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

func pathInt(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(pathParam(r, name), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid " + name)
	}
	return v, nil
}

// stationRef accepts a station id as station_id or stationId.
type stationRef struct {
	StationID      int64 `json:"station_id"`
	StationIDCamel int64 `json:"stationId"`
}

func (s stationRef) id() int64 {
	if s.StationID != 0 {
		return s.StationID
	}
	return s.StationIDCamel
}
