package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/recommend"
	"nextvolt/backend/services/nextvolt-api/internal/service"
)

// NewRecommendHandler returns GET /recommend handler.
//
// Query: lat, lng (required), battery, preferred, user_id, range_km. When
// range_km is absent, vehicle_id plus charge derive it from the vehicle's
// estimated range; charge then also stands in for a missing battery.
func NewRecommendHandler(engine *recommend.Engine, vehicles *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		lat, latOK, err := queryFloat(q, "lat")
		if err != nil || !latOK {
			writeAppError(w, logger, r, recommend.ErrInvalidLocation)
			return
		}
		lng, lngOK, err := queryFloat(q, "lng")
		if err != nil || !lngOK {
			writeAppError(w, logger, r, recommend.ErrInvalidLocation)
			return
		}

		query := recommend.Query{
			Location:           geo.Point{Lat: lat, Lng: lng},
			PreferredConnector: strings.TrimSpace(q.Get("preferred")),
			UserID:             firstNonEmpty(q.Get("user_id"), q.Get("userId")),
		}

		if battery, ok, err := queryFloat(q, "battery"); err != nil {
			writeAppError(w, logger, r, apperr.InvalidArgument("battery must be numeric"))
			return
		} else if ok {
			query.BatteryPercent = &battery
		}

		if rangeKm, ok, err := queryFloat(q, "range_km"); err != nil {
			writeAppError(w, logger, r, apperr.InvalidArgument("range_km must be numeric"))
			return
		} else if ok {
			query.MaxRangeKm = &rangeKm
		}

		if vehicleID := q.Get("vehicle_id"); vehicleID != "" && query.MaxRangeKm == nil {
			charge, ok, err := queryFloat(q, "charge")
			if err != nil || !ok {
				writeAppError(w, logger, r, apperr.InvalidArgument("charge is required with vehicle_id"))
				return
			}
			_, est, err := vehicles.Estimate(r.Context(), vehicleID, charge)
			if err != nil {
				writeAppError(w, logger, r, err)
				return
			}
			query.MaxRangeKm = &est.RangeKm
			if query.BatteryPercent == nil {
				query.BatteryPercent = &charge
			}
		}

		recs, err := engine.Recommend(r.Context(), query)
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// queryFloat parses a query parameter. ok is false when it is absent.
func queryFloat(q url.Values, name string) (float64, bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
