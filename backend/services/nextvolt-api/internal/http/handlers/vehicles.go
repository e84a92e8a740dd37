package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/service"
)

// NewListVehiclesHandler returns GET /vehicles handler.
func NewListVehiclesHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicles, err := svc.List(r.Context())
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, vehicles)
	}
}

// NewReachableStationsHandler returns POST /reachable-stations handler.
func NewReachableStationsHandler(svc *service.VehicleService, logger *zap.Logger) http.HandlerFunc {
	// Mobile clients send the camelCase names.
	type request struct {
		VehicleID          string     `json:"vehicle_id"`
		VehicleIDCamel     string     `json:"vehicleId"`
		CurrentCharge      *float64   `json:"current_charge"`
		CurrentChargeCamel *float64   `json:"currentCharge"`
		UserLocation       *geo.Point `json:"user_location"`
		UserLocationCamel  *geo.Point `json:"userLocation"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		vehicleID := firstNonEmpty(req.VehicleID, req.VehicleIDCamel)
		charge := req.CurrentCharge
		if charge == nil {
			charge = req.CurrentChargeCamel
		}
		location := req.UserLocation
		if location == nil {
			location = req.UserLocationCamel
		}
		if vehicleID == "" || charge == nil || location == nil {
			writeAppError(w, logger, r, service.ErrVehicleRequired)
			return
		}

		res, err := svc.Reachable(r.Context(), service.ReachableInput{
			VehicleID: vehicleID,
			Charge:    *charge,
			Location:  *location,
		})
		if err != nil {
			writeAppError(w, logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

