// Package vehicle estimates driving range from a battery charge level.
package vehicle

import (
	"math"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/models"
)

var (
	// ErrInvalidCharge is returned for a charge outside [0,100].
	ErrInvalidCharge = apperr.New(apperr.KindInvalidArgument, "charge must be between 0 and 100")
	// ErrInvalidVehicle is returned when capacity or consumption is not positive.
	ErrInvalidVehicle = apperr.New(apperr.KindInvalidArgument, "vehicle capacity and consumption must be positive")
)

// RangeEstimate is the energy left in the pack and the distance it covers.
type RangeEstimate struct {
	AvailableKWh float64 `json:"available_kwh"`
	RangeKm      float64 `json:"range_km"`
}

// Estimate computes the range for a battery of capacityKWh consuming
// consumptionPer100km at chargePercent.
func Estimate(capacityKWh, consumptionPer100km, chargePercent float64) (RangeEstimate, error) {
	if math.IsNaN(chargePercent) || chargePercent < 0 || chargePercent > 100 {
		return RangeEstimate{}, ErrInvalidCharge
	}
	if !(capacityKWh > 0) || !(consumptionPer100km > 0) {
		return RangeEstimate{}, ErrInvalidVehicle
	}
	available := capacityKWh * chargePercent / 100
	return RangeEstimate{
		AvailableKWh: available,
		RangeKm:      available / consumptionPer100km * 100,
	}, nil
}

// EstimateFor is Estimate for a catalogue vehicle.
func EstimateFor(v models.Vehicle, chargePercent float64) (RangeEstimate, error) {
	return Estimate(v.BatteryCapacityKWh, v.ConsumptionKWhPer100km, chargePercent)
}
