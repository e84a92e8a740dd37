package models

// Vehicle is an EV model from the catalogue used for range estimates.
type Vehicle struct {
	ID                     string  `json:"id"`
	Brand                  string  `json:"brand"`
	Model                  string  `json:"model"`
	BatteryCapacityKWh     float64 `json:"battery_capacity_kwh"`
	ConsumptionKWhPer100km float64 `json:"consumption_kwh_per_100km"`
}
