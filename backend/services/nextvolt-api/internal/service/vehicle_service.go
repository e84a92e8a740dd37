package service

import (
	"context"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
	"nextvolt/backend/services/nextvolt-api/internal/vehicle"
)

// ErrVehicleRequired is returned when no vehicle id was given.
var ErrVehicleRequired = apperr.New(apperr.KindInvalidArgument, "vehicle_id, current_charge and user_location (lat,lng) are required")

// ReachableInput asks which stations a vehicle can reach from a location.
type ReachableInput struct {
	VehicleID string
	Charge    float64
	Location  geo.Point
}

// ReachableStation is a station within range, with its distance.
type ReachableStation struct {
	models.Station
	DistanceKm float64 `json:"distance_km"`
}

// ReachableVehicle summarizes the vehicle used for the estimate.
type ReachableVehicle struct {
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	AvailableKWh float64 `json:"available_kwh"`
}

// ReachableResult is the response to a reachability query.
type ReachableResult struct {
	RangeKm           float64            `json:"range_km"`
	ReachableStations []ReachableStation `json:"reachable_stations"`
	Vehicle           ReachableVehicle   `json:"vehicle"`
}

// VehicleService exposes the catalogue and range estimates.
type VehicleService struct {
	vehicles repository.VehicleStore
	stations repository.StationReader
	logger   *zap.Logger
}

// NewVehicleService builds VehicleService.
func NewVehicleService(vehicles repository.VehicleStore, stations repository.StationReader, logger *zap.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, stations: stations, logger: logger}
}

// List returns the vehicle catalogue.
func (s *VehicleService) List(ctx context.Context) ([]models.Vehicle, error) {
	vehicles, err := s.vehicles.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// Estimate looks the vehicle up and computes its range at chargePercent.
func (s *VehicleService) Estimate(ctx context.Context, vehicleID string, chargePercent float64) (*models.Vehicle, vehicle.RangeEstimate, error) {
	if vehicleID == "" {
		return nil, vehicle.RangeEstimate{}, ErrVehicleRequired
	}
	v, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, vehicle.RangeEstimate{}, err
	}
	est, err := vehicle.EstimateFor(*v, chargePercent)
	if err != nil {
		return nil, vehicle.RangeEstimate{}, err
	}
	return v, est, nil
}

// Reachable lists every station within the vehicle's estimated range.
func (s *VehicleService) Reachable(ctx context.Context, in ReachableInput) (*ReachableResult, error) {
	if !in.Location.Valid() {
		return nil, ErrVehicleRequired
	}
	v, est, err := s.Estimate(ctx, in.VehicleID, in.Charge)
	if err != nil {
		return nil, err
	}

	stations, err := s.stations.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	reachable := make([]ReachableStation, 0, len(stations))
	for _, st := range stations {
		d := geo.DistanceKm(in.Location, geo.Point{Lat: st.Latitude, Lng: st.Longitude})
		if d > est.RangeKm {
			continue
		}
		reachable = append(reachable, ReachableStation{Station: st, DistanceKm: geo.Round(d, 2)})
	}

	return &ReachableResult{
		RangeKm:           geo.Round(est.RangeKm, 2),
		ReachableStations: reachable,
		Vehicle: ReachableVehicle{
			Brand:        v.Brand,
			Model:        v.Model,
			AvailableKWh: geo.Round(est.AvailableKWh, 2),
		},
	}, nil
}
