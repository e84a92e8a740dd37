package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"nextvolt/backend/services/nextvolt-api/internal/models"
)

// Seed file names looked up inside a seed directory.
const (
	StationsFile = "stations.json"
	VehiclesFile = "vehicles.json"
)

// SeedTarget is the write side needed to import catalogue data.
type SeedTarget interface {
	PutStation(ctx context.Context, station *models.Station) error
	PutVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

// ReadStations decodes a JSON array of stations and repairs derived fields.
func ReadStations(path string) ([]models.Station, error) {
	var stations []models.Station
	if err := readJSONFile(path, &stations); err != nil {
		return nil, err
	}
	for i := range stations {
		stations[i].Normalize()
	}
	return stations, nil
}

// ReadVehicles decodes a JSON array of vehicles.
func ReadVehicles(path string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := readJSONFile(path, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// SeedDir imports stations.json and vehicles.json from dir. Missing files are
// skipped; it returns how many records of each kind were written.
func SeedDir(ctx context.Context, target SeedTarget, dir string) (int, int, error) {
	stations, err := ReadStations(filepath.Join(dir, StationsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, err
	}
	vehicles, err := ReadVehicles(filepath.Join(dir, VehiclesFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, err
	}
	if err := Seed(ctx, target, stations, vehicles); err != nil {
		return 0, 0, err
	}
	return len(stations), len(vehicles), nil
}

// Seed writes stations and vehicles into target.
func Seed(ctx context.Context, target SeedTarget, stations []models.Station, vehicles []models.Vehicle) error {
	for i := range stations {
		if err := target.PutStation(ctx, &stations[i]); err != nil {
			return fmt.Errorf("seed: station %d: %w", stations[i].ID, err)
		}
	}
	for i := range vehicles {
		if err := target.PutVehicle(ctx, &vehicles[i]); err != nil {
			return fmt.Errorf("seed: vehicle %s: %w", vehicles[i].ID, err)
		}
	}
	return nil
}

func readJSONFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("seed: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
