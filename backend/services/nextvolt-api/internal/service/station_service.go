package service

import (
	"context"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/ledger"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

// ErrInvalidCoordinates is returned when a patch moves a station off the map.
var ErrInvalidCoordinates = apperr.New(apperr.KindInvalidArgument, "latitude/longitude out of range")

// StationPatch holds the administrative fields an operator may change. Nil
// fields are left as they are. Availability, reserved count and queue time
// belong to the reservation ledger and cannot be patched.
type StationPatch struct {
	Name        *string             `json:"name"`
	Address     *string             `json:"address"`
	Latitude    *float64            `json:"latitude"`
	Longitude   *float64            `json:"longitude"`
	IsActive    *bool               `json:"is_active"`
	PricePerKWh *float64            `json:"price_per_kwh"`
	Connections *[]models.Connector `json:"connections"`
}

// StationService serves station reads and admin edits.
type StationService struct {
	store     repository.StationStore
	locker    lock.Locker
	publisher ledger.Notifier
	logger    *zap.Logger
}

// NewStationService builds StationService. publisher may be nil.
func NewStationService(store repository.StationStore, locker lock.Locker, publisher ledger.Notifier, logger *zap.Logger) *StationService {
	return &StationService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// List returns every station.
func (s *StationService) List(ctx context.Context) ([]models.Station, error) {
	stations, err := s.store.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	if stations == nil {
		stations = []models.Station{}
	}
	return stations, nil
}

// Get returns one station.
func (s *StationService) Get(ctx context.Context, id int64) (*models.Station, error) {
	return s.store.GetStation(ctx, id)
}

// Patch applies p under the station lock and broadcasts the result.
func (s *StationService) Patch(ctx context.Context, id int64, p StationPatch) (*models.Station, error) {
	unlock, err := s.locker.Lock(ctx, lock.StationKey(id))
	if err != nil {
		return nil, apperr.Internal("lock station", err)
	}
	defer unlock()

	st, err := s.store.GetStation(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		st.Name = *p.Name
	}
	if p.Address != nil {
		st.Address = *p.Address
	}
	if p.Latitude != nil {
		st.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		st.Longitude = *p.Longitude
	}
	if p.IsActive != nil {
		st.IsActive = *p.IsActive
	}
	if p.PricePerKWh != nil {
		price := *p.PricePerKWh
		if price < 0 {
			return nil, apperr.InvalidArgument("price_per_kwh must not be negative")
		}
		st.PricePerKWh = &price
	}
	if p.Connections != nil {
		st.Connections = append([]models.Connector{}, (*p.Connections)...)
	}
	if !(geo.Point{Lat: st.Latitude, Lng: st.Longitude}).Valid() {
		return nil, ErrInvalidCoordinates
	}

	if err := s.store.PutStation(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("station updated", zap.Int64("station_id", id))
	if s.publisher != nil {
		s.publisher.PublishStation(*st)
	}
	return st, nil
}
