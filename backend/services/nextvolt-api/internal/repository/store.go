package repository

import (
	"context"
	"time"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/models"
)

var (
	// ErrStationNotFound is returned for unknown station ids.
	ErrStationNotFound = apperr.New(apperr.KindNotFound, "station not found")
	// ErrUserNotFound is returned for unknown user ids or usernames.
	ErrUserNotFound = apperr.New(apperr.KindNotFound, "user not found")
	// ErrVehicleNotFound is returned for unknown vehicle ids.
	ErrVehicleNotFound = apperr.New(apperr.KindNotFound, "vehicle not found")
	// ErrUsernameTaken is returned when creating a user with an existing username.
	ErrUsernameTaken = apperr.New(apperr.KindConflict, "username already exists")
)

// StationReader reads station records.
type StationReader interface {
	ListStations(ctx context.Context) ([]models.Station, error)
	GetStation(ctx context.Context, id int64) (*models.Station, error)
}

// StationStore adds whole-record replace.
type StationStore interface {
	StationReader
	PutStation(ctx context.Context, station *models.Station) error
}

// UserStore persists user records with their nested collections.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	PutUser(ctx context.Context, user *models.User) error
}

// VehicleStore reads the vehicle catalogue.
type VehicleStore interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	PutVehicle(ctx context.Context, vehicle *models.Vehicle) error
}

// Tx is the view of the store inside InTx. Writes made through it become
// visible together when the transaction commits, or not at all.
type Tx interface {
	GetStation(ctx context.Context, id int64) (*models.Station, error)
	PutStation(ctx context.Context, station *models.Station) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	PutUser(ctx context.Context, user *models.User) error
}

// Store is everything the API needs from persistence.
type Store interface {
	StationStore
	UserStore
	VehicleStore

	// InTx runs fn in a transaction and commits when fn returns nil.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// ExpiredReservations lists reservations whose expires_at is at or before now.
	ExpiredReservations(ctx context.Context, now time.Time) ([]models.ReservationRef, error)
}
