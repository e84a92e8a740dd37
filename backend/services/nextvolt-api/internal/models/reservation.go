package models

import "time"

// Reservation is a time-bound hold on a station. ExpiresAt is advisory: the
// hold lasts until it is cancelled.
type Reservation struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	StationID       int64     `json:"station_id"`
	StationName     string    `json:"station_name"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the advisory expiry has passed at now.
func (r Reservation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// ReservationRef points at one reservation inside a user record.
type ReservationRef struct {
	UserID        string
	ReservationID string
	StationID     int64
	ExpiresAt     time.Time
}
