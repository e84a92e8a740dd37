package models

import "time"

// HistoryEntry records which station topped a recommendation for a user.
type HistoryEntry struct {
	StationID   int64     `json:"station_id"`
	StationName string    `json:"station_name"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// User is the account record with its nested collections.
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	Favorites    []int64        `json:"favorites"`
	History      []HistoryEntry `json:"history"`
	Reservations []Reservation  `json:"reservations"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (u User) Clone() User {
	out := u
	out.Favorites = append([]int64(nil), u.Favorites...)
	out.History = append([]HistoryEntry(nil), u.History...)
	out.Reservations = append([]Reservation(nil), u.Reservations...)
	if out.Favorites == nil {
		out.Favorites = []int64{}
	}
	if out.History == nil {
		out.History = []HistoryEntry{}
	}
	if out.Reservations == nil {
		out.Reservations = []Reservation{}
	}
	return out
}

// AddFavorite inserts stationID once. It reports whether the set changed.
func (u *User) AddFavorite(stationID int64) bool {
	for _, id := range u.Favorites {
		if id == stationID {
			return false
		}
	}
	u.Favorites = append(u.Favorites, stationID)
	return true
}

// RemoveFavorite drops stationID. It reports whether the set changed.
func (u *User) RemoveFavorite(stationID int64) bool {
	kept := u.Favorites[:0:0]
	for _, id := range u.Favorites {
		if id != stationID {
			kept = append(kept, id)
		}
	}
	changed := len(kept) != len(u.Favorites)
	u.Favorites = kept
	return changed
}

// FindReservation looks a reservation up by id.
func (u User) FindReservation(id string) (Reservation, bool) {
	for _, r := range u.Reservations {
		if r.ID == id {
			return r, true
		}
	}
	return Reservation{}, false
}

// RemoveReservation deletes the reservation with id and returns it.
func (u *User) RemoveReservation(id string) (Reservation, bool) {
	for i, r := range u.Reservations {
		if r.ID == id {
			kept := make([]Reservation, 0, len(u.Reservations)-1)
			kept = append(kept, u.Reservations[:i]...)
			kept = append(kept, u.Reservations[i+1:]...)
			u.Reservations = kept
			return r, true
		}
	}
	return Reservation{}, false
}
