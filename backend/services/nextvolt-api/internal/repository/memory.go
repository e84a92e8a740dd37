package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"nextvolt/backend/services/nextvolt-api/internal/models"
)

// MemoryStore keeps every record in process memory. Records are copied on the
// way in and out so callers never alias stored state.
type MemoryStore struct {
	mu           sync.RWMutex
	stations     map[int64]models.Station
	stationOrder []int64
	users        map[string]models.User
	usernames    map[string]string
	vehicles     map[string]models.Vehicle
	vehicleOrder []string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stations:  make(map[int64]models.Station),
		users:     make(map[string]models.User),
		usernames: make(map[string]string),
		vehicles:  make(map[string]models.Vehicle),
	}
}

// ListStations returns stations in insertion order.
func (s *MemoryStore) ListStations(_ context.Context) ([]models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Station, 0, len(s.stationOrder))
	for _, id := range s.stationOrder {
		out = append(out, s.stations[id].Clone())
	}
	return out, nil
}

// GetStation returns a copy of one station.
func (s *MemoryStore) GetStation(_ context.Context, id int64) (*models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getStationLocked(id)
}

func (s *MemoryStore) getStationLocked(id int64) (*models.Station, error) {
	st, ok := s.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	cp := st.Clone()
	return &cp, nil
}

// PutStation replaces (or inserts) a station.
func (s *MemoryStore) PutStation(_ context.Context, station *models.Station) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putStationLocked(station)
	return nil
}

func (s *MemoryStore) putStationLocked(station *models.Station) {
	if _, ok := s.stations[station.ID]; !ok {
		s.stationOrder = append(s.stationOrder, station.ID)
	}
	s.stations[station.ID] = station.Clone()
}

// GetUser returns a copy of one user.
func (s *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(id)
}

func (s *MemoryStore) getUserLocked(id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := u.Clone()
	return &cp, nil
}

// GetUserByUsername looks a user up by login name.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[normalizeUsername(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.getUserLocked(id)
}

// CreateUser inserts a new user, rejecting duplicate usernames.
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := normalizeUsername(user.Username)
	if _, ok := s.usernames[name]; ok {
		return ErrUsernameTaken
	}
	user.Username = name
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usernames[name] = user.ID
	s.users[user.ID] = user.Clone()
	return nil
}

// PutUser replaces an existing user.
func (s *MemoryStore) PutUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putUserLocked(user)
}

func (s *MemoryStore) putUserLocked(user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	s.users[user.ID] = user.Clone()
	return nil
}

// ListVehicles returns the catalogue in insertion order.
func (s *MemoryStore) ListVehicles(_ context.Context) ([]models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Vehicle, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		out = append(out, s.vehicles[id])
	}
	return out, nil
}

// GetVehicle returns one vehicle.
func (s *MemoryStore) GetVehicle(_ context.Context, id string) (*models.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vehicles[id]
	if !ok {
		return nil, ErrVehicleNotFound
	}
	return &v, nil
}

// PutVehicle replaces (or inserts) a vehicle.
func (s *MemoryStore) PutVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vehicles[vehicle.ID]; !ok {
		s.vehicleOrder = append(s.vehicleOrder, vehicle.ID)
	}
	s.vehicles[vehicle.ID] = *vehicle
	return nil
}

// ExpiredReservations scans every user for reservations past their expiry.
func (s *MemoryStore) ExpiredReservations(_ context.Context, now time.Time) ([]models.ReservationRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []models.ReservationRef
	for _, u := range s.users {
		for _, r := range u.Reservations {
			if r.Expired(now) {
				refs = append(refs, models.ReservationRef{
					UserID:        u.ID,
					ReservationID: r.ID,
					StationID:     r.StationID,
					ExpiresAt:     r.ExpiresAt,
				})
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ExpiresAt.Before(refs[j].ExpiresAt) })
	return refs, nil
}

// InTx stages writes and applies them under a single lock acquisition, so
// readers see either none or all of them.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memoryTx{
		store:    s,
		stations: make(map[int64]models.Station),
		users:    make(map[string]models.User),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range tx.users {
		if _, ok := s.users[u.ID]; !ok {
			return ErrUserNotFound
		}
	}
	for _, id := range tx.stationOrder {
		st := tx.stations[id]
		s.putStationLocked(&st)
	}
	for _, u := range tx.users {
		s.users[u.ID] = u
	}
	return nil
}

type memoryTx struct {
	store        *MemoryStore
	stations     map[int64]models.Station
	stationOrder []int64
	users        map[string]models.User
}

func (t *memoryTx) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	if st, ok := t.stations[id]; ok {
		cp := st.Clone()
		return &cp, nil
	}
	return t.store.GetStation(ctx, id)
}

func (t *memoryTx) PutStation(_ context.Context, station *models.Station) error {
	if _, ok := t.stations[station.ID]; !ok {
		t.stationOrder = append(t.stationOrder, station.ID)
	}
	t.stations[station.ID] = station.Clone()
	return nil
}

func (t *memoryTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := t.users[id]; ok {
		cp := u.Clone()
		return &cp, nil
	}
	return t.store.GetUser(ctx, id)
}

func (t *memoryTx) PutUser(_ context.Context, user *models.User) error {
	t.users[user.ID] = user.Clone()
	return nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
