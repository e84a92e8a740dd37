package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	libdb "nextvolt/backend/libs/db"
	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/models"
)

const uniqueViolation = "23505"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists stations, users and vehicles in Postgres.
// User collections live in JSONB columns and are replaced as a whole.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const stationColumns = `id, name, address, latitude, longitude, is_active, available, price_per_kwh, queue_time, reserved_count, connections`

// ListStations returns all stations ordered by id.
func (s *PostgresStore) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY id`)
	if err != nil {
		return nil, apperr.Internal("list stations", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, apperr.Internal("list stations", err)
		}
		stations = append(stations, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("list stations", err)
	}
	return stations, nil
}

// GetStation returns one station.
func (s *PostgresStore) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	return getStation(ctx, s.db, id, false)
}

// PutStation upserts a whole station record.
func (s *PostgresStore) PutStation(ctx context.Context, station *models.Station) error {
	return putStation(ctx, s.db, station)
}

// GetUser returns one user.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, s.db, `WHERE id = $1`, id, false)
}

// GetUserByUsername fetches a user by login name.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return getUser(ctx, s.db, `WHERE username = $1`, normalizeUsername(username), false)
}

// CreateUser inserts a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	favorites, history, reservations, err := encodeCollections(user)
	if err != nil {
		return apperr.Internal("create user", err)
	}
	user.Username = normalizeUsername(user.Username)

	const query = `
		INSERT INTO users (id, username, password_hash, favorites, history, reservations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at
	`
	err = s.db.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		favorites,
		history,
		reservations,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return apperr.Internal("create user", err)
	}
	return nil
}

// PutUser replaces an existing user's collections.
func (s *PostgresStore) PutUser(ctx context.Context, user *models.User) error {
	return putUser(ctx, s.db, user)
}

// ListVehicles returns the catalogue ordered by id.
func (s *PostgresStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	const query = `
		SELECT id, brand, model, battery_capacity_kwh, consumption_kwh_per_100km
		FROM vehicles
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperr.Internal("list vehicles", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Brand, &v.Model, &v.BatteryCapacityKWh, &v.ConsumptionKWhPer100km); err != nil {
			return nil, apperr.Internal("list vehicles", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("list vehicles", err)
	}
	return vehicles, nil
}

// GetVehicle returns one vehicle.
func (s *PostgresStore) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	const query = `
		SELECT id, brand, model, battery_capacity_kwh, consumption_kwh_per_100km
		FROM vehicles
		WHERE id = $1
	`
	var v models.Vehicle
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&v.ID, &v.Brand, &v.Model, &v.BatteryCapacityKWh, &v.ConsumptionKWhPer100km)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, apperr.Internal("get vehicle", err)
	}
	return &v, nil
}

// PutVehicle upserts a vehicle.
func (s *PostgresStore) PutVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (id, brand, model, battery_capacity_kwh, consumption_kwh_per_100km, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			battery_capacity_kwh = EXCLUDED.battery_capacity_kwh,
			consumption_kwh_per_100km = EXCLUDED.consumption_kwh_per_100km,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Brand,
		vehicle.Model,
		vehicle.BatteryCapacityKWh,
		vehicle.ConsumptionKWhPer100km,
	)
	if err != nil {
		return apperr.Internal("put vehicle", err)
	}
	return nil
}

// ExpiredReservations unnests every user's reservations and keeps the ones
// whose expires_at has passed.
func (s *PostgresStore) ExpiredReservations(ctx context.Context, now time.Time) ([]models.ReservationRef, error) {
	const query = `
		SELECT u.id, r->>'id', (r->>'station_id')::bigint, (r->>'expires_at')::timestamptz
		FROM users u
		CROSS JOIN LATERAL jsonb_array_elements(u.reservations) AS r
		WHERE (r->>'expires_at')::timestamptz <= $1
		ORDER BY 4
	`
	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, apperr.Internal("list expired reservations", err)
	}
	defer rows.Close()

	var refs []models.ReservationRef
	for rows.Next() {
		var ref models.ReservationRef
		if err := rows.Scan(&ref.UserID, &ref.ReservationID, &ref.StationID, &ref.ExpiresAt); err != nil {
			return nil, apperr.Internal("list expired reservations", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("list expired reservations", err)
	}
	return refs, nil
}

// InTx runs fn in one SQL transaction. Reads inside it lock the rows they
// return (SELECT ... FOR UPDATE) until commit.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return libdb.WithTx(ctx, s.db, func(sqlTx *sql.Tx) error {
		return fn(&postgresTx{tx: sqlTx})
	})
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	return getStation(ctx, t.tx, id, true)
}

func (t *postgresTx) PutStation(ctx context.Context, station *models.Station) error {
	return putStation(ctx, t.tx, station)
}

func (t *postgresTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, t.tx, `WHERE id = $1`, id, true)
}

func (t *postgresTx) PutUser(ctx context.Context, user *models.User) error {
	return putUser(ctx, t.tx, user)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*models.Station, error) {
	var (
		st          models.Station
		price       sql.NullFloat64
		connections []byte
	)
	if err := row.Scan(
		&st.ID,
		&st.Name,
		&st.Address,
		&st.Latitude,
		&st.Longitude,
		&st.IsActive,
		&st.Available,
		&price,
		&st.QueueTime,
		&st.ReservedCount,
		&connections,
	); err != nil {
		return nil, err
	}
	if price.Valid {
		p := price.Float64
		st.PricePerKWh = &p
	}
	if err := json.Unmarshal(connections, &st.Connections); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	if st.Connections == nil {
		st.Connections = []models.Connector{}
	}
	return &st, nil
}

func getStation(ctx context.Context, q queryer, id int64, forUpdate bool) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	st, err := scanStation(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, apperr.Internal("get station", err)
	}
	return st, nil
}

func putStation(ctx context.Context, q queryer, station *models.Station) error {
	connections := station.Connections
	if connections == nil {
		connections = []models.Connector{}
	}
	encoded, err := json.Marshal(connections)
	if err != nil {
		return apperr.Internal("put station", err)
	}

	var price sql.NullFloat64
	if station.PricePerKWh != nil {
		price = sql.NullFloat64{Float64: *station.PricePerKWh, Valid: true}
	}

	const query = `
		INSERT INTO stations (` + stationColumns + `, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			is_active = EXCLUDED.is_active,
			available = EXCLUDED.available,
			price_per_kwh = EXCLUDED.price_per_kwh,
			queue_time = EXCLUDED.queue_time,
			reserved_count = EXCLUDED.reserved_count,
			connections = EXCLUDED.connections,
			updated_at = NOW()
	`
	_, err = q.ExecContext(ctx, query,
		station.ID,
		station.Name,
		station.Address,
		station.Latitude,
		station.Longitude,
		station.IsActive,
		station.Available,
		price,
		station.QueueTime,
		station.ReservedCount,
		encoded,
	)
	if err != nil {
		return apperr.Internal("put station", err)
	}
	return nil
}

func getUser(ctx context.Context, q queryer, where string, arg any, forUpdate bool) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, favorites, history, reservations, created_at
		FROM users ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		u                                 models.User
		favorites, history, reservations []byte
	)
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&favorites,
		&history,
		&reservations,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal("get user", err)
	}

	if err := json.Unmarshal(favorites, &u.Favorites); err != nil {
		return nil, apperr.Internal("decode favorites", err)
	}
	if err := json.Unmarshal(history, &u.History); err != nil {
		return nil, apperr.Internal("decode history", err)
	}
	if err := json.Unmarshal(reservations, &u.Reservations); err != nil {
		return nil, apperr.Internal("decode reservations", err)
	}
	cp := u.Clone()
	return &cp, nil
}

func putUser(ctx context.Context, q queryer, user *models.User) error {
	favorites, history, reservations, err := encodeCollections(user)
	if err != nil {
		return apperr.Internal("put user", err)
	}

	const query = `
		UPDATE users
		SET favorites = $2,
		    history = $3,
		    reservations = $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := q.ExecContext(ctx, query, user.ID, favorites, history, reservations)
	if err != nil {
		return apperr.Internal("put user", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Internal("put user", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func encodeCollections(user *models.User) (favorites, history, reservations []byte, err error) {
	cp := user.Clone()
	if favorites, err = json.Marshal(cp.Favorites); err != nil {
		return nil, nil, nil, err
	}
	if history, err = json.Marshal(cp.History); err != nil {
		return nil, nil, nil, err
	}
	if reservations, err = json.Marshal(cp.Reservations); err != nil {
		return nil, nil, nil, err
	}
	return favorites, history, reservations, nil
}
