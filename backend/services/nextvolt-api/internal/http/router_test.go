package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/http/handlers"
	"nextvolt/backend/services/nextvolt-api/internal/http/middleware"
	"nextvolt/backend/services/nextvolt-api/internal/ledger"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/password"
	"nextvolt/backend/services/nextvolt-api/internal/recommend"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
	"nextvolt/backend/services/nextvolt-api/internal/service"
)

type testAPI struct {
	handler http.Handler
	store   *repository.MemoryStore
	engine  *recommend.Engine
}

func newTestAPI(t *testing.T, enforceAuth bool) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()

	kmPerDegree := geo.EarthRadiusKm * math.Pi / 180
	price := 7.5
	require.NoError(t, store.PutStation(ctx, &models.Station{
		ID: 1, Name: "Moda", Latitude: 41 + 5/kmPerDegree, Longitude: 29, IsActive: true, Available: true,
		PricePerKWh: &price, Connections: []models.Connector{{TypeName: "CCS (Type 2)", NumConnectors: 2}},
	}))
	require.NoError(t, store.PutStation(ctx, &models.Station{
		ID: 2, Name: "Bakim", Latitude: 41, Longitude: 29, IsActive: false, Available: true,
	}))
	require.NoError(t, store.PutVehicle(ctx, &models.Vehicle{
		ID: "ev-1", Brand: "Togg", Model: "T10X", BatteryCapacityKWh: 60, ConsumptionKWhPer100km: 15,
	}))

	locker := lock.NewKeyedMutex()
	tokens := service.NewTokenService("secret", time.Hour)
	auth := service.NewAuthService(store, password.NewBcryptHasher(bcrypt.MinCost), tokens, logger)
	favorites := service.NewFavoritesService(store, store, locker, logger)
	history := service.NewHistoryService(store, locker, logger)
	stations := service.NewStationService(store, locker, nil, logger)
	vehicles := service.NewVehicleService(store, store, logger)
	l := ledger.New(store, locker, nil, ledger.DefaultConfig(), logger)
	engine := recommend.NewEngine(store, geo.NewScorer(geo.DefaultConfig()), history, logger)

	routes := Routes{
		Health:            handlers.NewHealthHandler(),
		ListStations:      handlers.NewListStationsHandler(stations, logger),
		GetStation:        handlers.NewGetStationHandler(stations, logger),
		PatchStation:      handlers.NewPatchStationHandler(stations, logger),
		Signup:            handlers.NewSignupHandler(auth, logger),
		Login:             handlers.NewLoginHandler(auth, logger),
		ListFavorites:     handlers.NewListFavoritesHandler(favorites, logger),
		AddFavorite:       handlers.NewAddFavoriteHandler(favorites, logger),
		RemoveFavorite:    handlers.NewRemoveFavoriteHandler(favorites, logger),
		History:           handlers.NewHistoryHandler(history, logger),
		ListReservations:  handlers.NewListReservationsHandler(l, logger),
		CreateReservation: handlers.NewCreateReservationHandler(l, logger),
		CancelReservation: handlers.NewCancelReservationHandler(l, logger),
		Recommend:         handlers.NewRecommendHandler(engine, vehicles, logger),
		ListVehicles:      handlers.NewListVehiclesHandler(vehicles, logger),
		ReachableStations: handlers.NewReachableStationsHandler(vehicles, logger),
	}
	if enforceAuth {
		routes.UserAuth = middleware.RequireUser(tokens)
	}
	return &testAPI{handler: NewRouter(routes), store: store, engine: engine}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type session struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

func (a *testAPI) signup(t *testing.T, username string) session {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/signup", map[string]string{"username": username, "password": "pw"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, false)
	rec := api.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/health", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAccounts(t *testing.T) {
	api := newTestAPI(t, false)
	s := api.signup(t, "deniz")
	assert.NotEmpty(t, s.User.ID)
	assert.NotEmpty(t, s.Token)

	rec := api.do(t, http.MethodPost, "/signup", map[string]string{"username": "deniz", "password": "x"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/signup", map[string]string{"username": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/login", map[string]string{"username": "deniz", "password": "pw"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.User.ID, decode[session](t, rec).User.ID)

	rec = api.do(t, http.MethodPost, "/login", map[string]string{"username": "deniz", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}

func TestStations(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodGet, "/stations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Station](t, rec), 2)

	rec = api.do(t, http.MethodGet, "/stations/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Moda", decode[models.Station](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/stations/9", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/stations/abc", nil, "").Code)

	rec = api.do(t, http.MethodPatch, "/stations/2", map[string]interface{}{"is_active": true, "name": "Acik"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[models.Station](t, rec)
	assert.True(t, st.IsActive)
	assert.Equal(t, "Acik", st.Name)

	rec = api.do(t, http.MethodPatch, "/stations/2", map[string]interface{}{"available": false}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPatch, "/stations/2", map[string]interface{}{"reserved_count": 4}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavoritesAndHistory(t *testing.T) {
	api := newTestAPI(t, false)
	s := api.signup(t, "deniz")
	base := "/users/" + s.User.ID

	rec := api.do(t, http.MethodPost, base+"/favorites", map[string]int64{"station_id": 1}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int64{1}, decode[[]int64](t, rec))

	rec = api.do(t, http.MethodPost, base+"/favorites", map[string]int64{"station_id": 42}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodDelete, base+"/favorites/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]int64](t, rec))

	rec = api.do(t, http.MethodGet, "/users/ghost/favorites", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/recommend?lat=41&lng=29&user_id=%s", s.User.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	api.engine.Wait()

	rec = api.do(t, http.MethodGet, base+"/history", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]models.HistoryEntry](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "Moda", history[0].StationName)
}

func TestReservationLifecycle(t *testing.T) {
	api := newTestAPI(t, false)
	s := api.signup(t, "deniz")
	base := "/users/" + s.User.ID + "/reservations"

	rec := api.do(t, http.MethodPost, base, map[string]interface{}{"station_id": 1, "minutes": 5}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[models.Reservation](t, rec)
	assert.Equal(t, 10, res.DurationMinutes)
	assert.Equal(t, 10*time.Minute, res.ExpiresAt.Sub(res.CreatedAt))

	st := decode[models.Station](t, api.do(t, http.MethodGet, "/stations/1", nil, ""))
	assert.False(t, st.Available)
	assert.Equal(t, 1, st.ReservedCount)
	assert.Equal(t, 10, st.QueueTime)

	rec = api.do(t, http.MethodPost, base, map[string]interface{}{"station_id": 1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"station not available"}`, rec.Body.String())

	rec = api.do(t, http.MethodPost, base, map[string]interface{}{"station_id": 2}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"station under maintenance"}`, rec.Body.String())

	rec = api.do(t, http.MethodPost, base, map[string]interface{}{"station_id": 99}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, base, map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/users/ghost/reservations", map[string]interface{}{"station_id": 1}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Reservation](t, rec), 1)

	rec = api.do(t, http.MethodDelete, base+"/unknown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Reservation](t, rec), 1)

	rec = api.do(t, http.MethodDelete, base+"/"+res.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Reservation](t, rec))

	st = decode[models.Station](t, api.do(t, http.MethodGet, "/stations/1", nil, ""))
	assert.True(t, st.Available)
	assert.Equal(t, 0, st.ReservedCount)
	assert.Equal(t, 0, st.QueueTime)
}

func TestRecommend(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodGet, "/recommend?lat=41&lng=29&battery=15&range_km=10&preferred=CCS%20(Type%202)", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1, "inactive station is skipped")
	assert.Equal(t, "Moda", out[0]["name"])
	assert.Equal(t, 5.0, out[0]["distance_km"])
	assert.Contains(t, out[0], "score")
	assert.Contains(t, out[0], "connections")

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/recommend?lng=29", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/recommend?lat=abc&lng=29", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/recommend?lat=41&lng=29&range_km=-3", nil, "").Code)

	rec = api.do(t, http.MethodGet, "/recommend?lat=41&lng=29&vehicle_id=ev-1&charge=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]map[string]interface{}](t, rec), "4 km of range does not reach a station 5 km away")

	rec = api.do(t, http.MethodGet, "/recommend?lat=41&lng=29&vehicle_id=nope&charge=50", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVehiclesAndReachable(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodGet, "/vehicles", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Vehicle](t, rec), 1)

	rec = api.do(t, http.MethodPost, "/reachable-stations", map[string]interface{}{
		"vehicle_id":     "ev-1",
		"current_charge": 50,
		"user_location":  map[string]float64{"lat": 41, "lng": 29},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[service.ReachableResult](t, rec)
	assert.Equal(t, 200.0, res.RangeKm)
	assert.Equal(t, 30.0, res.Vehicle.AvailableKWh)
	assert.Len(t, res.ReachableStations, 2)

	rec = api.do(t, http.MethodPost, "/reachable-stations", map[string]interface{}{"vehicle_id": "ev-1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/reachable-stations", map[string]interface{}{
		"vehicle_id":     "missing",
		"current_charge": 50,
		"user_location":  map[string]float64{"lat": 41, "lng": 29},
	}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserRoutesRequireOwnToken(t *testing.T) {
	api := newTestAPI(t, true)
	alice := api.signup(t, "alice")
	bob := api.signup(t, "bob")

	path := "/users/" + alice.User.ID + "/reservations"
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, path, nil, bob.Token).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, path, nil, alice.Token).Code)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/stations", nil, "").Code, "public routes stay open")
}

func TestCamelCaseBodies(t *testing.T) {
	api := newTestAPI(t, false)
	s := api.signup(t, "deniz")
	base := "/users/" + s.User.ID

	rec := api.do(t, http.MethodPost, base+"/favorites", map[string]int64{"stationId": 1}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int64{1}, decode[[]int64](t, rec))

	rec = api.do(t, http.MethodPost, base+"/reservations", map[string]interface{}{"stationId": 1, "minutes": 15}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[models.Reservation](t, rec)
	assert.Equal(t, int64(1), res.StationID)
	assert.Equal(t, 15*time.Minute, res.ExpiresAt.Sub(res.CreatedAt))

	rec = api.do(t, http.MethodPost, "/reachable-stations", map[string]interface{}{
		"vehicleId":     "ev-1",
		"currentCharge": 50,
		"userLocation":  map[string]float64{"lat": 41, "lng": 29},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reach := decode[service.ReachableResult](t, rec)
	assert.Equal(t, 200.0, reach.RangeKm)
	assert.Len(t, reach.ReachableStations, 2)
}

func TestReservationRejectsOversizedDuration(t *testing.T) {
	api := newTestAPI(t, false)
	s := api.signup(t, "deniz")

	rec := api.do(t, http.MethodPost, "/users/"+s.User.ID+"/reservations",
		map[string]interface{}{"station_id": 1, "minutes": int64(1) << 40}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"minutes exceeds the maximum reservation length"}`, rec.Body.String())

	st := decode[models.Station](t, api.do(t, http.MethodGet, "/stations/1", nil, ""))
	assert.True(t, st.Available)
	assert.Zero(t, st.QueueTime)
}
