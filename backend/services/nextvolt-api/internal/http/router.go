package httpserver

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes groups handlers. Nil handlers are not registered.
type Routes struct {
	Health  http.HandlerFunc
	Metrics http.Handler

	ListStations http.HandlerFunc
	GetStation   http.HandlerFunc
	PatchStation http.HandlerFunc

	Signup http.HandlerFunc
	Login  http.HandlerFunc

	ListFavorites  http.HandlerFunc
	AddFavorite    http.HandlerFunc
	RemoveFavorite http.HandlerFunc
	History        http.HandlerFunc

	ListReservations  http.HandlerFunc
	CreateReservation http.HandlerFunc
	CancelReservation http.HandlerFunc

	Recommend         http.HandlerFunc
	ListVehicles      http.HandlerFunc
	ReachableStations http.HandlerFunc

	StationFeed http.HandlerFunc

	// UserAuth, when set, guards every /users/:id route.
	UserAuth func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	router := httprouter.New()

	handle := func(method, path string, h http.Handler) {
		if h == nil {
			return
		}
		router.Handler(method, path, h)
	}
	user := func(method, path string, h http.HandlerFunc) {
		if h == nil {
			return
		}
		var wrapped http.Handler = h
		if routes.UserAuth != nil {
			wrapped = routes.UserAuth(h)
		}
		router.Handler(method, path, wrapped)
	}

	handle(http.MethodGet, "/health", handlerOrNil(routes.Health))
	if routes.Metrics != nil {
		handle(http.MethodGet, "/metrics", routes.Metrics)
	}

	handle(http.MethodGet, "/stations", handlerOrNil(routes.ListStations))
	handle(http.MethodGet, "/stations/:id", handlerOrNil(routes.GetStation))
	handle(http.MethodPatch, "/stations/:id", handlerOrNil(routes.PatchStation))

	handle(http.MethodPost, "/signup", handlerOrNil(routes.Signup))
	handle(http.MethodPost, "/login", handlerOrNil(routes.Login))

	user(http.MethodGet, "/users/:id/favorites", routes.ListFavorites)
	user(http.MethodPost, "/users/:id/favorites", routes.AddFavorite)
	user(http.MethodDelete, "/users/:id/favorites/:stationId", routes.RemoveFavorite)
	user(http.MethodGet, "/users/:id/history", routes.History)
	user(http.MethodGet, "/users/:id/reservations", routes.ListReservations)
	user(http.MethodPost, "/users/:id/reservations", routes.CreateReservation)
	user(http.MethodDelete, "/users/:id/reservations/:resId", routes.CancelReservation)

	handle(http.MethodGet, "/recommend", handlerOrNil(routes.Recommend))
	handle(http.MethodGet, "/vehicles", handlerOrNil(routes.ListVehicles))
	handle(http.MethodPost, "/reachable-stations", handlerOrNil(routes.ReachableStations))

	handle(http.MethodGet, "/ws/stations", handlerOrNil(routes.StationFeed))

	return router
}

// handlerOrNil keeps a nil HandlerFunc from becoming a non-nil http.Handler.
func handlerOrNil(h http.HandlerFunc) http.Handler {
	if h == nil {
		return nil
	}
	return h
}
