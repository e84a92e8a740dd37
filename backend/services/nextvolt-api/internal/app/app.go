package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	libredis "nextvolt/backend/libs/redis"
	"nextvolt/backend/services/nextvolt-api/internal/config"
	"nextvolt/backend/services/nextvolt-api/internal/db"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	httpserver "nextvolt/backend/services/nextvolt-api/internal/http"
	"nextvolt/backend/services/nextvolt-api/internal/http/handlers"
	"nextvolt/backend/services/nextvolt-api/internal/http/middleware"
	"nextvolt/backend/services/nextvolt-api/internal/ledger"
	"nextvolt/backend/services/nextvolt-api/internal/lock"
	"nextvolt/backend/services/nextvolt-api/internal/metrics"
	"nextvolt/backend/services/nextvolt-api/internal/password"
	"nextvolt/backend/services/nextvolt-api/internal/recommend"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
	"nextvolt/backend/services/nextvolt-api/internal/service"
	"nextvolt/backend/services/nextvolt-api/internal/ws"
)

// App wires nextvolt-api dependencies.
type App struct {
	server      *httpserver.Server
	handler     http.Handler
	hub         *ws.Hub
	sweeper     *ledger.Sweeper
	engine      *recommend.Engine
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.openLocker(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	metrics.Register()

	hub := ws.NewHub(cfg.PingInterval(), cfg.WriteTimeout(), logger)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.TokenTTL())
	authService := service.NewAuthService(store, password.NewBcryptHasher(bcrypt.DefaultCost), tokens, logger)
	favoritesService := service.NewFavoritesService(store, store, locker, logger)
	historyService := service.NewHistoryService(store, locker, logger)
	stationService := service.NewStationService(store, locker, hub, logger)
	vehicleService := service.NewVehicleService(store, store, logger)

	reservations := ledger.New(store, locker, hub, cfg.Ledger(), logger)
	engine := recommend.NewEngine(store, geo.NewScorer(cfg.Recommendation), historyService, logger)

	if interval := cfg.SweepInterval(); interval > 0 {
		a.sweeper = ledger.NewSweeper(reservations, store, interval, logger)
	}

	routes := httpserver.Routes{
		Health:            handlers.NewHealthHandler(),
		Metrics:           promhttp.Handler(),
		ListStations:      handlers.NewListStationsHandler(stationService, logger),
		GetStation:        handlers.NewGetStationHandler(stationService, logger),
		PatchStation:      handlers.NewPatchStationHandler(stationService, logger),
		Signup:            handlers.NewSignupHandler(authService, logger),
		Login:             handlers.NewLoginHandler(authService, logger),
		ListFavorites:     handlers.NewListFavoritesHandler(favoritesService, logger),
		AddFavorite:       handlers.NewAddFavoriteHandler(favoritesService, logger),
		RemoveFavorite:    handlers.NewRemoveFavoriteHandler(favoritesService, logger),
		History:           handlers.NewHistoryHandler(historyService, logger),
		ListReservations:  handlers.NewListReservationsHandler(reservations, logger),
		CreateReservation: handlers.NewCreateReservationHandler(reservations, logger),
		CancelReservation: handlers.NewCancelReservationHandler(reservations, logger),
		Recommend:         handlers.NewRecommendHandler(engine, vehicleService, logger),
		ListVehicles:      handlers.NewListVehiclesHandler(vehicleService, logger),
		ReachableStations: handlers.NewReachableStationsHandler(vehicleService, logger),
		StationFeed:       hub.Handler(),
	}
	if cfg.Auth.Enforce {
		routes.UserAuth = middleware.RequireUser(tokens)
	}

	a.handler = httpserver.NewRouter(routes)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, cfg.CORS.AllowedOrigins, logger)
	a.hub = hub
	a.engine = engine
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		sqlDB, err := db.NewPostgres(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = sqlDB
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(context.Background(), sqlDB); err != nil {
				return nil, err
			}
			a.logger.Info("schema migrated")
		}
		return repository.NewPostgresStore(sqlDB), nil
	default:
		store := repository.NewMemoryStore()
		if cfg.Storage.SeedDir != "" {
			stations, vehicles, err := repository.SeedDir(context.Background(), store, cfg.Storage.SeedDir)
			if err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
			a.logger.Info("memory store seeded",
				zap.String("dir", cfg.Storage.SeedDir),
				zap.Int("stations", stations),
				zap.Int("vehicles", vehicles),
			)
		}
		return store, nil
	}
}

func (a *App) openLocker(cfg *config.Config) (lock.Locker, error) {
	if cfg.Redis.Addr == "" {
		return lock.NewKeyedMutex(), nil
	}
	client, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	a.redisClient = client
	return lock.NewRedisLocker(client, cfg.LockTTL(), a.logger), nil
}

// Run starts the HTTP server, the station feed and, when configured, the
// expiry sweeper. It returns when ctx is done or any of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.hub.Run(ctx) })
	if a.sweeper != nil {
		g.Go(func() error { return a.sweeper.Run(ctx) })
	}
	g.Go(func() error { return a.server.Run(ctx) })
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.engine != nil {
		a.engine.Wait()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
