package app

import (
	"context"
	"database/sql"
	"net"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tunicharge/internal/config"
	apphttp "tunicharge/internal/http"
	"tunicharge/internal/http/middleware"
	"tunicharge/internal/metrics"
	"tunicharge/internal/password"
	"tunicharge/internal/repository"
	"tunicharge/internal/routing"
	"tunicharge/internal/service"
	"tunicharge/libs/db"
	"tunicharge/libs/redis"
)

// App holds the composed service.
type App struct {
	db     *sql.DB
	cache  *goredis.Client
	server *apphttp.Server
	logger *zap.Logger
}

// New wires repositories, services and the HTTP server from config.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterDefault()

	database, err := db.NewPostgresDB(cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	var cache *goredis.Client
	if cfg.Redis.Addr != "" {
		cache, err = redis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Warn("redis unavailable, route caching disabled", zap.Error(err))
			cache = nil
		}
	}

	users := repository.NewUserRepository(database)
	chargers := repository.NewChargerRepository(database)
	reports := repository.NewReportRepository(database)
	reviews := repository.NewReviewRepository(database)
	favorites := repository.NewFavoriteRepository(database)
	vehicles := repository.NewVehicleRepository(database)
	trips := repository.NewTripRepository(database)

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	auth := service.NewAuthService(users, password.NewBcryptHasher(0), tokens, logger)

	routeClient := routing.NewClient(cfg.Routing.BaseURL, cfg.Routing.APIKey, cfg.Routing.Timeout)
	routes := routing.NewCachedProvider(routeClient, cache, cfg.Routing.CacheTTL, logger)

	aggregator := service.NewStatusAggregator(reports, chargers, logger)
	ranker := service.NewProximityRanker(chargers, reviews, routes, cfg.Routing.Timeout, logger)
	planner := service.NewTripPlanner(vehicles, chargers, trips, routes, cfg.Routing.Timeout, logger)
	chargersSvc := service.NewChargersService(chargers, reports, reviews, aggregator, logger)
	profile := service.NewProfileService(vehicles, favorites, chargers, trips, reviews, reports, logger)

	router := apphttp.NewRouter(apphttp.Deps{
		Auth:     auth,
		Tokens:   tokens,
		Chargers: chargersSvc,
		Ranker:   ranker,
		Planner:  planner,
		Profile:  profile,
		Logger:   logger,
	})

	server := apphttp.NewServer(
		net.JoinHostPort("", cfg.HTTP.Port),
		router,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(),
	)

	return &App{db: database, cache: cache, server: server, logger: logger}, nil
}

// Run serves HTTP until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases held connections.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("database close failed", zap.Error(err))
	}
}
