package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunicharge/internal/http/handlers"
	"tunicharge/internal/http/middleware"
	"tunicharge/internal/metrics"
	"tunicharge/internal/service"
)

// Deps carries everything the router needs to wire handlers.
type Deps struct {
	Auth     *service.AuthService
	Tokens   *service.TokenService
	Chargers *service.ChargersService
	Ranker   *service.ProximityRanker
	Planner  *service.TripPlanner
	Profile  *service.ProfileService
	Logger   *zap.Logger
}

// NewRouter builds the full route table.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	authed := middleware.AuthMiddleware(deps.Tokens)

	authHandlers := handlers.NewAuthHandlers(deps.Auth, deps.Logger)
	chargerHandlers := handlers.NewChargerHandlers(deps.Chargers, deps.Ranker, deps.Logger)
	tripHandlers := handlers.NewTripHandlers(deps.Planner, deps.Logger)
	profileHandlers := handlers.NewProfileHandlers(deps.Profile, deps.Logger)

	mux.HandleFunc("GET /health", handlers.NewHealthHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /auth/register", authHandlers.Register)
	mux.HandleFunc("POST /auth/login", authHandlers.Login)

	mux.HandleFunc("GET /chargers", chargerHandlers.List)
	mux.HandleFunc("GET /chargers/search", chargerHandlers.Search)
	mux.HandleFunc("GET /chargers/nearby", chargerHandlers.Nearby)
	mux.HandleFunc("GET /chargers/{id}", chargerHandlers.Get)
	mux.HandleFunc("GET /chargers/{id}/status", chargerHandlers.Status)
	mux.HandleFunc("GET /chargers/{id}/reviews", chargerHandlers.ListReviews)
	mux.HandleFunc("GET /chargers/{id}/reports", chargerHandlers.ListReports)
	mux.Handle("POST /chargers/{id}/report", authed(http.HandlerFunc(chargerHandlers.Report)))
	mux.Handle("POST /chargers/{id}/reviews", authed(http.HandlerFunc(chargerHandlers.AddReview)))

	mux.Handle("GET /users/me/vehicle", authed(http.HandlerFunc(profileHandlers.GetVehicle)))
	mux.Handle("POST /users/me/vehicle", authed(http.HandlerFunc(profileHandlers.SaveVehicle)))
	mux.Handle("GET /users/me/stats", authed(http.HandlerFunc(profileHandlers.Stats)))

	mux.Handle("GET /favorites", authed(http.HandlerFunc(profileHandlers.ListFavorites)))
	mux.Handle("POST /favorites/{id}", authed(http.HandlerFunc(profileHandlers.AddFavorite)))
	mux.Handle("DELETE /favorites/{id}", authed(http.HandlerFunc(profileHandlers.RemoveFavorite)))

	mux.Handle("POST /trips/plan", authed(http.HandlerFunc(tripHandlers.Plan)))
	mux.Handle("GET /trips", authed(http.HandlerFunc(tripHandlers.List)))
	mux.Handle("DELETE /trips/{id}", authed(http.HandlerFunc(tripHandlers.Delete)))

	return mux
}
