package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/models"
	"tunicharge/internal/repository"
	"tunicharge/internal/routing"
)

// Trip planning sentinels.
var (
	ErrVehicleIncomplete = errors.New("plan: vehicle with range and connector type required")
	ErrTripForbidden     = errors.New("plan: trip belongs to another user")
)

// detourRadiusKm bounds how far off the route midpoint a charging stop may be.
const detourRadiusKm = 50.0

// VehicleSource fetches the planning user's vehicle profile.
type VehicleSource interface {
	GetByUser(ctx context.Context, userID int64) (*models.Vehicle, error)
}

// TripStore persists and serves planned trips.
type TripStore interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Trip, error)
	Delete(ctx context.Context, id int64) error
}

// TripPlanner checks range feasibility for a journey and, when the vehicle
// cannot cover it, picks a single charging detour near the route midpoint.
type TripPlanner struct {
	vehicles     VehicleSource
	chargers     ChargerSource
	trips        TripStore
	routes       routing.Provider
	routeTimeout time.Duration
	logger       *zap.Logger
}

// NewTripPlanner builds the planner.
func NewTripPlanner(vehicles VehicleSource, chargers ChargerSource, trips TripStore, routes routing.Provider, routeTimeout time.Duration, logger *zap.Logger) *TripPlanner {
	if routeTimeout <= 0 {
		routeTimeout = 8 * time.Second
	}
	return &TripPlanner{
		vehicles:     vehicles,
		chargers:     chargers,
		trips:        trips,
		routes:       routes,
		routeTimeout: routeTimeout,
		logger:       logger,
	}
}

// Plan computes and persists a trip for the user. The primary leg requires a
// precise route; range feasibility cannot be judged from a straight-line
// estimate, so provider failure surfaces as routing.ErrRouteUnavailable
// instead of falling back.
func (p *TripPlanner) Plan(ctx context.Context, userID int64, start, end geo.Coordinate) (*models.Trip, error) {
	vehicle, err := p.vehicles.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			return nil, ErrVehicleIncomplete
		}
		return nil, err
	}
	if vehicle.ConnectorType == "" || vehicle.RangeKm == nil {
		return nil, ErrVehicleIncomplete
	}

	routeCtx, cancel := context.WithTimeout(ctx, p.routeTimeout)
	defer cancel()
	route, err := p.routes.DrivingRoute(routeCtx, start, end)
	if err != nil {
		return nil, routing.ErrRouteUnavailable
	}

	waypoints := []models.Waypoint{}
	if route.DistanceKm > *vehicle.RangeKm {
		if stop := p.findDetourStop(ctx, geo.Midpoint(start, end), vehicle.ConnectorType); stop != nil {
			waypoints = append(waypoints, *stop)
		} else {
			p.logger.Warn("no compatible detour station near midpoint",
				zap.Int64("user_id", userID), zap.Float64("distance_km", route.DistanceKm))
		}
	}

	payload, err := json.Marshal(waypoints)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		UserID:                   userID,
		StartLat:                 start.Lat,
		StartLon:                 start.Lon,
		EndLat:                   end.Lat,
		EndLon:                   end.Lon,
		Waypoints:                string(payload),
		TotalDistanceKm:          route.DistanceKm,
		EstimatedDurationMinutes: route.DurationMinutes,
	}
	if err := p.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// findDetourStop returns the nearest connector-compatible station within
// detourRadiusKm of the midpoint, or nil when none qualifies. The caller is
// responsible for warning the user; an empty result is not an error.
func (p *TripPlanner) findDetourStop(ctx context.Context, midpoint geo.Coordinate, connectorType string) *models.Waypoint {
	all, err := p.chargers.ListAll(ctx)
	if err != nil {
		p.logger.Warn("detour station scan failed", zap.Error(err))
		return nil
	}

	var best *models.Charger
	var bestDist float64
	for i, c := range all {
		if !connectorMatches(c.ConnectorType, connectorType) {
			continue
		}
		d := geo.Haversine(midpoint, geo.Coordinate{Lat: c.Latitude, Lon: c.Longitude})
		if d > detourRadiusKm {
			continue
		}
		if best == nil || d < bestDist {
			best = &all[i]
			bestDist = d
		}
	}
	if best == nil {
		return nil
	}
	return &models.Waypoint{
		StationID: best.ID,
		Name:      best.Name,
		Latitude:  best.Latitude,
		Longitude: best.Longitude,
	}
}

// ListByUser returns the user's planned trips.
func (p *TripPlanner) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	return p.trips.ListByUser(ctx, userID)
}

// Delete removes a trip after verifying ownership.
func (p *TripPlanner) Delete(ctx context.Context, userID, tripID int64) error {
	trip, err := p.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.UserID != userID {
		return ErrTripForbidden
	}
	return p.trips.Delete(ctx, tripID)
}
