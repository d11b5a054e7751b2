package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/models"
)

// ErrInvalidVehicle is returned for malformed vehicle profiles.
var ErrInvalidVehicle = errors.New("profile: connector type required and range must be positive")

// co2SavedPerKm approximates avoided tailpipe emissions versus a petrol car.
const co2SavedPerKm = 0.12

// VehicleStore persists per-user vehicle profiles.
type VehicleStore interface {
	VehicleSource
	Upsert(ctx context.Context, vehicle *models.Vehicle) error
}

// FavoriteStore persists user favorites.
type FavoriteStore interface {
	Add(ctx context.Context, userID, chargerID int64) error
	Remove(ctx context.Context, userID, chargerID int64) error
	ListByUser(ctx context.Context, userID int64) ([]models.Charger, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// ChargerGetter fetches a single charger, used for existence checks.
type ChargerGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Charger, error)
}

// TripStatsSource aggregates a user's trip count and planned distance.
type TripStatsSource interface {
	StatsByUser(ctx context.Context, userID int64) (int, float64, error)
}

// ActivityCounter counts a user's rows in one activity table.
type ActivityCounter interface {
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// ProfileService covers the per-user surface: vehicle, favorites, statistics.
type ProfileService struct {
	vehicles  VehicleStore
	favorites FavoriteStore
	chargers  ChargerGetter
	trips     TripStatsSource
	reviews   ActivityCounter
	reports   ActivityCounter
	logger    *zap.Logger
}

// NewProfileService builds the service.
func NewProfileService(
	vehicles VehicleStore,
	favorites FavoriteStore,
	chargers ChargerGetter,
	trips TripStatsSource,
	reviews ActivityCounter,
	reports ActivityCounter,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		vehicles:  vehicles,
		favorites: favorites,
		chargers:  chargers,
		trips:     trips,
		reviews:   reviews,
		reports:   reports,
		logger:    logger,
	}
}

// Vehicle returns the user's vehicle profile.
func (s *ProfileService) Vehicle(ctx context.Context, userID int64) (*models.Vehicle, error) {
	return s.vehicles.GetByUser(ctx, userID)
}

// SaveVehicle creates or replaces the user's vehicle profile.
func (s *ProfileService) SaveVehicle(ctx context.Context, userID int64, connectorType string, rangeKm, batteryKWh *float64) (*models.Vehicle, error) {
	if connectorType == "" {
		return nil, ErrInvalidVehicle
	}
	if rangeKm != nil && *rangeKm <= 0 {
		return nil, ErrInvalidVehicle
	}
	if batteryKWh != nil && *batteryKWh <= 0 {
		return nil, ErrInvalidVehicle
	}

	vehicle := &models.Vehicle{
		UserID:             userID,
		ConnectorType:      connectorType,
		RangeKm:            rangeKm,
		BatteryCapacityKWh: batteryKWh,
	}
	if err := s.vehicles.Upsert(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// AddFavorite marks a charger as a favorite after verifying it exists.
func (s *ProfileService) AddFavorite(ctx context.Context, userID, chargerID int64) error {
	if _, err := s.chargers.GetByID(ctx, chargerID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, chargerID)
}

// RemoveFavorite deletes a favorite.
func (s *ProfileService) RemoveFavorite(ctx context.Context, userID, chargerID int64) error {
	return s.favorites.Remove(ctx, userID, chargerID)
}

// ListFavorites returns the user's favorited chargers.
func (s *ProfileService) ListFavorites(ctx context.Context, userID int64) ([]models.Charger, error) {
	return s.favorites.ListByUser(ctx, userID)
}

// Stats summarizes the user's activity.
func (s *ProfileService) Stats(ctx context.Context, userID int64) (*models.UserStats, error) {
	tripCount, distance, err := s.trips.StatsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewCount, err := s.reviews.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	favoriteCount, err := s.favorites.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reportCount, err := s.reports.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		TotalTrips:      tripCount,
		TotalReviews:    reviewCount,
		TotalFavorites:  favoriteCount,
		TotalReports:    reportCount,
		TotalDistanceKm: geo.RoundKm(distance),
		CO2SavedKg:      geo.RoundKm(distance * co2SavedPerKm),
	}, nil
}
