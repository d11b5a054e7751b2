package repository

import (
	"context"
	"database/sql"
	"errors"

	"tunicharge/internal/models"
)

// ErrVehicleNotFound represents missing vehicle rows.
var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleRepository handles the one-vehicle-per-user profile.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository instance.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Upsert creates or replaces a user's vehicle.
func (r *VehicleRepository) Upsert(ctx context.Context, vehicle *models.Vehicle) error {
	const query = `
		INSERT INTO vehicles (user_id, connector_type, range_km, battery_capacity_kwh)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			connector_type = EXCLUDED.connector_type,
			range_km = EXCLUDED.range_km,
			battery_capacity_kwh = EXCLUDED.battery_capacity_kwh
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		vehicle.UserID, vehicle.ConnectorType, vehicle.RangeKm, vehicle.BatteryCapacityKWh).
		Scan(&vehicle.ID)
}

// GetByUser fetches the user's vehicle.
func (r *VehicleRepository) GetByUser(ctx context.Context, userID int64) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, connector_type, range_km, battery_capacity_kwh
		FROM vehicles
		WHERE user_id = $1
	`
	row := r.db.QueryRowContext(ctx, query, userID)
	var v models.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.ConnectorType, &v.RangeKm, &v.BatteryCapacityKWh); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}
