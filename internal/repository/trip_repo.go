package repository

import (
	"context"
	"database/sql"
	"errors"

	"tunicharge/internal/models"
)

// ErrTripNotFound represents missing trip rows.
var ErrTripNotFound = errors.New("trip not found")

// TripRepository handles persistence of planned trips.
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository returns repository instance.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts a planned trip.
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	const query = `
		INSERT INTO trips (user_id, start_lat, start_lon, end_lat, end_lon, waypoints, total_distance_km, estimated_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		trip.UserID, trip.StartLat, trip.StartLon, trip.EndLat, trip.EndLon,
		trip.Waypoints, trip.TotalDistanceKm, trip.EstimatedDurationMinutes).
		Scan(&trip.ID, &trip.CreatedAt)
}

// GetByID fetches a trip.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	const query = `
		SELECT id, user_id, start_lat, start_lon, end_lat, end_lon, waypoints, total_distance_km, estimated_duration_minutes, created_at
		FROM trips
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var t models.Trip
	if err := row.Scan(&t.ID, &t.UserID, &t.StartLat, &t.StartLon, &t.EndLat, &t.EndLon,
		&t.Waypoints, &t.TotalDistanceKm, &t.EstimatedDurationMinutes, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByUser returns a user's trips, newest first.
func (r *TripRepository) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	const query = `
		SELECT id, user_id, start_lat, start_lon, end_lat, end_lon, waypoints, total_distance_km, estimated_duration_minutes, created_at
		FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.StartLat, &t.StartLon, &t.EndLat, &t.EndLon,
			&t.Waypoints, &t.TotalDistanceKm, &t.EstimatedDurationMinutes, &t.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Delete removes a trip.
func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTripNotFound
	}
	return nil
}

// StatsByUser returns trip count and total planned distance for a user.
func (r *TripRepository) StatsByUser(ctx context.Context, userID int64) (int, float64, error) {
	var count int
	var distance float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_distance_km), 0) FROM trips WHERE user_id = $1`,
		userID).Scan(&count, &distance)
	return count, distance, err
}
