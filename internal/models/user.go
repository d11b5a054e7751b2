package models

import "time"

// User is a registered account.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Vehicle is a user's EV profile, one per user. Trip planning requires both
// connector type and range to be present.
type Vehicle struct {
	ID                 int64    `db:"id" json:"id"`
	UserID             int64    `db:"user_id" json:"user_id"`
	ConnectorType      string   `db:"connector_type" json:"connector_type"`
	RangeKm            *float64 `db:"range_km" json:"range_km,omitempty"`
	BatteryCapacityKWh *float64 `db:"battery_capacity_kwh" json:"battery_capacity_kwh,omitempty"`
}

// UserStats summarizes a user's activity.
type UserStats struct {
	TotalTrips      int     `json:"total_trips"`
	TotalReviews    int     `json:"total_reviews"`
	TotalFavorites  int     `json:"total_favorites"`
	TotalReports    int     `json:"total_reports"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	CO2SavedKg      float64 `json:"co2_saved_kg"`
}
