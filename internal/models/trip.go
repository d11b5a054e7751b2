package models

import "time"

// Waypoint is a charging stop along a planned trip.
type Waypoint struct {
	StationID int64   `json:"station_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Trip is a planned journey with at most one charging waypoint. Immutable
// after creation; only deletable by its owner.
type Trip struct {
	ID                       int64     `db:"id" json:"id"`
	UserID                   int64     `db:"user_id" json:"user_id"`
	StartLat                 float64   `db:"start_lat" json:"start_lat"`
	StartLon                 float64   `db:"start_lon" json:"start_lon"`
	EndLat                   float64   `db:"end_lat" json:"end_lat"`
	EndLon                   float64   `db:"end_lon" json:"end_lon"`
	Waypoints                string    `db:"waypoints" json:"waypoints"`
	TotalDistanceKm          float64   `db:"total_distance_km" json:"total_distance_km"`
	EstimatedDurationMinutes float64   `db:"estimated_duration_minutes" json:"estimated_duration_minutes"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
}
