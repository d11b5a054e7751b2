package models

import "time"

// Charger statuses derived from crowd reports.
const (
	StatusUnknown           = "unknown"
	StatusWorking           = "working"
	StatusBroken            = "broken"
	StatusOccupied          = "occupied"
	StatusUnderConstruction = "under_construction"
)

// Distance type tags on ranked results.
const (
	DistanceTypeDriving      = "driving"
	DistanceTypeStraightLine = "straight_line"
)

// Charger is a charging station record.
type Charger struct {
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	City            string     `db:"city" json:"city"`
	Latitude        float64    `db:"latitude" json:"latitude"`
	Longitude       float64    `db:"longitude" json:"longitude"`
	UsageType       string     `db:"usage_type" json:"usage_type"`
	ConnectorType   string     `db:"connector_type" json:"connector_type"`
	Status          string     `db:"status" json:"status"`
	StatusUpdatedAt *time.Time `db:"status_updated_at" json:"status_updated_at,omitempty"`
}

// RankedCharger is a charger annotated with distance from a search origin.
// Derived at query time, never persisted.
type RankedCharger struct {
	Charger
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes float64  `json:"duration_minutes"`
	DistanceType    string   `json:"distance_type"`
	AvgRating       *float64 `json:"avg_rating,omitempty"`
	ReviewCount     int      `json:"review_count"`
}

// Report is a crowd-sourced status report for a charger. Append-only.
type Report struct {
	ID          int64     `db:"id" json:"id"`
	ChargerID   int64     `db:"charger_id" json:"charger_id"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
	IssueType   string    `db:"issue_type" json:"issue_type"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ValidIssueType reports whether t is one of the accepted report issue types.
func ValidIssueType(t string) bool {
	switch t {
	case StatusWorking, StatusBroken, StatusOccupied, StatusUnderConstruction:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known charger status.
func ValidStatus(s string) bool {
	return s == StatusUnknown || ValidIssueType(s)
}

// Review is a user rating for a charger. One per (user, charger).
type Review struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	ChargerID    int64     `db:"charger_id" json:"charger_id"`
	Rating       int       `db:"rating" json:"rating"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	HelpfulCount int       `db:"helpful_count" json:"helpful_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChargerWithRating is a charger annotated with review aggregates.
type ChargerWithRating struct {
	Charger
	AvgRating   *float64 `json:"avg_rating,omitempty"`
	ReviewCount int      `json:"review_count"`
}

// RatingSummary aggregates review data for a charger.
type RatingSummary struct {
	AvgRating   float64
	ReviewCount int
}
