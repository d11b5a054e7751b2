package repository

import (
	"context"
	"database/sql"
	"errors"

	"tunicharge/internal/models"
)

// ErrDuplicateReview indicates a user already reviewed a charger.
var ErrDuplicateReview = errors.New("review already exists")

// ReviewRepository handles persistence of charger reviews.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository returns repository instance.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review, enforcing one review per (user, charger).
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND charger_id = $2)`,
		review.UserID, review.ChargerID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReview
	}

	const query = `
		INSERT INTO reviews (user_id, charger_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, helpful_count, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		review.UserID, review.ChargerID, review.Rating, review.Comment).
		Scan(&review.ID, &review.HelpfulCount, &review.CreatedAt)
}

// ListForCharger returns reviews for a charger, newest first.
func (r *ReviewRepository) ListForCharger(ctx context.Context, chargerID int64) ([]models.Review, error) {
	const query = `
		SELECT id, user_id, charger_id, rating, comment, helpful_count, created_at
		FROM reviews
		WHERE charger_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, chargerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.ChargerID, &rev.Rating,
			&rev.Comment, &rev.HelpfulCount, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// RatingSummaries returns per-charger average rating and review count for
// every charger that has at least one review.
func (r *ReviewRepository) RatingSummaries(ctx context.Context) (map[int64]models.RatingSummary, error) {
	const query = `
		SELECT charger_id, AVG(rating)::float8, COUNT(*)
		FROM reviews
		GROUP BY charger_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[int64]models.RatingSummary)
	for rows.Next() {
		var chargerID int64
		var summary models.RatingSummary
		if err := rows.Scan(&chargerID, &summary.AvgRating, &summary.ReviewCount); err != nil {
			return nil, err
		}
		summaries[chargerID] = summary
	}
	return summaries, rows.Err()
}

// CountByUser returns the number of reviews written by a user.
func (r *ReviewRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
