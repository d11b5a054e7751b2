package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tunicharge/internal/models"
)

// Favorite repository sentinels.
var (
	ErrDuplicateFavorite = errors.New("charger already in favorites")
	ErrFavoriteNotFound  = errors.New("favorite not found")
)

// FavoriteRepository handles the user-charger favorites relation.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository returns repository instance.
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add marks a charger as a user's favorite.
func (r *FavoriteRepository) Add(ctx context.Context, userID, chargerID int64) error {
	const query = `
		INSERT INTO favorites (user_id, charger_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, charger_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, userID, chargerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateFavorite
	}
	return nil
}

// Remove deletes a favorite.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, chargerID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND charger_id = $2`, userID, chargerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser returns the chargers a user has favorited.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]models.Charger, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM chargers c
		JOIN favorites f ON f.charger_id = c.id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, prefixedChargerColumns("c"))
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chargers []models.Charger
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, err
		}
		chargers = append(chargers, *c)
	}
	return chargers, rows.Err()
}

// CountByUser returns the number of favorites a user has.
func (r *FavoriteRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func prefixedChargerColumns(alias string) string {
	return fmt.Sprintf(`%s.id, %s.name, %s.city, %s.latitude, %s.longitude, %s.usage_type, COALESCE(%s.connector_type, ''), COALESCE(%s.status, 'unknown'), %s.status_updated_at`,
		alias, alias, alias, alias, alias, alias, alias, alias, alias)
}
