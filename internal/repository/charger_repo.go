package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tunicharge/internal/models"
)

// ErrChargerNotFound represents missing charger rows.
var ErrChargerNotFound = errors.New("charger not found")

// ChargerRepository handles persistence of charging stations.
type ChargerRepository struct {
	db *sql.DB
}

// NewChargerRepository returns repository instance.
func NewChargerRepository(db *sql.DB) *ChargerRepository {
	return &ChargerRepository{db: db}
}

const chargerColumns = `id, name, city, latitude, longitude, usage_type, COALESCE(connector_type, ''), COALESCE(status, 'unknown'), status_updated_at`

func scanCharger(row interface{ Scan(...any) error }) (*models.Charger, error) {
	var c models.Charger
	err := row.Scan(&c.ID, &c.Name, &c.City, &c.Latitude, &c.Longitude,
		&c.UsageType, &c.ConnectorType, &c.Status, &c.StatusUpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID fetches a single charger.
func (r *ChargerRepository) GetByID(ctx context.Context, id int64) (*models.Charger, error) {
	query := fmt.Sprintf(`SELECT %s FROM chargers WHERE id = $1`, chargerColumns)
	c, err := scanCharger(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChargerNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListAll returns every charger. The proximity ranker filters and ranks the
// full candidate set in memory.
func (r *ChargerRepository) ListAll(ctx context.Context) ([]models.Charger, error) {
	query := fmt.Sprintf(`SELECT %s FROM chargers ORDER BY id`, chargerColumns)
	rows, err := r.db.QueryContext(ctx, query)
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

// List returns a page of chargers plus the total row count.
func (r *ChargerRepository) List(ctx context.Context, skip, limit int) ([]models.Charger, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chargers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM chargers ORDER BY id OFFSET $1 LIMIT $2`, chargerColumns)
	rows, err := r.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var chargers []models.Charger
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, 0, err
		}
		chargers = append(chargers, *c)
	}
	return chargers, total, rows.Err()
}

// SearchFilter narrows Search results. Zero values mean "no filter".
type SearchFilter struct {
	City          string
	UsageType     string
	ConnectorType string
	Status        string
}

// whereClause builds the WHERE clause and arguments for a filter. City, usage
// and connector use case-insensitive containment matching, status is exact.
func (f SearchFilter) whereClause() (string, []any) {
	where := []string{"TRUE"}
	args := []any{}

	addILike := func(column, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		args = append(args, "%"+strings.TrimSpace(value)+"%")
		where = append(where, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addILike("city", f.City)
	addILike("usage_type", f.UsageType)
	addILike("connector_type", f.ConnectorType)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("COALESCE(status, 'unknown') = $%d", len(args)))
	}

	return strings.Join(where, " AND "), args
}

// SearchAll returns every charger matching the filter, unpaginated. Used when
// a post-query filter has to see the full match set.
func (r *ChargerRepository) SearchAll(ctx context.Context, filter SearchFilter) ([]models.Charger, error) {
	clause, args := filter.whereClause()
	query := fmt.Sprintf(`SELECT %s FROM chargers WHERE %s ORDER BY id`, chargerColumns, clause)
	rows, err := r.db.QueryContext(ctx, query, args...)
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

// Search returns a page of chargers matching the filter plus the total match
// count.
func (r *ChargerRepository) Search(ctx context.Context, filter SearchFilter, skip, limit int) ([]models.Charger, int, error) {
	clause, args := filter.whereClause()

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM chargers WHERE %s`, clause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, skip, limit)
	query := fmt.Sprintf(`SELECT %s FROM chargers WHERE %s ORDER BY id OFFSET $%d LIMIT $%d`,
		chargerColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var chargers []models.Charger
	for rows.Next() {
		c, err := scanCharger(rows)
		if err != nil {
			return nil, 0, err
		}
		chargers = append(chargers, *c)
	}
	return chargers, total, rows.Err()
}

// UpdateStatus writes the aggregated status and its recompute timestamp.
func (r *ChargerRepository) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	const query = `
		UPDATE chargers
		SET status = $2, status_updated_at = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrChargerNotFound
	}
	return nil
}

// Upsert inserts or refreshes an imported charger, matched by name+location.
func (r *ChargerRepository) Upsert(ctx context.Context, c *models.Charger) error {
	const query = `
		INSERT INTO chargers (name, city, latitude, longitude, usage_type, connector_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'unknown')
		ON CONFLICT (name, latitude, longitude) DO UPDATE SET
			city = EXCLUDED.city,
			usage_type = EXCLUDED.usage_type,
			connector_type = EXCLUDED.connector_type
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		c.Name, c.City, c.Latitude, c.Longitude, c.UsageType, c.ConnectorType).Scan(&c.ID)
}
