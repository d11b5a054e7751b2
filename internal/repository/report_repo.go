package repository

import (
	"context"
	"database/sql"
	"time"

	"tunicharge/internal/models"
)

// ReportRepository handles persistence of charger status reports.
// Reports are append-only; nothing here mutates existing rows.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository returns repository instance.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	const query = `
		INSERT INTO charger_reports (charger_id, user_id, issue_type, description, status)
		VALUES ($1, $2, $3, $4, 'open')
		RETURNING id, status, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		report.ChargerID, report.UserID, report.IssueType, report.Description).
		Scan(&report.ID, &report.Status, &report.CreatedAt)
}

// ListForChargerSince returns all reports for a charger created at or after
// the given instant.
func (r *ReportRepository) ListForChargerSince(ctx context.Context, chargerID int64, since time.Time) ([]models.Report, error) {
	const query = `
		SELECT id, charger_id, user_id, issue_type, description, status, created_at
		FROM charger_reports
		WHERE charger_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, chargerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.ChargerID, &rep.UserID, &rep.IssueType,
			&rep.Description, &rep.Status, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// CountByIssueSince tallies in-window reports per issue type for a charger.
func (r *ReportRepository) CountByIssueSince(ctx context.Context, chargerID int64, since time.Time) (map[string]int, error) {
	const query = `
		SELECT issue_type, COUNT(*)
		FROM charger_reports
		WHERE charger_id = $1 AND created_at >= $2
		GROUP BY issue_type
	`
	rows, err := r.db.QueryContext(ctx, query, chargerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var issueType string
		var n int
		if err := rows.Scan(&issueType, &n); err != nil {
			return nil, err
		}
		counts[issueType] = n
	}
	return counts, rows.Err()
}

// CountByUser returns the number of reports authored by a user.
func (r *ReportRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM charger_reports WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
