package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/models"
	"tunicharge/internal/repository"
)

// ChargerReader is the charger read contract consumed by the service.
type ChargerReader interface {
	GetByID(ctx context.Context, id int64) (*models.Charger, error)
	List(ctx context.Context, skip, limit int) ([]models.Charger, int, error)
	Search(ctx context.Context, filter repository.SearchFilter, skip, limit int) ([]models.Charger, int, error)
	SearchAll(ctx context.Context, filter repository.SearchFilter) ([]models.Charger, error)
}

// ReportStore covers report intake and the window scans.
type ReportStore interface {
	ReportSource
	Create(ctx context.Context, report *models.Report) error
	ListForChargerSince(ctx context.Context, chargerID int64, since time.Time) ([]models.Report, error)
}

// ReviewStore covers review intake and aggregates.
type ReviewStore interface {
	RatingSource
	Create(ctx context.Context, review *models.Review) error
	ListForCharger(ctx context.Context, chargerID int64) ([]models.Review, error)
}

// StatusSummary is the read-side status view for one charger.
type StatusSummary struct {
	CurrentStatus   string     `json:"current_status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	Broken          int        `json:"broken"`
	Working         int        `json:"working"`
	Total           int        `json:"total"`
}

// ChargersService covers the charger read surface, reviews and report intake.
type ChargersService struct {
	chargers   ChargerReader
	reports    ReportStore
	reviews    ReviewStore
	aggregator *StatusAggregator
	now        func() time.Time
	logger     *zap.Logger
}

// NewChargersService builds the service.
func NewChargersService(
	chargers ChargerReader,
	reports ReportStore,
	reviews ReviewStore,
	aggregator *StatusAggregator,
	logger *zap.Logger,
) *ChargersService {
	return &ChargersService{
		chargers:   chargers,
		reports:    reports,
		reviews:    reviews,
		aggregator: aggregator,
		now:        time.Now,
		logger:     logger,
	}
}

// Get fetches a single charger.
func (s *ChargersService) Get(ctx context.Context, id int64) (*models.Charger, error) {
	return s.chargers.GetByID(ctx, id)
}

// List returns a page of chargers with rating annotations.
func (s *ChargersService) List(ctx context.Context, skip, limit int) ([]models.ChargerWithRating, int, error) {
	chargers, total, err := s.chargers.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	annotated, err := s.annotate(ctx, chargers)
	if err != nil {
		return nil, 0, err
	}
	return annotated, total, nil
}

// Search returns chargers matching the filter. Rating data lives with the
// review collaborator, not in the chargers table, so a min_rating query pulls
// the full match set, filters it by rating and paginates in memory; total then
// counts the rating-filtered set, not the page.
func (s *ChargersService) Search(ctx context.Context, filter repository.SearchFilter, minRating float64, skip, limit int) ([]models.ChargerWithRating, int, error) {
	if minRating <= 0 {
		chargers, total, err := s.chargers.Search(ctx, filter, skip, limit)
		if err != nil {
			return nil, 0, err
		}
		annotated, err := s.annotate(ctx, chargers)
		if err != nil {
			return nil, 0, err
		}
		return annotated, total, nil
	}

	chargers, err := s.chargers.SearchAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	annotated, err := s.annotate(ctx, chargers)
	if err != nil {
		return nil, 0, err
	}

	filtered := annotated[:0]
	for _, c := range annotated {
		if c.AvgRating != nil && *c.AvgRating >= minRating {
			filtered = append(filtered, c)
		}
	}
	total := len(filtered)

	if skip >= total {
		return []models.ChargerWithRating{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return filtered[skip:end], total, nil
}

func (s *ChargersService) annotate(ctx context.Context, chargers []models.Charger) ([]models.ChargerWithRating, error) {
	summaries, err := s.reviews.RatingSummaries(ctx)
	if err != nil {
		return nil, err
	}
	annotated := make([]models.ChargerWithRating, 0, len(chargers))
	for _, c := range chargers {
		entry := models.ChargerWithRating{Charger: c}
		if summary, ok := summaries[c.ID]; ok {
			avg := math.Round(summary.AvgRating*10) / 10
			entry.AvgRating = &avg
			entry.ReviewCount = summary.ReviewCount
		}
		annotated = append(annotated, entry)
	}
	return annotated, nil
}

// SubmitReport stores a crowd report and synchronously recomputes the
// charger's status in the same unit of work.
func (s *ChargersService) SubmitReport(ctx context.Context, chargerID, userID int64, issueType, description string) (*models.Report, string, error) {
	if _, err := s.chargers.GetByID(ctx, chargerID); err != nil {
		return nil, "", err
	}

	report := &models.Report{
		ChargerID:   chargerID,
		UserID:      &userID,
		IssueType:   issueType,
		Description: description,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, "", err
	}

	status, err := s.aggregator.Recompute(ctx, chargerID)
	if err != nil {
		return nil, "", err
	}
	return report, status, nil
}

// StatusSummary returns the charger's live status plus the trailing-window
// report tally. When the persisted status predates the report window it is
// recomputed lazily here, so a charger whose window has emptied reads as
// unknown without needing a background sweep.
func (s *ChargersService) StatusSummary(ctx context.Context, chargerID int64) (*StatusSummary, error) {
	charger, err := s.chargers.GetByID(ctx, chargerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := charger.Status
	updatedAt := charger.StatusUpdatedAt
	if updatedAt == nil || updatedAt.Before(now.Add(-ReportWindow)) {
		recomputed, err := s.aggregator.Recompute(ctx, chargerID)
		if err != nil {
			return nil, err
		}
		status = recomputed
		updatedAt = &now
	}

	counts, err := s.reports.CountByIssueSince(ctx, chargerID, now.Add(-ReportWindow))
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	return &StatusSummary{
		CurrentStatus:   status,
		StatusUpdatedAt: updatedAt,
		Broken:          counts[models.StatusBroken],
		Working:         counts[models.StatusWorking],
		Total:           total,
	}, nil
}

// ListRecentReports returns the charger's reports inside the trailing window,
// newest first.
func (s *ChargersService) ListRecentReports(ctx context.Context, chargerID int64) ([]models.Report, error) {
	if _, err := s.chargers.GetByID(ctx, chargerID); err != nil {
		return nil, err
	}
	since := s.now().UTC().Add(-ReportWindow)
	return s.reports.ListForChargerSince(ctx, chargerID, since)
}

// AddReview stores a user's rating for a charger.
func (s *ChargersService) AddReview(ctx context.Context, chargerID, userID int64, rating int, comment *string) (*models.Review, error) {
	if _, err := s.chargers.GetByID(ctx, chargerID); err != nil {
		return nil, err
	}
	review := &models.Review{
		UserID:    userID,
		ChargerID: chargerID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews returns a charger's reviews, newest first.
func (s *ChargersService) ListReviews(ctx context.Context, chargerID int64) ([]models.Review, error) {
	if _, err := s.chargers.GetByID(ctx, chargerID); err != nil {
		return nil, err
	}
	return s.reviews.ListForCharger(ctx, chargerID)
}
