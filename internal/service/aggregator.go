package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/metrics"
	"tunicharge/internal/models"
)

// ReportWindow is the trailing report window feeding status aggregation.
const ReportWindow = 7 * 24 * time.Hour

// ReportSource is the time-filtered scan contract used by the aggregator.
type ReportSource interface {
	CountByIssueSince(ctx context.Context, chargerID int64, since time.Time) (map[string]int, error)
}

// StatusWriter persists the derived status.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error
}

// StatusAggregator derives a charger's live status from the trailing report
// window via a weighted majority vote. It runs synchronously in the same unit
// of work as each report insert; concurrent recomputes race last-write-wins,
// which self-corrects on the next recompute since the tally is deterministic
// from persisted reports.
type StatusAggregator struct {
	reports  ReportSource
	chargers StatusWriter
	now      func() time.Time
	logger   *zap.Logger
}

// NewStatusAggregator builds the aggregator.
func NewStatusAggregator(reports ReportSource, chargers StatusWriter, logger *zap.Logger) *StatusAggregator {
	return &StatusAggregator{
		reports:  reports,
		chargers: chargers,
		now:      time.Now,
		logger:   logger,
	}
}

// Recompute re-scans the trailing window for the charger, resolves the
// majority-vote status and persists it together with the recompute timestamp.
func (a *StatusAggregator) Recompute(ctx context.Context, chargerID int64) (string, error) {
	now := a.now().UTC()
	counts, err := a.reports.CountByIssueSince(ctx, chargerID, now.Add(-ReportWindow))
	if err != nil {
		return "", err
	}

	status := resolveStatus(counts)
	if err := a.chargers.UpdateStatus(ctx, chargerID, status, now); err != nil {
		return "", err
	}

	metrics.StatusRecomputes.WithLabelValues(status).Inc()
	a.logger.Info("charger status recomputed",
		zap.Int64("charger_id", chargerID), zap.String("status", status))
	return status, nil
}

// resolveStatus applies the tie-break priority chain. The chain is
// deliberately asymmetric: a broken report is never outvoted unless working
// reports strictly exceed it. It is also not a total order on the counts
// ({broken:1, occupied:5} resolves to broken via the first clause); that is
// the established behavior and changing it needs a product decision.
func resolveStatus(counts map[string]int) string {
	broken := counts[models.StatusBroken]
	working := counts[models.StatusWorking]
	occupied := counts[models.StatusOccupied]
	construction := counts[models.StatusUnderConstruction]

	switch {
	case broken > 0 && broken >= working:
		return models.StatusBroken
	case occupied > working:
		return models.StatusOccupied
	case construction > working:
		return models.StatusUnderConstruction
	case working > 0:
		return models.StatusWorking
	default:
		return models.StatusUnknown
	}
}
