package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/models"
	"tunicharge/internal/repository"
)

type fakeChargerReader struct {
	chargers []models.Charger
}

func (f *fakeChargerReader) GetByID(ctx context.Context, id int64) (*models.Charger, error) {
	for i := range f.chargers {
		if f.chargers[i].ID == id {
			c := f.chargers[i]
			return &c, nil
		}
	}
	return nil, repository.ErrChargerNotFound
}

func (f *fakeChargerReader) List(ctx context.Context, skip, limit int) ([]models.Charger, int, error) {
	return pageOf(f.chargers, skip, limit), len(f.chargers), nil
}

func (f *fakeChargerReader) Search(ctx context.Context, filter repository.SearchFilter, skip, limit int) ([]models.Charger, int, error) {
	return pageOf(f.chargers, skip, limit), len(f.chargers), nil
}

func (f *fakeChargerReader) SearchAll(ctx context.Context, filter repository.SearchFilter) ([]models.Charger, error) {
	return f.chargers, nil
}

func pageOf(chargers []models.Charger, skip, limit int) []models.Charger {
	if skip >= len(chargers) {
		return nil
	}
	end := skip + limit
	if end > len(chargers) {
		end = len(chargers)
	}
	return chargers[skip:end]
}

type fakeReportStore struct {
	counts    map[string]int
	reports   []models.Report
	lastSince time.Time
	nextID    int64
}

func (f *fakeReportStore) CountByIssueSince(ctx context.Context, chargerID int64, since time.Time) (map[string]int, error) {
	f.lastSince = since
	if f.counts == nil {
		return map[string]int{}, nil
	}
	return f.counts, nil
}

func (f *fakeReportStore) Create(ctx context.Context, report *models.Report) error {
	f.nextID++
	report.ID = f.nextID
	report.Status = "open"
	report.CreatedAt = time.Now().UTC()
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeReportStore) ListForChargerSince(ctx context.Context, chargerID int64, since time.Time) ([]models.Report, error) {
	f.lastSince = since
	return f.reports, nil
}

type fakeReviewStore struct {
	summaries map[int64]models.RatingSummary
}

func (f *fakeReviewStore) RatingSummaries(ctx context.Context) (map[int64]models.RatingSummary, error) {
	if f.summaries == nil {
		return map[int64]models.RatingSummary{}, nil
	}
	return f.summaries, nil
}

func (f *fakeReviewStore) Create(ctx context.Context, review *models.Review) error {
	return nil
}

func (f *fakeReviewStore) ListForCharger(ctx context.Context, chargerID int64) ([]models.Review, error) {
	return nil, nil
}

func newStatusFixture(charger models.Charger, counts map[string]int) (*ChargersService, *fakeStatusWriter, time.Time) {
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	reports := &fakeReportStore{counts: counts}
	writer := &fakeStatusWriter{}

	agg := NewStatusAggregator(reports, writer, zap.NewNop())
	agg.now = func() time.Time { return fixed }

	svc := NewChargersService(&fakeChargerReader{chargers: []models.Charger{charger}}, reports, &fakeReviewStore{}, agg, zap.NewNop())
	svc.now = func() time.Time { return fixed }
	return svc, writer, fixed
}

func TestStatusSummaryRecomputesStaleStatus(t *testing.T) {
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	stale := fixed.Add(-8 * 24 * time.Hour)
	charger := models.Charger{ID: 5, Name: "A", Status: models.StatusWorking, StatusUpdatedAt: &stale}

	svc, writer, now := newStatusFixture(charger, nil)

	summary, err := svc.StatusSummary(context.Background(), 5)
	if err != nil {
		t.Fatalf("StatusSummary() error = %v", err)
	}
	if summary.CurrentStatus != models.StatusUnknown {
		t.Errorf("current_status = %q, want unknown after the window emptied", summary.CurrentStatus)
	}
	if writer.lastID != 5 || writer.lastStatus != models.StatusUnknown {
		t.Errorf("persisted (%d, %q), want (5, unknown)", writer.lastID, writer.lastStatus)
	}
	if summary.StatusUpdatedAt == nil || !summary.StatusUpdatedAt.Equal(now) {
		t.Errorf("status_updated_at = %v, want %v", summary.StatusUpdatedAt, now)
	}
}

func TestStatusSummaryRecomputesWhenNeverComputed(t *testing.T) {
	charger := models.Charger{ID: 9, Name: "B", Status: models.StatusUnknown, StatusUpdatedAt: nil}

	svc, writer, _ := newStatusFixture(charger, map[string]int{models.StatusBroken: 2})

	summary, err := svc.StatusSummary(context.Background(), 9)
	if err != nil {
		t.Fatalf("StatusSummary() error = %v", err)
	}
	if summary.CurrentStatus != models.StatusBroken {
		t.Errorf("current_status = %q, want broken", summary.CurrentStatus)
	}
	if writer.lastID != 9 {
		t.Error("status not recomputed for charger without a timestamp")
	}
	if summary.Broken != 2 || summary.Total != 2 {
		t.Errorf("tally = (broken %d, total %d), want (2, 2)", summary.Broken, summary.Total)
	}
}

func TestStatusSummaryKeepsFreshStatus(t *testing.T) {
	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	fresh := fixed.Add(-time.Hour)
	charger := models.Charger{ID: 3, Name: "C", Status: models.StatusWorking, StatusUpdatedAt: &fresh}

	svc, writer, _ := newStatusFixture(charger, map[string]int{models.StatusWorking: 2})

	summary, err := svc.StatusSummary(context.Background(), 3)
	if err != nil {
		t.Fatalf("StatusSummary() error = %v", err)
	}
	if summary.CurrentStatus != models.StatusWorking {
		t.Errorf("current_status = %q, want working", summary.CurrentStatus)
	}
	if writer.lastID != 0 {
		t.Error("fresh status recomputed; want persisted status served as-is")
	}
	if summary.StatusUpdatedAt == nil || !summary.StatusUpdatedAt.Equal(fresh) {
		t.Errorf("status_updated_at = %v, want original %v", summary.StatusUpdatedAt, fresh)
	}
}

func TestSubmitReportRecomputesSynchronously(t *testing.T) {
	charger := models.Charger{ID: 7, Name: "D", Status: models.StatusWorking}

	svc, writer, _ := newStatusFixture(charger, map[string]int{models.StatusBroken: 1})

	report, status, err := svc.SubmitReport(context.Background(), 7, 1, models.StatusBroken, "dead screen")
	if err != nil {
		t.Fatalf("SubmitReport() error = %v", err)
	}
	if report.ID == 0 {
		t.Error("report not persisted")
	}
	if status != models.StatusBroken || writer.lastID != 7 {
		t.Errorf("recompute result = %q (charger %d), want broken for charger 7", status, writer.lastID)
	}
}

func TestSearchMinRatingPaginatesFilteredSet(t *testing.T) {
	chargers := make([]models.Charger, 0, 5)
	for i := int64(1); i <= 5; i++ {
		chargers = append(chargers, models.Charger{ID: i, Name: "S"})
	}
	reviews := &fakeReviewStore{summaries: map[int64]models.RatingSummary{
		1: {AvgRating: 4.5, ReviewCount: 2},
		2: {AvgRating: 3.0, ReviewCount: 1},
		3: {AvgRating: 5.0, ReviewCount: 4},
		4: {AvgRating: 4.0, ReviewCount: 1},
		// charger 5 has no reviews
	}}

	svc := NewChargersService(&fakeChargerReader{chargers: chargers}, &fakeReportStore{}, reviews, nil, zap.NewNop())

	// Rating filter keeps 1, 3 and 4; the page is cut from that set, so
	// total counts all three and page two holds exactly one entry.
	page, total, err := svc.Search(context.Background(), repository.SearchFilter{}, 4.0, 1, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 1 || page[0].ID != 3 {
		t.Errorf("page = %+v, want only charger 3", page)
	}

	// Skip past the filtered set.
	page, total, err = svc.Search(context.Background(), repository.SearchFilter{}, 4.0, 5, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 || len(page) != 0 {
		t.Errorf("got %d results (total %d), want empty page with total 3", len(page), total)
	}
}
