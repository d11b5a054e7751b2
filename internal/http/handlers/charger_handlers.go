package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/http/middleware"
	"tunicharge/internal/models"
	"tunicharge/internal/repository"
	"tunicharge/internal/service"
)

// Nearby-search parameter bounds.
const (
	defaultNearbyLimit = 10
	maxNearbyLimit     = 27
	defaultRadiusKm    = 100.0
	maxRadiusKm        = 500.0
)

// ChargerHandlers covers the charger read surface, proximity search, status
// and report/review intake.
type ChargerHandlers struct {
	chargers *service.ChargersService
	ranker   *service.ProximityRanker
	logger   *zap.Logger
}

// NewChargerHandlers returns handler set.
func NewChargerHandlers(chargers *service.ChargersService, ranker *service.ProximityRanker, logger *zap.Logger) *ChargerHandlers {
	return &ChargerHandlers{chargers: chargers, ranker: ranker, logger: logger}
}

// List handles GET /chargers.
func (h *ChargerHandlers) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}

	chargers, total, err := h.chargers.List(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list chargers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list chargers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"skip":     skip,
		"limit":    limit,
		"chargers": chargers,
	})
}

// Get handles GET /chargers/{id}.
func (h *ChargerHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	charger, err := h.chargers.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.logger.Error("get charger failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load charger")
		return
	}

	writeJSON(w, http.StatusOK, charger)
}

// Search handles GET /chargers/search.
func (h *ChargerHandlers) Search(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}

	minRating, ok := queryFloat(r, "min_rating", 0)
	if !ok || minRating < 0 || minRating > 5 {
		writeError(w, http.StatusBadRequest, "min_rating must be between 0 and 5")
		return
	}

	query := r.URL.Query()
	status := query.Get("status")
	if status != "" && !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	filter := repository.SearchFilter{
		City:          strings.TrimSpace(query.Get("city")),
		UsageType:     strings.TrimSpace(query.Get("usage_type")),
		ConnectorType: strings.TrimSpace(query.Get("connector_type")),
		Status:        status,
	}

	chargers, total, err := h.chargers.Search(r.Context(), filter, minRating, skip, limit)
	if err != nil {
		h.logger.Error("search chargers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to search chargers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"skip":     skip,
		"limit":    limit,
		"chargers": chargers,
	})
}

// Nearby handles GET /chargers/nearby, the proximity search endpoint.
func (h *ChargerHandlers) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, ok := requiredFloat(r, "lat")
	if !ok {
		writeError(w, http.StatusBadRequest, "lat is required and must be a number")
		return
	}
	lon, ok := requiredFloat(r, "lon")
	if !ok {
		writeError(w, http.StatusBadRequest, "lon is required and must be a number")
		return
	}
	origin := geo.Coordinate{Lat: lat, Lon: lon}
	if !origin.Valid() {
		writeError(w, http.StatusBadRequest, "lat must be in [-90, 90] and lon in [-180, 180]")
		return
	}

	limit, ok := queryInt(r, "limit", defaultNearbyLimit)
	if !ok || limit < 1 || limit > maxNearbyLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 27")
		return
	}
	radius, ok := queryFloat(r, "radius_km", defaultRadiusKm)
	if !ok || radius < 1 || radius > maxRadiusKm {
		writeError(w, http.StatusBadRequest, "radius_km must be between 1 and 500")
		return
	}
	minRating, ok := queryFloat(r, "min_rating", 0)
	if !ok || minRating < 0 || minRating > 5 {
		writeError(w, http.StatusBadRequest, "min_rating must be between 0 and 5")
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	result, err := h.ranker.Nearby(r.Context(), service.NearbyQuery{
		Origin:        origin,
		ConnectorType: r.URL.Query().Get("connector_type"),
		Status:        status,
		MinRating:     minRating,
		Limit:         limit,
		RadiusKm:      radius,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoChargersMatch):
			writeError(w, http.StatusNotFound, "no chargers match the given filters")
		case errors.Is(err, service.ErrNoneWithinRadius):
			writeError(w, http.StatusNotFound, "no chargers found within the search radius")
		default:
			h.logger.Error("nearby search failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to search nearby chargers")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_location":        map[string]float64{"lat": lat, "lon": lon},
		"search_radius_km":     radius,
		"total_within_radius":  result.TotalWithinRadius,
		"returned_with_routes": result.ReturnedWithRoutes,
		"nearest_chargers":     result.Chargers,
	})
}

// Status handles GET /chargers/{id}/status.
func (h *ChargerHandlers) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	summary, err := h.chargers.StatusSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.logger.Error("charger status failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load charger status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_status":    summary.CurrentStatus,
		"status_updated_at": summary.StatusUpdatedAt,
		"recent_reports_7days": map[string]int{
			"broken":  summary.Broken,
			"working": summary.Working,
			"total":   summary.Total,
		},
	})
}

// Report handles POST /chargers/{id}/report.
func (h *ChargerHandlers) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	type request struct {
		IssueType   string `json:"issue_type"`
		Description string `json:"description"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !models.ValidIssueType(req.IssueType) {
		writeError(w, http.StatusBadRequest, "issue_type must be one of working, broken, occupied, under_construction")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" || len(req.Description) > 500 {
		writeError(w, http.StatusBadRequest, "description must be between 1 and 500 characters")
		return
	}

	report, status, err := h.chargers.SubmitReport(r.Context(), id, userID, req.IssueType, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.logger.Error("submit report failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit report")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"report_id":      report.ID,
		"charger_id":     id,
		"issue_type":     report.IssueType,
		"charger_status": status,
	})
}

// ListReports handles GET /chargers/{id}/reports.
func (h *ChargerHandlers) ListReports(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	reports, err := h.chargers.ListRecentReports(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.logger.Error("list reports failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"charger_id": id,
		"total":      len(reports),
		"reports":    reports,
	})
}

// AddReview handles POST /chargers/{id}/reviews.
func (h *ChargerHandlers) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	type request struct {
		Rating  int     `json:"rating"`
		Comment *string `json:"comment"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.Comment != nil && len(*req.Comment) > 500 {
		writeError(w, http.StatusBadRequest, "comment must be at most 500 characters")
		return
	}

	review, err := h.chargers.AddReview(r.Context(), id, userID, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrChargerNotFound):
			writeError(w, http.StatusNotFound, "charger not found")
		case errors.Is(err, repository.ErrDuplicateReview):
			writeError(w, http.StatusBadRequest, "you have already reviewed this charger")
		default:
			h.logger.Error("add review failed", zap.Int64("charger_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to add review")
		}
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /chargers/{id}/reviews.
func (h *ChargerHandlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}

	reviews, err := h.chargers.ListReviews(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrChargerNotFound) {
			writeError(w, http.StatusNotFound, "charger not found")
			return
		}
		h.logger.Error("list reviews failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"charger_id": id,
		"total":      len(reviews),
		"reviews":    reviews,
	})
}

// pageParams parses skip/limit pagination with the list defaults.
func pageParams(r *http.Request) (skip, limit int, ok bool) {
	skip, ok = queryInt(r, "skip", 0)
	if !ok || skip < 0 {
		return 0, 0, false
	}
	limit, ok = queryInt(r, "limit", 50)
	if !ok || limit < 1 || limit > 200 {
		return 0, 0, false
	}
	return skip, limit, true
}
