package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/http/middleware"
	"tunicharge/internal/repository"
	"tunicharge/internal/routing"
	"tunicharge/internal/service"
)

// TripHandlers covers trip planning and trip history. Error responses use the
// {"detail": ...} shape throughout for compatibility with existing clients.
type TripHandlers struct {
	planner *service.TripPlanner
	logger  *zap.Logger
}

// NewTripHandlers returns handler set.
func NewTripHandlers(planner *service.TripPlanner, logger *zap.Logger) *TripHandlers {
	return &TripHandlers{planner: planner, logger: logger}
}

// Plan handles POST /trips/plan.
func (h *TripHandlers) Plan(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	type request struct {
		StartLat float64 `json:"start_lat"`
		StartLon float64 `json:"start_lon"`
		EndLat   float64 `json:"end_lat"`
		EndLon   float64 `json:"end_lon"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := geo.Coordinate{Lat: req.StartLat, Lon: req.StartLon}
	end := geo.Coordinate{Lat: req.EndLat, Lon: req.EndLon}
	if !start.Valid() || !end.Valid() {
		writeDetail(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	trip, err := h.planner.Plan(r.Context(), userID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVehicleIncomplete):
			writeDetail(w, http.StatusBadRequest, "Vehicle with range and connector type required")
		case errors.Is(err, routing.ErrRouteUnavailable):
			writeDetail(w, http.StatusBadRequest, "Route calculation failed")
		default:
			h.logger.Error("trip planning failed", zap.Int64("user_id", userID), zap.Error(err))
			writeDetail(w, http.StatusInternalServerError, "Failed to plan trip")
		}
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// List handles GET /trips.
func (h *TripHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	trips, err := h.planner.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list trips failed", zap.Int64("user_id", userID), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to list trips")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(trips),
		"trips": trips,
	})
}

// Delete handles DELETE /trips/{id}.
func (h *TripHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid trip id")
		return
	}

	if err := h.planner.Delete(r.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrTripNotFound):
			writeDetail(w, http.StatusNotFound, "Trip not found")
		case errors.Is(err, service.ErrTripForbidden):
			writeDetail(w, http.StatusForbidden, "Not authorized to delete this trip")
		default:
			h.logger.Error("delete trip failed", zap.Int64("trip_id", id), zap.Error(err))
			writeDetail(w, http.StatusInternalServerError, "Failed to delete trip")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
