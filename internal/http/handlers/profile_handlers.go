package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tunicharge/internal/http/middleware"
	"tunicharge/internal/repository"
	"tunicharge/internal/service"
)

// ProfileHandlers covers the per-user surface: vehicle profile, favorites and
// activity statistics.
type ProfileHandlers struct {
	profile *service.ProfileService
	logger  *zap.Logger
}

// NewProfileHandlers returns handler set.
func NewProfileHandlers(profile *service.ProfileService, logger *zap.Logger) *ProfileHandlers {
	return &ProfileHandlers{profile: profile, logger: logger}
}

// GetVehicle handles GET /users/me/vehicle.
func (h *ProfileHandlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	vehicle, err := h.profile.Vehicle(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrVehicleNotFound) {
			writeError(w, http.StatusNotFound, "no vehicle profile")
			return
		}
		h.logger.Error("get vehicle failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load vehicle")
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

// SaveVehicle handles POST /users/me/vehicle.
func (h *ProfileHandlers) SaveVehicle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	type request struct {
		ConnectorType      string   `json:"connector_type"`
		RangeKm            *float64 `json:"range_km"`
		BatteryCapacityKWh *float64 `json:"battery_capacity_kwh"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vehicle, err := h.profile.SaveVehicle(r.Context(), userID, req.ConnectorType, req.RangeKm, req.BatteryCapacityKWh)
	if err != nil {
		if errors.Is(err, service.ErrInvalidVehicle) {
			writeError(w, http.StatusBadRequest, "connector_type is required and range/battery must be positive")
			return
		}
		h.logger.Error("save vehicle failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save vehicle")
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

// Stats handles GET /users/me/stats.
func (h *ProfileHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.profile.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("user stats failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// ListFavorites handles GET /favorites.
func (h *ProfileHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	chargers, err := h.profile.ListFavorites(r.Context(), userID)
	if err != nil {
		h.logger.Error("list favorites failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list favorites")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(chargers),
		"favorites": chargers,
	})
}

// AddFavorite handles POST /favorites/{id}.
func (h *ProfileHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
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

	if err := h.profile.AddFavorite(r.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrChargerNotFound):
			writeError(w, http.StatusNotFound, "charger not found")
		case errors.Is(err, repository.ErrDuplicateFavorite):
			writeError(w, http.StatusBadRequest, "charger is already a favorite")
		default:
			h.logger.Error("add favorite failed", zap.Int64("charger_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to add favorite")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"charger_id": id,
		"favorited":  true,
	})
}

// RemoveFavorite handles DELETE /favorites/{id}.
func (h *ProfileHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
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

	if err := h.profile.RemoveFavorite(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			writeError(w, http.StatusNotFound, "favorite not found")
			return
		}
		h.logger.Error("remove favorite failed", zap.Int64("charger_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
