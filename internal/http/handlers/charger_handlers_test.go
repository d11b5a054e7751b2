package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/models"
	"tunicharge/internal/routing"
	"tunicharge/internal/service"
)

type chargerSourceStub struct {
	chargers []models.Charger
}

func (s *chargerSourceStub) ListAll(ctx context.Context) ([]models.Charger, error) {
	return s.chargers, nil
}

type ratingSourceStub struct{}

func (ratingSourceStub) RatingSummaries(ctx context.Context) (map[int64]models.RatingSummary, error) {
	return map[int64]models.RatingSummary{}, nil
}

type routeProviderStub struct {
	route *routing.Route
	err   error
}

func (s *routeProviderStub) DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*routing.Route, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.route, nil
}

func newNearbyHandler(chargers []models.Charger) http.HandlerFunc {
	ranker := service.NewProximityRanker(
		&chargerSourceStub{chargers: chargers},
		ratingSourceStub{},
		&routeProviderStub{err: routing.ErrRouteUnavailable},
		0,
		zap.NewNop(),
	)
	h := NewChargerHandlers(nil, ranker, zap.NewNop())
	return h.Nearby
}

func TestNearbyHandlerValidation(t *testing.T) {
	handler := newNearbyHandler(nil)

	cases := []struct {
		name  string
		query string
	}{
		{"missing lat", "lon=10.18"},
		{"missing lon", "lat=36.8"},
		{"lat not a number", "lat=abc&lon=10.18"},
		{"lat out of range", "lat=91&lon=10.18"},
		{"lon out of range", "lat=36.8&lon=181"},
		{"limit zero", "lat=36.8&lon=10.18&limit=0"},
		{"limit too high", "lat=36.8&lon=10.18&limit=28"},
		{"radius below minimum", "lat=36.8&lon=10.18&radius_km=0.5"},
		{"radius too high", "lat=36.8&lon=10.18&radius_km=501"},
		{"min_rating too high", "lat=36.8&lon=10.18&min_rating=5.5"},
		{"bad status", "lat=36.8&lon=10.18&status=melted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/chargers/nearby?"+tc.query, nil)
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestNearbyHandlerDistinctNotFounds(t *testing.T) {
	chargers := []models.Charger{
		{ID: 1, Name: "A", Latitude: 36.80, Longitude: 10.18, ConnectorType: "Type 2", Status: models.StatusWorking},
	}
	handler := newNearbyHandler(chargers)

	// Filters eliminate everything.
	req := httptest.NewRequest(http.MethodGet, "/chargers/nearby?lat=36.8&lon=10.18&connector_type=chademo", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("filter miss status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	filterMsg := body["error"]

	// Matches exist but outside the radius.
	req = httptest.NewRequest(http.MethodGet, "/chargers/nearby?lat=33.0&lon=9.0&radius_km=1", nil)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("radius miss status = %d, want 404", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == filterMsg {
		t.Errorf("both 404s carry the same message %q; want distinct messages", filterMsg)
	}
}

func TestNearbyHandlerResponseShape(t *testing.T) {
	chargers := []models.Charger{
		{ID: 1, Name: "A", Latitude: 36.80, Longitude: 10.18, ConnectorType: "Type 2", Status: models.StatusWorking},
		{ID: 2, Name: "B", Latitude: 36.82, Longitude: 10.18, ConnectorType: "Type 2", Status: models.StatusWorking},
	}
	handler := newNearbyHandler(chargers)

	req := httptest.NewRequest(http.MethodGet, "/chargers/nearby?lat=36.8&lon=10.18&limit=1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		UserLocation       map[string]float64     `json:"user_location"`
		SearchRadiusKm     float64                `json:"search_radius_km"`
		TotalWithinRadius  int                    `json:"total_within_radius"`
		ReturnedWithRoutes int                    `json:"returned_with_routes"`
		NearestChargers    []models.RankedCharger `json:"nearest_chargers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserLocation["lat"] != 36.8 || body.UserLocation["lon"] != 10.18 {
		t.Errorf("user_location = %v", body.UserLocation)
	}
	if body.SearchRadiusKm != 100 {
		t.Errorf("search_radius_km = %v, want default 100", body.SearchRadiusKm)
	}
	if body.TotalWithinRadius != 2 {
		t.Errorf("total_within_radius = %d, want 2", body.TotalWithinRadius)
	}
	if len(body.NearestChargers) != 1 || body.NearestChargers[0].ID != 1 {
		t.Errorf("nearest_chargers = %+v, want only charger 1", body.NearestChargers)
	}
	if body.NearestChargers[0].DistanceType != models.DistanceTypeStraightLine {
		t.Errorf("distance_type = %q, want straight_line with no route provider", body.NearestChargers[0].DistanceType)
	}
}
