package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
	"tunicharge/internal/models"
	"tunicharge/internal/password"
	"tunicharge/internal/repository"
	"tunicharge/internal/routing"
	"tunicharge/internal/service"
)

type memUsers struct {
	byEmail map[string]*models.User
	nextID  int64
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type memChargers struct {
	chargers []models.Charger
}

func (m *memChargers) ListAll(ctx context.Context) ([]models.Charger, error) {
	return m.chargers, nil
}

func (m *memChargers) GetByID(ctx context.Context, id int64) (*models.Charger, error) {
	for i := range m.chargers {
		if m.chargers[i].ID == id {
			c := m.chargers[i]
			return &c, nil
		}
	}
	return nil, repository.ErrChargerNotFound
}

func (m *memChargers) List(ctx context.Context, skip, limit int) ([]models.Charger, int, error) {
	return m.chargers, len(m.chargers), nil
}

func (m *memChargers) Search(ctx context.Context, filter repository.SearchFilter, skip, limit int) ([]models.Charger, int, error) {
	return m.chargers, len(m.chargers), nil
}

func (m *memChargers) SearchAll(ctx context.Context, filter repository.SearchFilter) ([]models.Charger, error) {
	return m.chargers, nil
}

func (m *memChargers) UpdateStatus(ctx context.Context, id int64, status string, at time.Time) error {
	for i := range m.chargers {
		if m.chargers[i].ID == id {
			m.chargers[i].Status = status
			m.chargers[i].StatusUpdatedAt = &at
		}
	}
	return nil
}

type memReports struct {
	nextID int64
}

func (m *memReports) Create(ctx context.Context, report *models.Report) error {
	m.nextID++
	report.ID = m.nextID
	return nil
}

func (m *memReports) CountByIssueSince(ctx context.Context, chargerID int64, since time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *memReports) ListForChargerSince(ctx context.Context, chargerID int64, since time.Time) ([]models.Report, error) {
	return nil, nil
}

type memReviews struct{}

func (memReviews) RatingSummaries(ctx context.Context) (map[int64]models.RatingSummary, error) {
	return map[int64]models.RatingSummary{}, nil
}

func (memReviews) Create(ctx context.Context, review *models.Review) error { return nil }

func (memReviews) ListForCharger(ctx context.Context, chargerID int64) ([]models.Review, error) {
	return nil, nil
}

type memVehicles struct {
	byUser map[int64]*models.Vehicle
}

func (m *memVehicles) GetByUser(ctx context.Context, userID int64) (*models.Vehicle, error) {
	vehicle, ok := m.byUser[userID]
	if !ok {
		return nil, repository.ErrVehicleNotFound
	}
	return vehicle, nil
}

func (m *memVehicles) Upsert(ctx context.Context, vehicle *models.Vehicle) error {
	m.byUser[vehicle.UserID] = vehicle
	return nil
}

type memTrips struct {
	byID   map[int64]*models.Trip
	nextID int64
}

func (m *memTrips) Create(ctx context.Context, trip *models.Trip) error {
	m.nextID++
	trip.ID = m.nextID
	m.byID[trip.ID] = trip
	return nil
}

func (m *memTrips) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	trip, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	return trip, nil
}

func (m *memTrips) ListByUser(ctx context.Context, userID int64) ([]models.Trip, error) {
	var out []models.Trip
	for _, trip := range m.byID {
		if trip.UserID == userID {
			out = append(out, *trip)
		}
	}
	return out, nil
}

func (m *memTrips) Delete(ctx context.Context, id int64) error {
	delete(m.byID, id)
	return nil
}

func (m *memTrips) StatsByUser(ctx context.Context, userID int64) (int, float64, error) {
	count := 0
	distance := 0.0
	for _, trip := range m.byID {
		if trip.UserID == userID {
			count++
			distance += trip.TotalDistanceKm
		}
	}
	return count, distance, nil
}

type memFavorites struct{}

func (memFavorites) Add(ctx context.Context, userID, chargerID int64) error    { return nil }
func (memFavorites) Remove(ctx context.Context, userID, chargerID int64) error { return nil }
func (memFavorites) ListByUser(ctx context.Context, userID int64) ([]models.Charger, error) {
	return nil, nil
}
func (memFavorites) CountByUser(ctx context.Context, userID int64) (int, error) { return 0, nil }

type counterStub struct{}

func (counterStub) CountByUser(ctx context.Context, userID int64) (int, error) { return 0, nil }

type routeStub struct {
	route *routing.Route
}

func (s *routeStub) DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*routing.Route, error) {
	return s.route, nil
}

// newFlowServer assembles the full route table over in-memory stores, with a
// 250 km fixed driving route and one Type 2 station near the Tunis-Sfax
// midpoint.
func newFlowServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	midpoint := geo.Midpoint(geo.Coordinate{Lat: 36.80, Lon: 10.18}, geo.Coordinate{Lat: 34.74, Lon: 10.76})
	chargers := &memChargers{chargers: []models.Charger{
		{ID: 1, Name: "Enfidha Fast Charge", Latitude: midpoint.Lat + 0.05, Longitude: midpoint.Lon,
			ConnectorType: "Type 2", Status: models.StatusWorking},
		{ID: 2, Name: "Wrong Plug", Latitude: midpoint.Lat, Longitude: midpoint.Lon,
			ConnectorType: "CHAdeMO", Status: models.StatusWorking},
	}}
	reports := &memReports{}
	reviews := memReviews{}
	vehicles := &memVehicles{byUser: map[int64]*models.Vehicle{}}
	trips := &memTrips{byID: map[int64]*models.Trip{}}
	routes := &routeStub{route: &routing.Route{DistanceKm: 250, DurationMinutes: 180}}

	tokens := service.NewTokenService("flow-secret", time.Hour)
	auth := service.NewAuthService(&memUsers{byEmail: map[string]*models.User{}}, password.NewBcryptHasher(4), tokens, logger)
	aggregator := service.NewStatusAggregator(reports, chargers, logger)

	router := NewRouter(Deps{
		Auth:     auth,
		Tokens:   tokens,
		Chargers: service.NewChargersService(chargers, reports, reviews, aggregator, logger),
		Ranker:   service.NewProximityRanker(chargers, reviews, routes, 0, logger),
		Planner:  service.NewTripPlanner(vehicles, chargers, trips, routes, 0, logger),
		Profile:  service.NewProfileService(vehicles, memFavorites{}, chargers, trips, counterStub{}, counterStub{}, logger),
		Logger:   logger,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path, token, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	fields := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&fields)
	return resp, fields
}

func TestRegisterLoginVehiclePlanFlow(t *testing.T) {
	srv := newFlowServer(t)

	resp, _ := postJSON(t, srv, "/auth/register", "",
		`{"email":"driver@example.tn","password":"Secret123"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	resp, fields := postJSON(t, srv, "/auth/login", "",
		`{"email":"driver@example.tn","password":"Secret123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(fields["access_token"], &token); err != nil || token == "" {
		t.Fatalf("no access token in login response: %v", err)
	}

	// Planning before the vehicle profile exists is rejected with the
	// documented body.
	resp, fields = postJSON(t, srv, "/trips/plan", token,
		`{"start_lat":36.8,"start_lon":10.18,"end_lat":34.74,"end_lon":10.76}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("plan without vehicle status = %d, want 400", resp.StatusCode)
	}
	var detail string
	if err := json.Unmarshal(fields["detail"], &detail); err != nil || detail != "Vehicle with range and connector type required" {
		t.Fatalf("plan without vehicle detail = %q", detail)
	}

	resp, _ = postJSON(t, srv, "/users/me/vehicle", token,
		`{"connector_type":"Type 2","range_km":100}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save vehicle status = %d, want 200", resp.StatusCode)
	}

	resp, fields = postJSON(t, srv, "/trips/plan", token,
		`{"start_lat":36.8,"start_lon":10.18,"end_lat":34.74,"end_lon":10.76}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("plan status = %d, want 201", resp.StatusCode)
	}

	var waypointsJSON string
	if err := json.Unmarshal(fields["waypoints"], &waypointsJSON); err != nil {
		t.Fatalf("waypoints field: %v", err)
	}
	var waypoints []models.Waypoint
	if err := json.Unmarshal([]byte(waypointsJSON), &waypoints); err != nil {
		t.Fatalf("waypoints payload: %v", err)
	}
	if len(waypoints) != 1 {
		t.Fatalf("got %d waypoints, want 1 (250 km trip, 100 km range)", len(waypoints))
	}
	if waypoints[0].StationID != 1 {
		t.Errorf("waypoint station = %d, want the compatible midpoint station", waypoints[0].StationID)
	}
}
