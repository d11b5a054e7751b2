package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunicharge/internal/geo"
)

var (
	testOrigin = geo.Coordinate{Lat: 36.80, Lon: 10.18}
	testDest   = geo.Coordinate{Lat: 35.82, Lon: 10.63}
)

func directionsPayload(meters, seconds float64) string {
	return fmt.Sprintf(`{"features":[{"properties":{"summary":{"distance":%f,"duration":%f}}}]}`, meters, seconds)
}

func TestDrivingRouteParsesSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/v2/directions/driving-car" {
			t.Errorf("path = %q", got)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		// Provider expects lon,lat order.
		if q.Get("start") != fmt.Sprintf("%f,%f", testOrigin.Lon, testOrigin.Lat) {
			t.Errorf("start = %q", q.Get("start"))
		}
		fmt.Fprint(w, directionsPayload(141500, 5430))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	route, err := client.DrivingRoute(context.Background(), testOrigin, testDest)
	if err != nil {
		t.Fatalf("DrivingRoute() error = %v", err)
	}
	if route.DistanceKm != 141.5 {
		t.Errorf("distance = %v, want 141.5", route.DistanceKm)
	}
	if route.DurationMinutes != 90.5 {
		t.Errorf("duration = %v, want 90.5", route.DurationMinutes)
	}
}

func TestDrivingRouteNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", time.Second)
	if _, err := client.DrivingRoute(context.Background(), testOrigin, testDest); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("DrivingRoute() error = %v, want ErrRouteUnavailable", err)
	}
}

func TestDrivingRouteMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features": "not-an-array"`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second)
	if _, err := client.DrivingRoute(context.Background(), testOrigin, testDest); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("DrivingRoute() error = %v, want ErrRouteUnavailable", err)
	}
}

func TestDrivingRouteNoFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second)
	if _, err := client.DrivingRoute(context.Background(), testOrigin, testDest); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("DrivingRoute() error = %v, want ErrRouteUnavailable", err)
	}
}

func TestDrivingRouteTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient(server.URL, "key", 50*time.Millisecond)
	if _, err := client.DrivingRoute(context.Background(), testOrigin, testDest); !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("DrivingRoute() error = %v, want ErrRouteUnavailable", err)
	}
}

type staticProvider struct {
	route *Route
	calls int
}

func (p *staticProvider) DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*Route, error) {
	p.calls++
	return p.route, nil
}

func TestCachedProviderNilClientPassesThrough(t *testing.T) {
	inner := &staticProvider{route: &Route{DistanceKm: 10, DurationMinutes: 12}}
	cached := NewCachedProvider(inner, nil, time.Hour, zap.NewNop())

	for i := 0; i < 3; i++ {
		route, err := cached.DrivingRoute(context.Background(), testOrigin, testDest)
		if err != nil {
			t.Fatalf("DrivingRoute() error = %v", err)
		}
		if route.DistanceKm != 10 {
			t.Errorf("distance = %v, want 10", route.DistanceKm)
		}
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 (no cache without redis)", inner.calls)
	}
}
