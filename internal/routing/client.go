package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunicharge/internal/geo"
)

// ErrRouteUnavailable is the single outcome for every provider failure:
// timeouts, transport errors, malformed payloads and "no route found" all
// normalize to it. Callers never see raw transport errors.
var ErrRouteUnavailable = errors.New("routing: route unavailable")

// Route is a precise driving leg between two coordinates.
type Route struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Provider yields precise driving distance/duration for a coordinate pair.
type Provider interface {
	DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*Route, error)
}

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client queries an OpenRouteService-compatible directions API.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient builds the directions client. The timeout bounds every lookup;
// a timed-out lookup surfaces as ErrRouteUnavailable.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientWithDoer builds a client around a custom HTTP doer.
func NewClientWithDoer(baseURL, apiKey string, doer HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  doer,
	}
}

// directionsResponse mirrors the GeoJSON subset we consume.
type directionsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// DrivingRoute fetches the driving leg between origin and dest. The provider
// expects coordinates in (lon, lat) order.
func (c *Client) DrivingRoute(ctx context.Context, origin, dest geo.Coordinate) (*Route, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("start", fmt.Sprintf("%f,%f", origin.Lon, origin.Lat))
	params.Set("end", fmt.Sprintf("%f,%f", dest.Lon, dest.Lat))

	reqURL := fmt.Sprintf("%s/v2/directions/driving-car?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ErrRouteUnavailable
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ErrRouteUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrRouteUnavailable
	}

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ErrRouteUnavailable
	}
	if len(payload.Features) == 0 {
		return nil, ErrRouteUnavailable
	}

	summary := payload.Features[0].Properties.Summary
	return &Route{
		DistanceKm:      geo.RoundKm(summary.Distance / 1000),
		DurationMinutes: geo.RoundMinutes(summary.Duration / 60),
	}, nil
}
