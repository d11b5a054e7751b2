package ocm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tunicharge/internal/models"
)

// ErrFetchFailed is returned when the POI endpoint cannot be read.
var ErrFetchFailed = errors.New("ocm: poi fetch failed")

const defaultBaseURL = "https://api.openchargemap.io/v3"

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client reads charging-station POIs from the Open Charge Map API.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient builds the POI client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
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

// poi mirrors the Open Charge Map response subset we consume.
type poi struct {
	AddressInfo struct {
		Title     string  `json:"Title"`
		Town      string  `json:"Town"`
		Latitude  float64 `json:"Latitude"`
		Longitude float64 `json:"Longitude"`
	} `json:"AddressInfo"`
	UsageType struct {
		Title string `json:"Title"`
	} `json:"UsageType"`
	Connections []struct {
		ConnectionType struct {
			Title string `json:"Title"`
		} `json:"ConnectionType"`
	} `json:"Connections"`
}

// FetchStations pulls up to maxResults stations for a country and maps them to
// charger records. POIs without a usable name or coordinates are skipped.
func (c *Client) FetchStations(ctx context.Context, countryCode string, maxResults int) ([]models.Charger, error) {
	params := url.Values{}
	params.Set("output", "json")
	params.Set("countrycode", countryCode)
	params.Set("maxresults", fmt.Sprintf("%d", maxResults))
	params.Set("compact", "true")
	params.Set("verbose", "false")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/poi?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var pois []poi
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	chargers := make([]models.Charger, 0, len(pois))
	for _, p := range pois {
		name := strings.TrimSpace(p.AddressInfo.Title)
		if name == "" || (p.AddressInfo.Latitude == 0 && p.AddressInfo.Longitude == 0) {
			continue
		}

		connector := ""
		if len(p.Connections) > 0 {
			connector = p.Connections[0].ConnectionType.Title
		}

		chargers = append(chargers, models.Charger{
			Name:          name,
			City:          strings.TrimSpace(p.AddressInfo.Town),
			Latitude:      p.AddressInfo.Latitude,
			Longitude:     p.AddressInfo.Longitude,
			UsageType:     p.UsageType.Title,
			ConnectorType: connector,
			Status:        models.StatusUnknown,
		})
	}
	return chargers, nil
}
