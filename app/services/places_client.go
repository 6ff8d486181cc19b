package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/lanez007/MCA-proxy/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// Places provider errors. ErrNoGeocodeMatch and ErrPlaceDetailMissing are
// domain outcomes (the provider answered, it just had nothing); everything
// wrapping ErrProviderFailure is a transport-class failure.
var (
	ErrNoGeocodeMatch     = errors.New("no geocode match for location")
	ErrPlaceDetailMissing = errors.New("place detail missing")
	ErrProviderFailure    = errors.New("places provider failure")
)

// Provider status codes returned in the JSON payload
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"
)

var (
	placesCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "places_api_calls_total",
			Help: "Total number of calls issued to the places provider",
		},
		[]string{"endpoint", "outcome"},
	)

	placesCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "places_api_call_duration_seconds",
			Help:    "Places provider call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// Coordinates is a geographic point returned by the geocoder
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceSummary is one candidate business returned by the text search endpoint
type PlaceSummary struct {
	PlaceID string
	Name    string
	Address string
	Rating  *float64
}

// PlaceDetail carries the contact fields fetched per place
type PlaceDetail struct {
	Phone   *string
	Website *string
	Address *string
}

// PlacesClient issues geocode, text search, and detail lookups against the
// mapping provider. Detail lookups are independent per place; a failed lookup
// never affects sibling calls.
type PlacesClient interface {
	Geocode(ctx context.Context, location string) (*Coordinates, error)
	SearchPlaces(ctx context.Context, businessType string, coord Coordinates, radiusMeters int) ([]PlaceSummary, error)
	FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error)
}

// GooglePlacesClient implements PlacesClient against the Google Maps web service API
type GooglePlacesClient struct {
	config  *config.PlacesConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewGooglePlacesClient creates a new places client instance
func NewGooglePlacesClient(cfg *config.PlacesConfig) PlacesClient {
	return &GooglePlacesClient{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
	} `json:"results"`
}

type placeDetailResponse struct {
	Status string `json:"status"`
	Result struct {
		FormattedPhoneNumber *string `json:"formatted_phone_number"`
		Website              *string `json:"website"`
		FormattedAddress     *string `json:"formatted_address"`
	} `json:"result"`
}

// Geocode resolves free-text location to coordinates
func (g *GooglePlacesClient) Geocode(ctx context.Context, location string) (*Coordinates, error) {
	params := url.Values{}
	params.Set("address", location)

	var out geocodeResponse
	if err := g.getJSON(ctx, "geocode", "/geocode/json", params, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case statusOK:
		if len(out.Results) == 0 {
			return nil, ErrNoGeocodeMatch
		}
		loc := out.Results[0].Geometry.Location
		return &loc, nil
	case statusZeroResults:
		return nil, ErrNoGeocodeMatch
	default:
		return nil, fmt.Errorf("%w: geocode status %s", ErrProviderFailure, out.Status)
	}
}

// SearchPlaces fetches place candidates around the coordinates in provider order
func (g *GooglePlacesClient) SearchPlaces(ctx context.Context, businessType string, coord Coordinates, radiusMeters int) ([]PlaceSummary, error) {
	params := url.Values{}
	params.Set("query", businessType)
	params.Set("location", strconv.FormatFloat(coord.Lat, 'f', -1, 64)+","+strconv.FormatFloat(coord.Lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radiusMeters))

	var out textSearchResponse
	if err := g.getJSON(ctx, "textsearch", "/place/textsearch/json", params, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case statusOK:
		summaries := make([]PlaceSummary, 0, len(out.Results))
		for _, r := range out.Results {
			summaries = append(summaries, PlaceSummary{
				PlaceID: r.PlaceID,
				Name:    r.Name,
				Address: r.FormattedAddress,
				Rating:  r.Rating,
			})
		}
		return summaries, nil
	case statusZeroResults:
		return []PlaceSummary{}, nil
	default:
		return nil, fmt.Errorf("%w: textsearch status %s", ErrProviderFailure, out.Status)
	}
}

// FetchDetail fetches the contact fields for one place
func (g *GooglePlacesClient) FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "formatted_phone_number,website,formatted_address")

	var out placeDetailResponse
	if err := g.getJSON(ctx, "details", "/place/details/json", params, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case statusOK:
		return &PlaceDetail{
			Phone:   out.Result.FormattedPhoneNumber,
			Website: out.Result.Website,
			Address: out.Result.FormattedAddress,
		}, nil
	case statusZeroResults, statusNotFound:
		return nil, ErrPlaceDetailMissing
	default:
		return nil, fmt.Errorf("%w: details status %s", ErrProviderFailure, out.Status)
	}
}

// getJSON performs one throttled GET against the provider and decodes the body
func (g *GooglePlacesClient) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	params.Set("key", g.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create places request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		placesCallsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	placesCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		placesCallsTotal.WithLabelValues(endpoint, "http_error").Inc()
		return fmt.Errorf("%w: http %d for %s", ErrProviderFailure, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		placesCallsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrProviderFailure, endpoint, err)
	}

	placesCallsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// MockPlacesClient implements PlacesClient for testing
type MockPlacesClient struct {
	mu sync.Mutex

	GeocodeResult *Coordinates
	GeocodeErr    error
	SearchResults []PlaceSummary
	SearchErr     error
	Details       map[string]*PlaceDetail
	DetailErrs    map[string]error

	GeocodeCalls int
	SearchCalls  int
	DetailCalls  int
}

// NewMockPlacesClient creates a new mock places client
func NewMockPlacesClient() *MockPlacesClient {
	return &MockPlacesClient{
		Details:    make(map[string]*PlaceDetail),
		DetailErrs: make(map[string]error),
	}
}

// Geocode returns the configured coordinates or error
func (m *MockPlacesClient) Geocode(ctx context.Context, location string) (*Coordinates, error) {
	m.mu.Lock()
	m.GeocodeCalls++
	m.mu.Unlock()

	if m.GeocodeErr != nil {
		return nil, m.GeocodeErr
	}
	if m.GeocodeResult == nil {
		return nil, ErrNoGeocodeMatch
	}
	return m.GeocodeResult, nil
}

// SearchPlaces returns the configured candidates or error
func (m *MockPlacesClient) SearchPlaces(ctx context.Context, businessType string, coord Coordinates, radiusMeters int) ([]PlaceSummary, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults, nil
}

// FetchDetail returns the configured detail or per-place error
func (m *MockPlacesClient) FetchDetail(ctx context.Context, placeID string) (*PlaceDetail, error) {
	m.mu.Lock()
	m.DetailCalls++
	m.mu.Unlock()

	if err, ok := m.DetailErrs[placeID]; ok {
		return nil, err
	}
	if detail, ok := m.Details[placeID]; ok {
		return detail, nil
	}
	return nil, ErrPlaceDetailMissing
}

// TotalCalls returns the number of provider calls issued across all endpoints
func (m *MockPlacesClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GeocodeCalls + m.SearchCalls + m.DetailCalls
}
