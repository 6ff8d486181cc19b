package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lanez007/MCA-proxy/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPlacesClient points a client at the given test server with throttling
// loose enough to never block a test
func newTestPlacesClient(baseURL string) PlacesClient {
	return NewGooglePlacesClient(&config.PlacesConfig{
		APIKey:               "test-key",
		BaseURL:              baseURL,
		Timeout:              5 * time.Second,
		RequestsPerSecond:    1000,
		Burst:                1000,
		MaxConcurrentDetails: 4,
	})
}

func TestGeocode(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectCoord *Coordinates
		expectErr   error
	}{
		{
			name:        "resolves location to coordinates",
			status:      http.StatusOK,
			body:        `{"status":"OK","results":[{"geometry":{"location":{"lat":25.7617,"lng":-80.1918}}}]}`,
			expectCoord: &Coordinates{Lat: 25.7617, Lng: -80.1918},
		},
		{
			name:      "zero results",
			status:    http.StatusOK,
			body:      `{"status":"ZERO_RESULTS","results":[]}`,
			expectErr: ErrNoGeocodeMatch,
		},
		{
			name:      "ok status with empty results",
			status:    http.StatusOK,
			body:      `{"status":"OK","results":[]}`,
			expectErr: ErrNoGeocodeMatch,
		},
		{
			name:      "provider rejection",
			status:    http.StatusOK,
			body:      `{"status":"REQUEST_DENIED","results":[]}`,
			expectErr: ErrProviderFailure,
		},
		{
			name:      "http error",
			status:    http.StatusInternalServerError,
			body:      `{}`,
			expectErr: ErrProviderFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/geocode/json", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))
				assert.Equal(t, "Miami, FL", r.URL.Query().Get("address"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestPlacesClient(server.URL)
			coord, err := client.Geocode(context.Background(), "Miami, FL")

			if tt.expectErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, coord)
			} else {
				require.NoError(t, err)
				require.NotNil(t, coord)
				assert.Equal(t, tt.expectCoord.Lat, coord.Lat)
				assert.Equal(t, tt.expectCoord.Lng, coord.Lng)
			}
		})
	}
}

func TestSearchPlaces(t *testing.T) {
	t.Run("maps candidates in provider order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/place/textsearch/json", r.URL.Path)
			assert.Equal(t, "restaurant", r.URL.Query().Get("query"))
			assert.Equal(t, "25.7617,-80.1918", r.URL.Query().Get("location"))
			assert.NotEmpty(t, r.URL.Query().Get("radius"))

			_, _ = w.Write([]byte(`{
				"status": "OK",
				"results": [
					{"place_id": "p1", "name": "Joe's Pizza", "formatted_address": "123 Ocean Dr", "rating": 4.5},
					{"place_id": "p2", "name": "Taco Spot", "formatted_address": "456 Collins Ave"}
				]
			}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		summaries, err := client.SearchPlaces(context.Background(), "restaurant", Coordinates{Lat: 25.7617, Lng: -80.1918}, 10000)

		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, "p1", summaries[0].PlaceID)
		assert.Equal(t, "Joe's Pizza", summaries[0].Name)
		assert.Equal(t, "123 Ocean Dr", summaries[0].Address)
		require.NotNil(t, summaries[0].Rating)
		assert.Equal(t, 4.5, *summaries[0].Rating)

		assert.Equal(t, "p2", summaries[1].PlaceID)
		assert.Nil(t, summaries[1].Rating)
	})

	t.Run("zero results is an empty list, not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		summaries, err := client.SearchPlaces(context.Background(), "restaurant", Coordinates{}, 10000)

		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("provider rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","results":[]}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		summaries, err := client.SearchPlaces(context.Background(), "restaurant", Coordinates{}, 10000)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProviderFailure)
		assert.Nil(t, summaries)
	})
}

func TestFetchDetail(t *testing.T) {
	t.Run("returns contact fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/place/details/json", r.URL.Path)
			assert.Equal(t, "p1", r.URL.Query().Get("place_id"))
			assert.Equal(t, "formatted_phone_number,website,formatted_address", r.URL.Query().Get("fields"))

			_, _ = w.Write([]byte(`{
				"status": "OK",
				"result": {
					"formatted_phone_number": "(305) 555-0181",
					"website": "https://joespizza.com",
					"formatted_address": "123 Ocean Dr, Miami, FL 33139"
				}
			}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		detail, err := client.FetchDetail(context.Background(), "p1")

		require.NoError(t, err)
		require.NotNil(t, detail)
		require.NotNil(t, detail.Phone)
		assert.Equal(t, "(305) 555-0181", *detail.Phone)
		require.NotNil(t, detail.Website)
		assert.Equal(t, "https://joespizza.com", *detail.Website)
		require.NotNil(t, detail.Address)
		assert.Equal(t, "123 Ocean Dr, Miami, FL 33139", *detail.Address)
	})

	t.Run("missing fields stay nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"OK","result":{}}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		detail, err := client.FetchDetail(context.Background(), "p1")

		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Nil(t, detail.Phone)
		assert.Nil(t, detail.Website)
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"NOT_FOUND","result":{}}`))
		}))
		defer server.Close()

		client := newTestPlacesClient(server.URL)
		detail, err := client.FetchDetail(context.Background(), "gone")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPlaceDetailMissing)
		assert.Nil(t, detail)
	})
}

func TestPlacesClientContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	}))
	defer server.Close()

	client := newTestPlacesClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Geocode(ctx, "Miami, FL")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailure)
}
