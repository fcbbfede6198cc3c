package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const londonPayload = `{
  "location": {"name": "London", "region": "City of London, Greater London", "country": "United Kingdom",
    "lat": 51.52, "lon": -0.11, "tz_id": "Europe/London", "localtime_epoch": 1760530800, "localtime": "2026-10-15 13:20"},
  "current": {"last_updated_epoch": 1760530500, "last_updated": "2026-10-15 13:15", "temp_c": 14.2, "temp_f": 57.6,
    "is_day": 1, "condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png", "code": 1003},
    "wind_kph": 15.1, "wind_dir": "WSW", "humidity": 72, "uv": 3.0,
    "air_quality": {"co": 230.3, "pm2_5": 6.1, "us-epa-index": 1, "gb-defra-index": 1}}
}`

func TestClient_Current(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/current.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "yes", r.URL.Query().Get("aqi"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(londonPayload))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "test-key"})
	require.NoError(t, err)

	report, err := client.Current(context.Background(), "London")

	require.NoError(t, err)
	assert.Equal(t, "London", report.Location.Name)
	assert.Equal(t, "Europe/London", report.Location.TzID)
	assert.InDelta(t, 14.2, report.Current.TempC, 0.001)
	assert.Equal(t, "Partly cloudy", report.Current.Condition.Text)
	assert.Equal(t, 1003, report.Current.Condition.Code)
	require.NotNil(t, report.Current.AirQuality)
	assert.Equal(t, 1, report.Current.AirQuality.USEPAIndex)
	assert.InDelta(t, 6.1, report.Current.AirQuality.PM25, 0.001)
}

func TestClient_CurrentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Current(context.Background(), "Atlantis")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 1006, apiErr.Code)
	assert.Equal(t, "weather API error 1006: No matching location found.", err.Error())
}

func TestClient_CurrentNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Current(context.Background(), "London")

	require.Error(t, err)
	assert.Equal(t, "weather API returned HTTP 502", err.Error())
}

func TestClient_CurrentMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Current(context.Background(), "London")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode weather response")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{})

	assert.ErrorIs(t, err, ErrNoAPIKey)
}
