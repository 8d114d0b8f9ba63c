package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "test-api-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var fixedNow = time.Date(2024, time.July, 15, 6, 30, 0, 0, time.UTC)

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		breaker:    newBreaker(),
		clock:      clockwork.NewFakeClockAt(fixedNow),
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func serveJSON(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const fullPayload = `{
	"weather": [{"main": "Rain", "description": "moderate rain"}],
	"main": {"temp": 29.4, "feels_like": 35.1, "temp_min": 24, "temp_max": 32, "pressure": 1004, "humidity": 88},
	"visibility": 4000,
	"wind": {"speed": 12},
	"clouds": {"all": 85},
	"dt": 1721025000,
	"name": "Delhi"
}`

func TestClient_Current_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Delhi", r.URL.Query().Get("q"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, fullPayload)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.Current(context.Background(), "  Delhi ")
	require.NoError(t, err)

	assert.Equal(t, domain.WeatherObservation{
		Location:    "Delhi",
		TempNow:     29.4,
		TempMax:     32,
		TempMin:     24,
		FeelsLike:   35.1,
		Humidity:    88,
		Pressure:    1004,
		WindSpeed:   12,
		CloudCover:  85,
		Visibility:  4,
		Description: "moderate rain",
		ObservedAt:  time.Unix(1721025000, 0).UTC(),
	}, obs)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("success")), 0)
}

func TestClient_Current_OptionalFieldsDefault(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{
		"weather": [{"description": "haze"}],
		"main": {"temp": 20, "feels_like": 19, "temp_min": 18, "temp_max": 22, "pressure": 1015, "humidity": 40}
	}`)

	obs, err := testClient(srv.URL).Current(context.Background(), "Delhi")
	require.NoError(t, err)

	assert.Zero(t, obs.WindSpeed)
	assert.Zero(t, obs.CloudCover)
	assert.Equal(t, 10.0, obs.Visibility)
	assert.Equal(t, fixedNow, obs.ObservedAt)
}

func TestClient_Current_UnusablePayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing main", `{"weather": [{"description": "rain"}]}`},
		{"missing weather", `{"main": {"temp": 20, "feels_like": 19, "temp_min": 18, "temp_max": 22, "pressure": 1015, "humidity": 40}}`},
		{"empty weather", `{"weather": [], "main": {"temp": 20, "feels_like": 19, "temp_min": 18, "temp_max": 22, "pressure": 1015, "humidity": 40}}`},
		{"missing temp_max", `{"weather": [{}], "main": {"temp": 20, "feels_like": 19, "temp_min": 18, "pressure": 1015, "humidity": 40}}`},
		{"humidity out of range", `{"weather": [{}], "main": {"temp": 20, "feels_like": 19, "temp_min": 18, "temp_max": 22, "pressure": 1015, "humidity": 140}}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, http.StatusOK, tt.body)
			c := testClient(srv.URL)

			_, err := c.Current(context.Background(), "Delhi")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrObservationUnavailable)
			assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("invalid")), 0)
		})
	}
}

func TestClient_Current_ZeroMainValuesAccepted(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, `{
		"weather": [{"description": "clear sky"}],
		"main": {"temp": 0, "feels_like": -3, "temp_min": 0, "temp_max": 0, "pressure": 1020, "humidity": 0},
		"clouds": {"all": 0}
	}`)

	obs, err := testClient(srv.URL).Current(context.Background(), "Shimla")
	require.NoError(t, err)
	assert.Zero(t, obs.TempMax)
	assert.Zero(t, obs.Humidity)
}

func TestClient_Current_APIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"unauthorized", http.StatusUnauthorized},
		{"rate limited", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, tt.status, `{"cod": "err", "message": "nope"}`)
			c := testClient(srv.URL)

			_, err := c.Current(context.Background(), "Delhi")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrObservationUnavailable)
			assert.Contains(t, err.Error(), "status")
			assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.WeatherRequests.WithLabelValues("error")), 0)
		})
	}
}

func TestClient_Current_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 20 * time.Millisecond

	_, err := c.Current(context.Background(), "Delhi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrObservationUnavailable)
	assert.NotContains(t, err.Error(), testAPIKey)
}

func TestClient_Current_ContextCancelled(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, fullPayload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Current(ctx, "Delhi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrObservationUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Current_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 10 {
		_, err := c.Current(context.Background(), "Delhi")
		assert.ErrorIs(t, err, domain.ErrObservationUnavailable)
	}

	// The default breaker trips after more than five consecutive failures.
	assert.Equal(t, 6, calls)
}

func TestClient_Current_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	srv := serveJSON(t, http.StatusOK, fullPayload)
	c := testClient(srv.URL)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for range 10 {
		_, err := c.Current(cancelled, "Delhi")
		require.ErrorIs(t, err, context.Canceled)
	}

	obs, err := c.Current(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Equal(t, "Delhi", obs.Location)
	assert.Equal(t, "closed", c.breaker.State().String())
}

func TestClient_Current_InFlightCancellationDoesNotTripBreaker(t *testing.T) {
	var slow atomic.Bool
	slow.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			<-r.Context().Done()
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, fullPayload)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 8 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := c.Current(ctx, "Delhi")
		cancel()
		require.ErrorIs(t, err, domain.ErrObservationUnavailable)
	}

	slow.Store(false)
	_, err := c.Current(context.Background(), "Delhi")
	require.NoError(t, err)
	assert.Equal(t, "closed", c.breaker.State().String())
}
