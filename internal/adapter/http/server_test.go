package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/rain-prediction-service/internal/adapter/http"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPredictor struct {
	readyErr  error
	pred      domain.Prediction
	err       error
	locations []string
	requested []string
}

func (m *mockPredictor) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockPredictor) Predict(_ context.Context, location string) (domain.Prediction, error) {
	m.requested = append(m.requested, location)
	return m.pred, m.err
}

func (m *mockPredictor) Locations() ([]string, error) {
	if m.readyErr != nil {
		return nil, m.readyErr
	}
	return m.locations, nil
}

func newTestServer(p *mockPredictor) *httpadapter.Server {
	return httpadapter.NewServer(":0", p, p, []string{"Delhi", "Kolkata", "Mumbai"}, slog.Default())
}

func serve(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(&mockPredictor{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(&mockPredictor{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(&mockPredictor{readyErr: fmt.Errorf("not ready yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(&mockPredictor{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPredict_Success(t *testing.T) {
	at := time.Date(2024, time.July, 15, 9, 30, 0, 0, time.UTC)
	p := &mockPredictor{pred: domain.Prediction{
		Location:    "Delhi",
		Season:      domain.SeasonMonsoon,
		Result:      domain.PredictionResult{Label: true, RainProbability: 0.82},
		Insights:    []string{"Heavy cloud cover present"},
		PredictedAt: at,
	}}
	rec := serve(newTestServer(p), "/api/v1/predict?location=%20Delhi%20")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Delhi"}, p.requested)

	var body struct {
		RequestID string `json:"request_id"`
		Location  string `json:"location"`
		Season    string `json:"season"`
		Result    struct {
			WillRain        bool    `json:"will_rain"`
			RainProbability float64 `json:"rain_probability"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Delhi", body.Location)
	assert.Equal(t, "Monsoon", body.Season)
	assert.True(t, body.Result.WillRain)
	assert.Equal(t, 0.82, body.Result.RainProbability)

	_, err := uuid.Parse(body.RequestID)
	require.NoError(t, err)
	assert.Equal(t, body.RequestID, rec.Header().Get("X-Request-ID"))
}

func TestPredict_EchoesRequestID(t *testing.T) {
	srv := newTestServer(&mockPredictor{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/predict?location=Delhi", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestPredict_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"unknown location", fmt.Errorf("%w: %q", domain.ErrUnknownLocation, "Atlantis"), http.StatusNotFound, domain.OutcomeUnknownLocation},
		{"observation unavailable", fmt.Errorf("%w: timeout", domain.ErrObservationUnavailable), http.StatusBadGateway, domain.OutcomeObservationUnavailable},
		{"model not ready", domain.ErrModelNotReady, http.StatusServiceUnavailable, domain.OutcomeModelNotReady},
		{"classifier", domain.ErrInvalidClassifierOutput, http.StatusInternalServerError, domain.OutcomeClassifierError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestServer(&mockPredictor{err: tt.err}), "/api/v1/predict?location=Atlantis")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPredict_ValidatesLocation(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	for _, target := range []string{
		"/api/v1/predict",
		"/api/v1/predict?location=",
		"/api/v1/predict?location=%20%20",
		"/api/v1/predict?location=" + string(long),
	} {
		t.Run(target[:min(len(target), 40)], func(t *testing.T) {
			p := &mockPredictor{}
			rec := serve(newTestServer(p), target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, p.requested)
		})
	}
}

func TestLocations(t *testing.T) {
	p := &mockPredictor{locations: []string{"Chennai", "Delhi", "Mumbai"}}

	rec := serve(newTestServer(p), "/api/v1/locations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 3, "locations": ["Chennai", "Delhi", "Mumbai"]}`, rec.Body.String())

	rec = serve(newTestServer(p), "/api/v1/locations?popular=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 2, "locations": ["Delhi", "Mumbai"]}`, rec.Body.String())
}

func TestLocations_PopularCappedAfterFiltering(t *testing.T) {
	p := &mockPredictor{locations: []string{"Ahmedabad", "Bangalore", "Chennai", "Delhi", "Hyderabad", "Jaipur", "Kolkata", "Mumbai", "Pune"}}
	popular := []string{"Delhi", "Mumbai", "Bangalore", "Chennai", "Lucknow", "Kolkata", "Jaipur", "Pune", "Hyderabad", "Ahmedabad"}
	srv := httpadapter.NewServer(":0", p, p, popular, slog.Default())

	rec := serve(srv, "/api/v1/locations?popular=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count": 5, "locations": ["Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata"]}`, rec.Body.String())
}

func TestLocations_NotReady(t *testing.T) {
	rec := serve(newTestServer(&mockPredictor{readyErr: domain.ErrModelNotReady}), "/api/v1/locations")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadiness_FirstFailureWins(t *testing.T) {
	ready := httpadapter.Readiness{
		&mockPredictor{},
		&mockPredictor{readyErr: fmt.Errorf("pipeline stopped")},
		&mockPredictor{readyErr: fmt.Errorf("unreachable")},
	}
	err := ready.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Equal(t, "pipeline stopped", err.Error())
	assert.NoError(t, httpadapter.Readiness{}.CheckReadiness(context.Background()))
}
