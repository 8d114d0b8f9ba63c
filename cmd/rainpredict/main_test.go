package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelfile"
	"github.com/couchcryptid/rain-prediction-service/internal/config"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		HTTPAddr:           "127.0.0.1:0",
		ShutdownTimeout:    time.Second,
		OpenWeatherAPIKey:  "key",
		OpenWeatherBaseURL: "http://127.0.0.1:0/weather",
		WeatherTimeout:     time.Second,
		ModelBackend:       config.ModelBackendFile,
		ModelPath:          filepath.Join(dir, "rain_model.json"),
		ManifestPath:       filepath.Join(dir, "feature_columns.json"),
	}
	require.NoError(t, modelfile.SaveManifest(cfg.ManifestPath, []string{"humidity", "city_Delhi"}))
	require.NoError(t, modelfile.SaveLogistic(cfg.ModelPath, modelfile.File{
		Coefficients: map[string]float64{"humidity": 0.05},
		Intercept:    -3,
	}))
	return cfg
}

func TestRun_MissingModelAbortsStartup(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.json")

	// Startup must fail without waiting on the context.
	err := run(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	require.ErrorIs(t, err, domain.ErrModelNotReady)
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := run(ctx, testConfig(t), discardLogger(), observability.NewMetricsForTesting())
	assert.NoError(t, err)
}
