// Package app assembles the prediction service from configuration. It is
// shared by the long-running server and the one-shot CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelfile"
	"github.com/couchcryptid/rain-prediction-service/internal/adapter/modelserver"
	"github.com/couchcryptid/rain-prediction-service/internal/adapter/openweather"
	"github.com/couchcryptid/rain-prediction-service/internal/config"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/couchcryptid/rain-prediction-service/internal/predictor"
	"github.com/jonboulle/clockwork"
)

// LoadModel loads the manifest and builds the configured classifier backend.
// Every failure wraps domain.ErrModelNotReady.
func LoadModel(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*predictor.Model, error) {
	switch cfg.ModelBackend {
	case config.ModelBackendFile:
		clf, manifest, err := modelfile.Load(cfg.ModelPath, cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded logistic model", "path", cfg.ModelPath, "threshold", clf.Threshold())
		return predictor.NewModel(clf, manifest)
	case config.ModelBackendHTTP:
		manifest, err := modelfile.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrModelNotReady, err)
		}
		clf := modelserver.NewClient(cfg.ModelServerURL, cfg.ModelServerTimeout, manifest, logger, metrics)
		logger.Info("using remote model server", "url", cfg.ModelServerURL)
		return predictor.NewModel(clf, manifest)
	default:
		return nil, fmt.Errorf("%w: unknown model backend %q", domain.ErrModelNotReady, cfg.ModelBackend)
	}
}

// NewWeatherSource builds the OpenWeather client, wrapped in a TTL cache when
// enabled. The cache is returned separately so it can be warmed; it is nil
// when caching is off.
func NewWeatherSource(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (domain.WeatherSource, *openweather.CachedSource) {
	client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, logger, metrics)
	if !cfg.WeatherCache {
		logger.Info("weather cache disabled")
		return client, nil
	}
	cached := openweather.NewCachedSource(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, clock, metrics)
	logger.Info("weather cache enabled", "size", cfg.WeatherCacheSize, "ttl", cfg.WeatherCacheTTL)
	return cached, cached
}

// NewService wires a prediction service around a loaded model. A nil model
// leaves the service not-ready: every prediction fails with
// domain.ErrModelNotReady.
func NewService(cfg *config.Config, model *predictor.Model, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*predictor.Service, *openweather.CachedSource) {
	source, cache := NewWeatherSource(cfg, clock, logger, metrics)
	return predictor.New(source, model, clock, logger, metrics), cache
}
