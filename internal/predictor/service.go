// Package predictor exposes the single prediction entry point: a location
// name in, a rain prediction out.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Model bundles a loaded classifier with the manifest it was trained on.
// Both are read-only after construction and shared across requests.
type Model struct {
	classifier domain.Classifier
	manifest   *domain.Manifest
}

// NewModel pairs a classifier with its manifest.
func NewModel(classifier domain.Classifier, manifest *domain.Manifest) (*Model, error) {
	if classifier == nil || manifest == nil {
		return nil, fmt.Errorf("%w: classifier and manifest are both required", domain.ErrModelNotReady)
	}
	return &Model{classifier: classifier, manifest: manifest}, nil
}

// Manifest returns the feature manifest.
func (m *Model) Manifest() *domain.Manifest {
	return m.manifest
}

// Service runs the fetch, encode and classify pipeline for one location.
// A Service without a model refuses every request with domain.ErrModelNotReady.
type Service struct {
	source  domain.WeatherSource
	model   *Model
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service. Pass a nil model when loading failed; the service
// then reports not-ready instead of serving partial results.
func New(source domain.WeatherSource, model *Model, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		source:  source,
		model:   model,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}

	if model == nil {
		metrics.ModelReady.Set(0)
		return s
	}

	m := model.manifest
	metrics.ModelReady.Set(1)
	metrics.ManifestLocations.Set(float64(len(m.Locations())))
	metrics.ManifestExtra.Set(float64(len(m.ExtraColumns())))

	if extra := m.ExtraColumns(); len(extra) > 0 {
		logger.Warn("manifest has columns the encoder does not produce; they are encoded as 0",
			"columns", extra)
	}
	if missing := m.MissingSeasons(); len(missing) > 0 {
		logger.Warn("manifest has no indicator for some seasons", "seasons", missing)
	}
	if missing := m.MissingBaseFeatures(); len(missing) > 0 {
		logger.Warn("manifest omits base features; they are not sent to the classifier", "features", missing)
	}
	logger.Info("model ready", "columns", m.Len(), "locations", len(m.Locations()))
	return s
}

// CheckReadiness returns nil once the model and manifest are loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.model == nil {
		return domain.ErrModelNotReady
	}
	return nil
}

// Locations returns the sorted locations the classifier was trained on.
func (s *Service) Locations() ([]string, error) {
	if s.model == nil {
		return nil, domain.ErrModelNotReady
	}
	return s.model.manifest.Locations(), nil
}

// HasLocation reports whether a trimmed location name is known.
func (s *Service) HasLocation(location string) bool {
	return s.model != nil && s.model.manifest.HasLocation(strings.TrimSpace(location))
}

// Predict fetches the current observation for location and classifies it.
// Unknown locations fail before any fetch or classifier call. The season
// comes from the injected clock, so results depend on the request date.
func (s *Service) Predict(ctx context.Context, location string) (domain.Prediction, error) {
	start := s.clock.Now()
	pred, err := s.predict(ctx, strings.TrimSpace(location))

	outcome := domain.OutcomeOf(err)
	s.metrics.Predictions.WithLabelValues(outcome).Inc()
	s.metrics.PredictionDuration.Observe(s.clock.Since(start).Seconds())

	if err != nil {
		level := slog.LevelWarn
		if outcome == domain.OutcomeClassifierError || outcome == domain.OutcomeModelNotReady {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "prediction failed", "location", location, "outcome", outcome, "error", err)
		return domain.Prediction{}, err
	}

	s.logger.Debug("prediction complete",
		"location", pred.Location,
		"season", pred.Season,
		"will_rain", pred.Result.Label,
		"rain_probability", pred.Result.RainProbability,
	)
	return pred, nil
}

func (s *Service) predict(ctx context.Context, name string) (domain.Prediction, error) {
	if s.model == nil {
		return domain.Prediction{}, domain.ErrModelNotReady
	}
	m := s.model.manifest

	if name == "" {
		return domain.Prediction{}, fmt.Errorf("%w: location name is empty", domain.ErrUnknownLocation)
	}
	if !m.HasLocation(name) {
		return domain.Prediction{}, fmt.Errorf("%w: %q", domain.ErrUnknownLocation, name)
	}

	obs, err := s.source.Current(ctx, name)
	if err != nil {
		if !errors.Is(err, domain.ErrObservationUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrObservationUnavailable, err)
		}
		return domain.Prediction{}, err
	}

	now := s.clock.Now()
	season := domain.SeasonForMonth(now.Month())

	vec, err := domain.Encode(obs, name, season, m)
	if err != nil {
		return domain.Prediction{}, err
	}

	result, err := s.classify(ctx, vec.Values())
	if err != nil {
		return domain.Prediction{}, err
	}

	return domain.Prediction{
		Location:    name,
		Season:      season,
		Observation: obs,
		Result:      result,
		Insights:    domain.Insights(obs),
		PredictedAt: now.UTC().Truncate(time.Second),
	}, nil
}

func (s *Service) classify(ctx context.Context, row []float64) (domain.PredictionResult, error) {
	c := s.model.classifier

	label, err := c.Predict(ctx, row)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("classifier predict: %w", err)
	}
	proba, err := c.PredictProba(ctx, row)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("classifier predict_proba: %w", err)
	}
	return domain.NewPredictionResult(label, proba)
}
