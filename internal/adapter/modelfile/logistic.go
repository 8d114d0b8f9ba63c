package modelfile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
)

const (
	// TypeLogistic is the only supported model type.
	TypeLogistic = "logistic"

	defaultThreshold = 0.5
)

// File is the on-disk form of a logistic regression classifier.
// Coefficients are keyed by manifest column; absent columns weigh 0.
type File struct {
	Type         string             `json:"type"`
	Coefficients map[string]float64 `json:"coefficients"`
	Intercept    float64            `json:"intercept"`
	Threshold    *float64           `json:"threshold,omitempty"`
}

// LogisticModel implements domain.Classifier with weights aligned to a manifest.
type LogisticModel struct {
	weights   []float64
	intercept float64
	threshold float64
}

// NewLogisticModel binds a model file to a manifest's column order.
func NewLogisticModel(f File, m *domain.Manifest) (*LogisticModel, error) {
	if f.Type != "" && f.Type != TypeLogistic {
		return nil, fmt.Errorf("unsupported model type %q", f.Type)
	}

	threshold := defaultThreshold
	if f.Threshold != nil {
		threshold = *f.Threshold
	}
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0, 1)", threshold)
	}
	if math.IsNaN(f.Intercept) || math.IsInf(f.Intercept, 0) {
		return nil, fmt.Errorf("intercept %v is not finite", f.Intercept)
	}

	weights := make([]float64, m.Len())
	for col, w := range f.Coefficients {
		i, ok := m.Index(col)
		if !ok {
			return nil, fmt.Errorf("coefficient %q is not a manifest column", col)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %q is not finite", col)
		}
		weights[i] = w
	}

	return &LogisticModel{weights: weights, intercept: f.Intercept, threshold: threshold}, nil
}

// LoadLogistic reads a model file and binds it to m.
func LoadLogistic(path string, m *domain.Manifest) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	model, err := NewLogisticModel(f, m)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return model, nil
}

// SaveLogistic writes a model file.
func SaveLogistic(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads the manifest and model. Every failure wraps domain.ErrModelNotReady.
func Load(modelPath, manifestPath string) (*LogisticModel, *domain.Manifest, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrModelNotReady, err)
	}
	model, err := LoadLogistic(modelPath, m)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrModelNotReady, err)
	}
	return model, m, nil
}

func (l *LogisticModel) Predict(ctx context.Context, row []float64) (int, error) {
	proba, err := l.PredictProba(ctx, row)
	if err != nil {
		return 0, err
	}
	if proba[1] >= l.threshold {
		return 1, nil
	}
	return 0, nil
}

func (l *LogisticModel) PredictProba(_ context.Context, row []float64) ([]float64, error) {
	if len(row) != len(l.weights) {
		return nil, fmt.Errorf("row has %d values, model expects %d", len(row), len(l.weights))
	}
	z := l.intercept
	for i, x := range row {
		z += l.weights[i] * x
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

// Threshold returns the decision threshold applied by Predict.
func (l *LogisticModel) Threshold() float64 {
	return l.threshold
}

// Weights returns a copy of the manifest-aligned weights.
func (l *LogisticModel) Weights() []float64 {
	return slices.Clone(l.weights)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
